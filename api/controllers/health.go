package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/farmconnect-backend/api/responses"
	"github.com/angelmondragon/farmconnect-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is any dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FarmConnect-Env", cfg.App.Env)
		responses.WriteSuccess(w, responses.Payload{"status": "live"})
	}
}

// HealthReady pings every named dependency and reports 503 on the first failure.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FarmConnect-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := make(map[string]string, len(deps))
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				checks[name] = "down"
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable").WithDetails(checks))
				return
			}
			checks[name] = "up"
		}
		responses.WriteSuccess(w, responses.Payload{"status": "ready", "checks": checks})
	}
}
