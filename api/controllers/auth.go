package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/farmconnect-backend/api/middleware"
	"github.com/angelmondragon/farmconnect-backend/api/responses"
	"github.com/angelmondragon/farmconnect-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
)

type sessionRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// AuthLogout revokes the caller's access token and clears the session cookie.
func AuthLogout(revoker sessionRevoker, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if revoker == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session store unavailable"))
			return
		}
		tokenID, expiresAt := middleware.TokenFromContext(r.Context())
		if tokenID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Not authorized, please login"))
			return
		}
		if err := revoker.Revoke(r.Context(), tokenID, expiresAt); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session"))
			return
		}
		if cfg.CookieName != "" {
			http.SetCookie(w, &http.Cookie{
				Name:     cfg.CookieName,
				Value:    "",
				Path:     "/",
				MaxAge:   -1,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		responses.WriteMessage(w, "Logged out successfully", nil)
	}
}
