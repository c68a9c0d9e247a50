package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
)

// CartExpiryJobName labels the reaper in logs and metrics.
const CartExpiryJobName = "cart-expiry"

type expiredCartDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type CartExpiryJobParams struct {
	Logger *logger.Logger
	Carts  expiredCartDeleter
}

// NewCartExpiryJob builds the sweep that deletes carts past their expiry.
func NewCartExpiryJob(params CartExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	return &cartExpiryJob{logg: params.Logger, carts: params.Carts, now: time.Now}, nil
}

type cartExpiryJob struct {
	logg  *logger.Logger
	carts expiredCartDeleter
	now   func() time.Time
}

func (j *cartExpiryJob) Name() string { return CartExpiryJobName }

func (j *cartExpiryJob) Run(ctx context.Context) (Result, error) {
	cutoff := j.now().UTC()
	deleted, err := j.carts.DeleteExpired(ctx, cutoff)
	if err != nil {
		return Result{}, fmt.Errorf("delete expired carts: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":        cutoff,
		"carts_deleted": deleted,
	}), "expired carts swept")
	return Result{Affected: deleted}, nil
}
