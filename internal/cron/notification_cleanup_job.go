package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	NotificationCleanupJobName = "notification-cleanup"
	notificationRetentionDays  = 30
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type notificationPurger interface {
	DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type NotificationCleanupJobParams struct {
	Logger        *logger.Logger
	DB            txRunner
	Notifications notificationPurger
	// RetentionDays defaults to 30 when unset.
	RetentionDays int
}

// NewNotificationCleanupJob builds the purge of old in-app notifications.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	retention := params.RetentionDays
	if retention <= 0 {
		retention = notificationRetentionDays
	}
	return &notificationCleanupJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Notifications,
		retention: retention,
		now:       time.Now,
	}, nil
}

type notificationCleanupJob struct {
	logg      *logger.Logger
	db        txRunner
	repo      notificationPurger
	retention int
	now       func() time.Time
}

func (j *notificationCleanupJob) Name() string { return NotificationCleanupJobName }

func (j *notificationCleanupJob) Run(ctx context.Context) (Result, error) {
	cutoff := j.now().UTC().AddDate(0, 0, -j.retention)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.DeleteOlderThan(ctx, tx, cutoff)
		deleted = rows
		return err
	})
	if err != nil {
		return Result{}, fmt.Errorf("notification cleanup: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	}), "notification cleanup complete")
	return Result{Affected: deleted}, nil
}
