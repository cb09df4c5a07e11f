package tasks

import (
	"context"
	"log/slog"

	"defense_queue/internal/models"

	"github.com/robfig/cron/v3"
)

// HighWaterResetter — часть движка очередей, нужная планировщику.
type HighWaterResetter interface {
	ResetHighWater(ctx context.Context, policy models.HighWaterReset) (int, error)
}

// ResetDailyHighWater сбрасывает пик заполненности у очередей с политикой daily.
func ResetDailyHighWater(ctx context.Context, r HighWaterResetter, logger *slog.Logger) {
	n, err := r.ResetHighWater(ctx, models.HighWaterDaily)
	if err != nil {
		logger.Error("daily high-water reset failed", slog.Int("reset", n), slog.Any("error", err))
		return
	}
	logger.Info("daily high-water reset done", slog.Int("reset", n))
}

// InitScheduler запускает cron-планировщик. expr — выражение с секундами,
// например "0 0 3 * * *" (каждый день в 03:00).
func InitScheduler(ctx context.Context, expr string, r HighWaterResetter, logger *slog.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithSeconds())

	if _, err := c.AddFunc(expr, func() { ResetDailyHighWater(ctx, r, logger) }); err != nil {
		return nil, err
	}

	c.Start()
	logger.Info("cron scheduler started", slog.String("high_water_cron", expr))
	return c, nil
}
