package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/rodneyosodo/parfold"
	"github.com/rodneyosodo/parfold/coordinator"
)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    coordinator.Service
}

func Logging(logger *slog.Logger, svc coordinator.Service) coordinator.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) RunCrossValidation(ctx context.Context, cfg parfold.Config) (resp coordinator.Summary, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("run",
				slog.String("dataset", cfg.Dataset),
				slog.Int("folds", cfg.Folds),
				slog.Int("processors", cfg.Processors),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Run cross-validation failed", args...)

			return
		}
		args = append(args, slog.String("id", resp.ID))
		lm.logger.Info("Run cross-validation completed successfully", args...)
	}(time.Now())

	return lm.svc.RunCrossValidation(ctx, cfg)
}

func (lm *loggingMiddleware) RunSimulation(ctx context.Context, cfg parfold.Config) (resp coordinator.Summary, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("run",
				slog.String("dataset", cfg.Dataset),
				slog.Int("agents", cfg.Processors),
				slog.Int("epochs", cfg.Epochs),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Run simulation failed", args...)

			return
		}
		args = append(args, slog.String("id", resp.ID), slog.Int("rounds", resp.Rounds))
		lm.logger.Info("Run simulation completed successfully", args...)
	}(time.Now())

	return lm.svc.RunSimulation(ctx, cfg)
}

func (lm *loggingMiddleware) RunSingle(ctx context.Context, cfg parfold.Config) (resp coordinator.Summary, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("run",
				slog.String("dataset", cfg.Dataset),
				slog.Int("epochs", cfg.Epochs),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Run single training failed", args...)

			return
		}
		args = append(args, slog.String("id", resp.ID))
		lm.logger.Info("Run single training completed successfully", args...)
	}(time.Now())

	return lm.svc.RunSingle(ctx, cfg)
}

func (lm *loggingMiddleware) GetRun(ctx context.Context, id string) (resp coordinator.Summary, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("run",
				slog.String("id", id),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get run failed", args...)

			return
		}
		lm.logger.Info("Get run completed successfully", args...)
	}(time.Now())

	return lm.svc.GetRun(ctx, id)
}

func (lm *loggingMiddleware) ListRuns(ctx context.Context, offset, limit uint64) (resp coordinator.SummaryPage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List runs failed", args...)

			return
		}
		lm.logger.Info("List runs completed successfully", args...)
	}(time.Now())

	return lm.svc.ListRuns(ctx, offset, limit)
}
