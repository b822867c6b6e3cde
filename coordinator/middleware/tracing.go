package middleware

import (
	"context"

	"github.com/rodneyosodo/parfold"
	"github.com/rodneyosodo/parfold/coordinator"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ coordinator.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    coordinator.Service
}

func Tracing(tracer trace.Tracer, svc coordinator.Service) coordinator.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) RunCrossValidation(ctx context.Context, cfg parfold.Config) (resp coordinator.Summary, err error) {
	ctx, span := tm.tracer.Start(ctx, "run-cross-validation", trace.WithAttributes(
		attribute.String("dataset", cfg.Dataset),
		attribute.Int("folds", cfg.Folds),
		attribute.Int("processors", cfg.Processors),
	))
	defer span.End()

	return tm.svc.RunCrossValidation(ctx, cfg)
}

func (tm *tracing) RunSimulation(ctx context.Context, cfg parfold.Config) (resp coordinator.Summary, err error) {
	ctx, span := tm.tracer.Start(ctx, "run-simulation", trace.WithAttributes(
		attribute.String("dataset", cfg.Dataset),
		attribute.Int("agents", cfg.Processors),
		attribute.Int("epochs", cfg.Epochs),
	))
	defer span.End()

	return tm.svc.RunSimulation(ctx, cfg)
}

func (tm *tracing) RunSingle(ctx context.Context, cfg parfold.Config) (resp coordinator.Summary, err error) {
	ctx, span := tm.tracer.Start(ctx, "run-single", trace.WithAttributes(
		attribute.String("dataset", cfg.Dataset),
		attribute.Int("epochs", cfg.Epochs),
	))
	defer span.End()

	return tm.svc.RunSingle(ctx, cfg)
}

func (tm *tracing) GetRun(ctx context.Context, id string) (resp coordinator.Summary, err error) {
	ctx, span := tm.tracer.Start(ctx, "get-run", trace.WithAttributes(
		attribute.String("id", id),
	))
	defer span.End()

	return tm.svc.GetRun(ctx, id)
}

func (tm *tracing) ListRuns(ctx context.Context, offset, limit uint64) (resp coordinator.SummaryPage, err error) {
	ctx, span := tm.tracer.Start(ctx, "list-runs", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.ListRuns(ctx, offset, limit)
}
