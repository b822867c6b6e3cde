package middleware

import (
	"context"
	"time"

	"github.com/go-kit/kit/metrics"
	"github.com/rodneyosodo/parfold"
	"github.com/rodneyosodo/parfold/coordinator"
)

var _ coordinator.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     coordinator.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, svc coordinator.Service) coordinator.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) RunCrossValidation(ctx context.Context, cfg parfold.Config) (coordinator.Summary, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "run-cross-validation").Add(1)
		mm.latency.With("method", "run-cross-validation").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.RunCrossValidation(ctx, cfg)
}

func (mm *metricsMiddleware) RunSimulation(ctx context.Context, cfg parfold.Config) (coordinator.Summary, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "run-simulation").Add(1)
		mm.latency.With("method", "run-simulation").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.RunSimulation(ctx, cfg)
}

func (mm *metricsMiddleware) RunSingle(ctx context.Context, cfg parfold.Config) (coordinator.Summary, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "run-single").Add(1)
		mm.latency.With("method", "run-single").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.RunSingle(ctx, cfg)
}

func (mm *metricsMiddleware) GetRun(ctx context.Context, id string) (coordinator.Summary, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-run").Add(1)
		mm.latency.With("method", "get-run").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetRun(ctx, id)
}

func (mm *metricsMiddleware) ListRuns(ctx context.Context, offset, limit uint64) (coordinator.SummaryPage, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-runs").Add(1)
		mm.latency.With("method", "list-runs").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListRuns(ctx, offset, limit)
}
