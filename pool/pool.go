// Package pool is the parallel execution engine: worker training units
// dispatched onto a fixed-size pool and joined all-or-nothing.
package pool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rodneyosodo/parfold/trainer"
)

var ErrAggregateTraining = errors.New("parallel training run failed")

// WorkerError carries the failing unit's identifier and underlying cause.
type WorkerError struct {
	Unit int
	Err  error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("unit %d: %s", e.Unit, e.Err)
}

func (e *WorkerError) Unwrap() error {
	return e.Err
}

// UnitFunc trains one unit to completion.
type UnitFunc func(ctx context.Context, unit trainer.Unit) (trainer.FoldResult, error)

// Run dispatches every unit onto a pool of at most size concurrent
// workers and blocks until all complete. Results are returned in
// submission order regardless of completion order, together with the
// wall-clock time of the whole pool lifetime (units overlap, so this is
// less than the per-unit sum).
//
// If any unit fails the whole run fails with ErrAggregateTraining
// wrapping the first WorkerError; partial results are discarded and the
// remaining units are cancelled.
func Run(ctx context.Context, units []trainer.Unit, size int, fn UnitFunc) ([]trainer.FoldResult, time.Duration, error) {
	if size < 1 {
		size = 1
	}

	begin := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(size)

	results := make([]trainer.FoldResult, len(units))
	for i, unit := range units {
		i, unit := i, unit
		g.Go(func() error {
			res, err := fn(ctx, unit)
			if err != nil {
				return &WorkerError{Unit: unit.ID, Err: err}
			}
			results[i] = res

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, time.Since(begin), errors.Join(ErrAggregateTraining, err)
	}

	return results, time.Since(begin), nil
}
