// Package coordinator orchestrates training runs end to end: it
// partitions the data, dispatches worker units, selects and aggregates
// results, and evaluates the winning model on the held-out test set.
package coordinator

import (
	"context"
	"errors"
	"time"

	"github.com/rodneyosodo/parfold"
	"github.com/rodneyosodo/parfold/trainer"
)

var (
	ErrNoResults   = errors.New("no fold results to select from")
	ErrUnknownMode = errors.New("unknown run mode")
)

type Mode string

const (
	ModeCrossValidation Mode = "cross-validation"
	ModeSimulation      Mode = "simulation"
	ModeSingle          Mode = "single"
)

// Summary is the structured report of one completed run. It is only
// produced on full success. The mean-of-accuracies and the pooled
// accuracy are distinct figures and both are always reported.
type Summary struct {
	ID      string `json:"id"`
	Mode    Mode   `json:"mode"`
	Dataset string `json:"dataset"`
	Device  string `json:"device"`

	Folds []trainer.FoldResult `json:"folds"`

	BestFold        int     `json:"best_fold"`
	BestValAccuracy float64 `json:"best_val_accuracy"`
	MeanValAccuracy float64 `json:"mean_val_accuracy"`
	PooledCorrect   int     `json:"pooled_correct"`
	PooledTotal     int     `json:"pooled_total"`
	PooledAccuracy  float64 `json:"pooled_accuracy"`

	TestCorrect  int     `json:"test_correct"`
	TestTotal    int     `json:"test_total"`
	TestAccuracy float64 `json:"test_accuracy"`

	CumulativeTime     time.Duration `json:"cumulative_time"`
	AverageTimePerNode time.Duration `json:"average_time_per_node"`
	WallClock          time.Duration `json:"wall_clock"`

	Rounds    int       `json:"rounds,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type SummaryPage struct {
	Offset uint64    `json:"offset"`
	Limit  uint64    `json:"limit"`
	Total  uint64    `json:"total"`
	Runs   []Summary `json:"runs"`
}

// Service is the coordinator's public surface.
type Service interface {
	// RunCrossValidation trains K independent folds on the worker pool
	// and evaluates the best fold's model on the held-out test set.
	RunCrossValidation(ctx context.Context, cfg parfold.Config) (Summary, error)

	// RunSimulation trains N shard-holding agents in synchronized
	// rounds and evaluates the representative model.
	RunSimulation(ctx context.Context, cfg parfold.Config) (Summary, error)

	// RunSingle trains one model on the whole training split, the
	// degenerate path used when fewer than 2 folds are requested.
	RunSingle(ctx context.Context, cfg parfold.Config) (Summary, error)

	// GetRun returns a stored summary by run ID.
	GetRun(ctx context.Context, id string) (Summary, error)

	// ListRuns pages through stored summaries in creation order.
	ListRuns(ctx context.Context, offset, limit uint64) (SummaryPage, error)
}
