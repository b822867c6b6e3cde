// Package trainer implements the worker training unit: one model trained
// on one data partition to convergence or patience exhaustion.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rodneyosodo/parfold/dataset"
	"github.com/rodneyosodo/parfold/nn"
)

var ErrDivergence = errors.New("training loss is non-finite")

// Config is the shared hyperparameter bundle consumed by every worker.
// Selector strings are resolved once, before any training starts.
type Config struct {
	Epochs       int
	BatchSize    int
	LearningRate float64
	Patience     int
	Activation   string
	Loss         string
	Optimizer    string
	Seed         int64
}

// Resolved holds the strategy objects produced from Config selectors.
type Resolved struct {
	Activation nn.Activation
	Loss       nn.Loss
	Optimizer  nn.OptimizerKind
}

// Resolve validates the selector strings. Unknown tags surface here as
// configuration errors and nothing is trained.
func (c Config) Resolve() (Resolved, error) {
	act, err := nn.ParseActivation(c.Activation)
	if err != nil {
		return Resolved{}, err
	}
	loss, err := nn.ParseLoss(c.Loss)
	if err != nil {
		return Resolved{}, err
	}
	opt, err := nn.ParseOptimizer(c.Optimizer)
	if err != nil {
		return Resolved{}, err
	}

	return Resolved{Activation: act, Loss: loss, Optimizer: opt}, nil
}

// Unit identifies one worker's data partition. Validation indices may be
// empty for the degenerate single-split run.
type Unit struct {
	ID    int
	Name  string
	Train []int
	Val   []int
}

// SyncFunc is invoked once per epoch with the worker's parameter
// snapshot. The returned state, if non-nil, replaces the worker's
// parameters before validation. It is the sole integration point with
// the synchronization engine and is called synchronously.
type SyncFunc func(state nn.State) (nn.State, error)

// Session is the mutable state of one worker training unit. It is owned
// by a single goroutine for its whole lifetime.
type Session struct {
	unit    Unit
	cfg     Config
	res     Resolved
	ds      *dataset.Dataset
	model   *nn.Network
	opt     nn.Optimizer
	stopper *EarlyStopper
	rng     *rand.Rand

	epochs       int
	lastLoss     float64
	trainCorrect int
	trainTotal   int
	slowest      time.Duration
}

// NewSession constructs a fresh model and optimizer exclusively owned by
// this unit.
func NewSession(ds *dataset.Dataset, unit Unit, cfg Config) (*Session, error) {
	res, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}
	if len(unit.Train) == 0 {
		return nil, fmt.Errorf("unit %d has no training examples", unit.ID)
	}

	seed := cfg.Seed + int64(unit.ID)

	return &Session{
		unit:    unit,
		cfg:     cfg,
		res:     res,
		ds:      ds,
		model:   nn.New(ds.Features, ds.Classes, res.Activation, seed),
		opt:     nn.NewOptimizer(res.Optimizer, cfg.LearningRate),
		stopper: NewEarlyStopper(cfg.Patience),
		rng:     rand.New(rand.NewSource(seed)),
	}, nil
}

func (s *Session) Model() *nn.Network { return s.model }

// ValSize is the number of validation examples assigned to this unit.
func (s *Session) ValSize() int { return len(s.unit.Val) }

func (s *Session) Stopped() bool { return s.stopper.Stopped() }

// TrainEpoch iterates the training partition once in randomized
// mini-batches and applies one optimizer step per batch. The epoch
// duration is tracked so the slowest epoch can be reported.
func (s *Session) TrainEpoch(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	begin := time.Now()

	order := make([]int, len(s.unit.Train))
	copy(order, s.unit.Train)
	s.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	s.trainCorrect = 0
	s.trainTotal = 0
	for start := 0; start < len(order); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(order) {
			end = len(order)
		}
		batch := order[start:end]

		loss, correct := s.model.TrainBatch(s.ds, batch, s.res.Loss, s.opt)
		s.lastLoss = loss
		s.trainCorrect += correct
		s.trainTotal += len(batch)

		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			return fmt.Errorf("%w: unit %d epoch %d", ErrDivergence, s.unit.ID, s.epochs+1)
		}
	}

	if elapsed := time.Since(begin); elapsed > s.slowest {
		s.slowest = elapsed
	}
	s.epochs++

	return nil
}

// Validate evaluates the assigned validation partition without gradient
// computation.
func (s *Session) Validate() (loss, accuracy float64, correct, total int) {
	return Evaluate(s.ds, s.unit.Val, s.model, s.res.Loss)
}

// Observe feeds one validation loss to the early-stopping policy.
func (s *Session) Observe(valLoss float64) bool {
	return s.stopper.Observe(valLoss)
}

// Result assembles the unit's immutable outcome from the most recent
// validation figures.
func (s *Session) Result(valLoss, valAcc float64, valCorrect, valTotal int) FoldResult {
	return FoldResult{
		Unit:         s.unit.ID,
		Name:         s.unit.Name,
		TrainLoss:    s.lastLoss,
		ValLoss:      valLoss,
		ValAccuracy:  valAcc,
		TrainCorrect: s.trainCorrect,
		TrainTotal:   s.trainTotal,
		ValCorrect:   valCorrect,
		ValTotal:     valTotal,
		Epochs:       s.epochs,
		SlowestEpoch: s.slowest,
		Model:        s.model,
	}
}

// Run trains one unit to completion: up to cfg.Epochs epochs of shuffled
// mini-batches, an optional synchronization callback after every epoch,
// a validation pass, and the early-stopping policy. The reported time is
// the slowest epoch, a worst-case signal for pipeline balance.
func Run(ctx context.Context, ds *dataset.Dataset, unit Unit, cfg Config, syncFn SyncFunc) (FoldResult, error) {
	s, err := NewSession(ds, unit, cfg)
	if err != nil {
		return FoldResult{}, err
	}

	var valLoss, valAcc float64
	var valCorrect, valTotal int

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		if err := s.TrainEpoch(ctx); err != nil {
			return FoldResult{}, err
		}

		if syncFn != nil {
			merged, err := syncFn(s.model.State())
			if err != nil {
				return FoldResult{}, fmt.Errorf("synchronizing unit %d: %w", unit.ID, err)
			}
			if merged != nil {
				if err := s.model.LoadState(merged); err != nil {
					return FoldResult{}, fmt.Errorf("loading synchronized state on unit %d: %w", unit.ID, err)
				}
			}
		}

		if len(unit.Val) == 0 {
			continue
		}

		valLoss, valAcc, valCorrect, valTotal = s.Validate()
		if s.Observe(valLoss) {
			break
		}
	}

	return s.Result(valLoss, valAcc, valCorrect, valTotal), nil
}

// Evaluate runs the model over the given indices in inference mode and
// returns mean loss, accuracy in percent, and the correct/total counts.
func Evaluate(ds *dataset.Dataset, indices []int, model *nn.Network, loss nn.Loss) (float64, float64, int, int) {
	if len(indices) == 0 {
		return 0, 0, 0, 0
	}

	total := 0.0
	correct := 0
	for _, idx := range indices {
		x, y := ds.Example(idx)
		logits := model.Forward(x)
		total += loss.Value(logits, y)

		best := 0
		for j, v := range logits {
			if v > logits[best] {
				best = j
			}
		}
		if best == y {
			correct++
		}
	}

	n := len(indices)

	return total / float64(n), float64(correct) / float64(n) * 100, correct, n
}
