package trainer

import "math"

// EarlyStopper is a per-worker plateau detector on validation loss. It is
// strictly local to one worker and never shared or synchronized.
type EarlyStopper struct {
	patience int
	best     float64
	without  int
	stopped  bool
}

func NewEarlyStopper(patience int) *EarlyStopper {
	return &EarlyStopper{
		patience: patience,
		best:     math.Inf(1),
	}
}

// Observe records one epoch's validation loss and reports whether the
// worker must stop. Once stopped the state is terminal.
func (e *EarlyStopper) Observe(valLoss float64) bool {
	if e.stopped {
		return true
	}

	if valLoss < e.best {
		e.best = valLoss
		e.without = 0

		return false
	}

	e.without++
	if e.without >= e.patience {
		e.stopped = true
	}

	return e.stopped
}

func (e *EarlyStopper) Stopped() bool {
	return e.stopped
}

func (e *EarlyStopper) Best() float64 {
	return e.best
}
