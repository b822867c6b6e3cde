// Package fedavg averages parameter tensors across agents, the mechanism
// binding independently-trained local models back into one logical
// global model.
package fedavg

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/rodneyosodo/parfold/nn"
)

var (
	ErrNoStates       = errors.New("no agent states provided for averaging")
	ErrTensorMismatch = errors.New("agent states have mismatched tensors")
)

// Average computes the unweighted arithmetic mean of every parameter
// tensor across the given agent snapshots. Nil entries are agents that
// hold no usable local model this round; they are excluded from both the
// sum and the divisor, so missing agents never dilute the average.
// One pass over every tensor: O(total parameter count).
func Average(states []nn.State) (nn.State, error) {
	var first nn.State
	n := 0
	for _, s := range states {
		if s != nil {
			if first == nil {
				first = s
			}
			n++
		}
	}
	if n == 0 {
		return nil, ErrNoStates
	}

	names := first.Names()

	avg := make(nn.State, len(names))
	for _, name := range names {
		avg[name] = make([]float64, len(first[name]))
	}

	for _, s := range states {
		if s == nil {
			continue
		}
		for _, name := range names {
			vals, ok := s[name]
			if !ok || len(vals) != len(avg[name]) {
				return nil, fmt.Errorf("%w: tensor %s", ErrTensorMismatch, name)
			}
			floats.Add(avg[name], vals)
		}
	}

	inv := 1.0 / float64(n)
	for _, name := range names {
		floats.Scale(inv, avg[name])
	}

	return avg, nil
}

// Broadcast overwrites every model's parameters with the averaged state.
// After a broadcast all models are parameter-identical.
func Broadcast(avg nn.State, models []*nn.Network) error {
	for i, m := range models {
		if m == nil {
			continue
		}
		if err := m.LoadState(avg); err != nil {
			return fmt.Errorf("broadcasting to agent %d: %w", i, err)
		}
	}

	return nil
}
