package fedavg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodneyosodo/parfold/nn"
)

func TestAverage(t *testing.T) {
	states := []nn.State{
		{"fc1.weight": {1, 2, 3}, "fc1.bias": {1}},
		{"fc1.weight": {3, 4, 5}, "fc1.bias": {2}},
		{"fc1.weight": {5, 6, 7}, "fc1.bias": {6}},
	}

	avg, err := Average(states)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{3, 4, 5}, avg["fc1.weight"], 1e-12)
	assert.InDeltaSlice(t, []float64{3}, avg["fc1.bias"], 1e-12)
}

func TestAverageSkipsNilStates(t *testing.T) {
	states := []nn.State{
		{"fc1.weight": {2, 4}},
		nil,
		{"fc1.weight": {4, 8}},
	}

	avg, err := Average(states)
	require.NoError(t, err)

	// Divisor counts only agents holding a usable model: 2, not 3.
	assert.InDeltaSlice(t, []float64{3, 6}, avg["fc1.weight"], 1e-12)
	// Dividing by all three slots would dilute the mean to {2, 4}.
	assert.NotEqual(t, []float64{2, 4}, avg["fc1.weight"])
}

func TestAverageErrors(t *testing.T) {
	_, err := Average(nil)
	assert.ErrorIs(t, err, ErrNoStates)

	_, err = Average([]nn.State{nil, nil})
	assert.ErrorIs(t, err, ErrNoStates)

	_, err = Average([]nn.State{
		{"fc1.weight": {1, 2}},
		{"fc2.weight": {1, 2}},
	})
	assert.ErrorIs(t, err, ErrTensorMismatch)

	_, err = Average([]nn.State{
		{"fc1.weight": {1, 2}},
		{"fc1.weight": {1, 2, 3}},
	})
	assert.ErrorIs(t, err, ErrTensorMismatch)
}

func TestBroadcastMakesAgentsIdentical(t *testing.T) {
	models := []*nn.Network{
		nn.New(6, 3, nn.ReLU, 1),
		nn.New(6, 3, nn.ReLU, 2),
		nn.New(6, 3, nn.ReLU, 3),
	}

	states := make([]nn.State, len(models))
	for i, m := range models {
		states[i] = m.State()
	}

	avg, err := Average(states)
	require.NoError(t, err)
	require.NoError(t, Broadcast(avg, models))

	ref := models[0].State()
	for _, m := range models[1:] {
		got := m.State()
		for _, name := range ref.Names() {
			assert.InDeltaSlice(t, ref[name], got[name], 1e-15, name)
		}
	}

	// The broadcast state is the mean of the pre-broadcast states.
	for _, name := range ref.Names() {
		for j := range ref[name] {
			want := (states[0][name][j] + states[1][name][j] + states[2][name][j]) / 3
			assert.InDelta(t, want, ref[name][j], 1e-12)
		}
	}
}
