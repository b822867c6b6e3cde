package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActivation(t *testing.T) {
	tests := []struct {
		name     string
		selector string
		want     Activation
		wantErr  bool
	}{
		{name: "relu", selector: "RELU", want: ReLU},
		{name: "lowercase accepted", selector: "gelu", want: GELU},
		{name: "leaky relu", selector: "LEAKY_RELU", want: LeakyReLU},
		{name: "mish", selector: "MISH", want: Mish},
		{name: "unknown rejected", selector: "SWISH", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseActivation(tt.selector)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownActivation)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLossAndOptimizer(t *testing.T) {
	for _, s := range []string{"CE", "LSCE", "FC", "WCE"} {
		_, err := ParseLoss(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseLoss("MSE")
	assert.ErrorIs(t, err, ErrUnknownLoss)

	for _, s := range []string{"SGD", "SGDM", "ADAM", "ADAMW", "RMSP"} {
		_, err := ParseOptimizer(s)
		assert.NoError(t, err, s)
	}
	_, err = ParseOptimizer("LION")
	assert.ErrorIs(t, err, ErrUnknownOptimizer)
}

func TestCrossEntropyGrad(t *testing.T) {
	logits := []float64{1.0, 2.0, 0.5}
	loss, grad := CrossEntropy.Grad(logits, 1)

	p := softmax(logits)
	assert.InDelta(t, -math.Log(p[1]), loss, 1e-9)

	// Gradient is p - onehot and sums to zero.
	sum := 0.0
	for j, g := range grad {
		want := p[j]
		if j == 1 {
			want--
		}
		assert.InDelta(t, want, g, 1e-9)
		sum += g
	}
	assert.InDelta(t, 0, sum, 1e-9)
}

func TestLossGradMatchesNumericalGradient(t *testing.T) {
	logits := []float64{0.3, -1.2, 0.8, 0.1}
	const h = 1e-6

	for _, loss := range []Loss{CrossEntropy, LabelSmoothingCE, FocalCE, WeightedCE} {
		t.Run(loss.String(), func(t *testing.T) {
			for label := 0; label < len(logits); label++ {
				_, grad := loss.Grad(logits, label)
				for j := range logits {
					bumped := make([]float64, len(logits))
					copy(bumped, logits)
					bumped[j] += h
					up := loss.Value(bumped, label)
					bumped[j] -= 2 * h
					down := loss.Value(bumped, label)

					numeric := (up - down) / (2 * h)
					assert.InDelta(t, numeric, grad[j], 1e-4,
						"loss %s label %d logit %d", loss, label, j)
				}
			}
		})
	}
}

type sliceSource struct {
	xs [][]float64
	ys []int
}

func (s sliceSource) Example(i int) ([]float64, int) {
	return s.xs[i], s.ys[i]
}

func TestTrainBatchReducesLoss(t *testing.T) {
	// Two linearly separable points.
	src := sliceSource{
		xs: [][]float64{{1, 0, 0, 0}, {0, 0, 0, 1}},
		ys: []int{0, 1},
	}

	net := New(4, 2, ReLU, 7)
	opt := NewOptimizer(SGD, 0.1)

	first, _ := net.TrainBatch(src, []int{0, 1}, CrossEntropy, opt)
	var last float64
	for i := 0; i < 200; i++ {
		last, _ = net.TrainBatch(src, []int{0, 1}, CrossEntropy, opt)
	}

	assert.Less(t, last, first, "loss must decrease on a separable batch")
	assert.Equal(t, 0, net.Predict(src.xs[0]))
	assert.Equal(t, 1, net.Predict(src.xs[1]))
}

func TestStateRoundTrip(t *testing.T) {
	a := New(6, 3, ReLU, 1)
	b := New(6, 3, ReLU, 2)

	require.NoError(t, b.LoadState(a.State()))

	x := []float64{0.5, -0.2, 0.1, 0.9, -0.7, 0.3}
	av := a.Forward(x)
	bv := b.Forward(x)
	for j := range av {
		assert.InDelta(t, av[j], bv[j], 1e-12)
	}
}

func TestStateNamesStable(t *testing.T) {
	s := New(4, 2, ReLU, 1).State()
	assert.Equal(t, []string{"fc1.bias", "fc1.weight", "fc2.bias", "fc2.weight", "fc3.bias", "fc3.weight"}, s.Names())
}

func TestLoadStateRejectsMismatch(t *testing.T) {
	net := New(4, 2, ReLU, 1)

	s := net.State()
	delete(s, "fc2.weight")
	assert.Error(t, net.LoadState(s))

	s = net.State()
	s["fc1.weight"] = s["fc1.weight"][:3]
	assert.Error(t, net.LoadState(s))
}
