package trainer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodneyosodo/parfold/dataset"
	"github.com/rodneyosodo/parfold/nn"
)

func testConfig() Config {
	return Config{
		Epochs:       5,
		BatchSize:    16,
		LearningRate: 0.05,
		Patience:     3,
		Activation:   "RELU",
		Loss:         "CE",
		Optimizer:    "SGD",
		Seed:         42,
	}
}

func TestConfigResolveRejectsUnknownSelectors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errIs  error
	}{
		{name: "bad activation", mutate: func(c *Config) { c.Activation = "TANH" }, errIs: nn.ErrUnknownActivation},
		{name: "bad loss", mutate: func(c *Config) { c.Loss = "HINGE" }, errIs: nn.ErrUnknownLoss},
		{name: "bad optimizer", mutate: func(c *Config) { c.Optimizer = "ADAGRAD" }, errIs: nn.ErrUnknownOptimizer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := cfg.Resolve()
			assert.ErrorIs(t, err, tt.errIs)
		})
	}
}

func TestRunProducesFoldResult(t *testing.T) {
	ds := dataset.Synthetic(120, 3, 8, 1)
	train, val := ds.Split(0.2, 1)

	unit := Unit{ID: 2, Name: "fold-2", Train: train, Val: val}

	res, err := Run(context.Background(), ds, unit, testConfig(), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Unit)
	assert.NotNil(t, res.Model)
	assert.Equal(t, len(val), res.ValTotal)
	assert.Equal(t, len(train), res.TrainTotal)
	assert.GreaterOrEqual(t, res.ValAccuracy, 0.0)
	assert.LessOrEqual(t, res.ValAccuracy, 100.0)
	assert.Greater(t, res.SlowestEpoch.Nanoseconds(), int64(0))
	assert.LessOrEqual(t, res.Epochs, 5)
	assert.InDelta(t, float64(res.ValCorrect)/float64(res.ValTotal)*100, res.ValAccuracy, 1e-9)
}

func TestRunWithoutValidationSkipsEarlyStopping(t *testing.T) {
	ds := dataset.Synthetic(60, 3, 8, 1)
	train, _ := ds.Split(0.2, 1)

	cfg := testConfig()
	cfg.Patience = 1

	res, err := Run(context.Background(), ds, Unit{ID: 0, Train: train}, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg.Epochs, res.Epochs, "without validation all epochs must run")
	assert.Zero(t, res.ValTotal)
}

func TestRunInvokesSyncCallbackEveryEpoch(t *testing.T) {
	ds := dataset.Synthetic(60, 3, 8, 1)
	train, val := ds.Split(0.2, 1)

	cfg := testConfig()
	cfg.Epochs = 4
	cfg.Patience = 100

	calls := 0
	syncFn := func(state nn.State) (nn.State, error) {
		calls++
		assert.Len(t, state.Names(), 6)

		return nil, nil
	}

	_, err := Run(context.Background(), ds, Unit{ID: 0, Train: train, Val: val}, cfg, syncFn)
	require.NoError(t, err)
	assert.Equal(t, 4, calls)
}

func TestRunLoadsMergedStateFromSync(t *testing.T) {
	ds := dataset.Synthetic(60, 3, 8, 1)
	train, val := ds.Split(0.2, 1)

	cfg := testConfig()
	cfg.Epochs = 1

	frozen := nn.New(ds.Features, ds.Classes, nn.ReLU, 99).State()
	res, err := Run(context.Background(), ds, Unit{ID: 0, Train: train, Val: val}, cfg, func(nn.State) (nn.State, error) {
		return frozen, nil
	})
	require.NoError(t, err)

	got := res.Model.State()
	for _, name := range frozen.Names() {
		assert.Equal(t, frozen[name], got[name], name)
	}
}

func TestRunFailsOnEmptyTrainPartition(t *testing.T) {
	ds := dataset.Synthetic(30, 3, 8, 1)

	_, err := Run(context.Background(), ds, Unit{ID: 0}, testConfig(), nil)
	assert.Error(t, err)
}

func TestRunHonorsContextCancellation(t *testing.T) {
	ds := dataset.Synthetic(60, 3, 8, 1)
	train, val := ds.Split(0.2, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, ds, Unit{ID: 0, Train: train, Val: val}, testConfig(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
