package coordinator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodneyosodo/parfold/trainer"
)

func TestSelectBest(t *testing.T) {
	tests := []struct {
		name       string
		accuracies []float64
		want       int
	}{
		{name: "middle fold wins", accuracies: []float64{81, 95, 74}, want: 1},
		{name: "tie breaks to lowest index", accuracies: []float64{90, 90}, want: 0},
		{name: "single result", accuracies: []float64{50}, want: 0},
		{name: "last fold wins", accuracies: []float64{10, 20, 30}, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := make([]trainer.FoldResult, len(tt.accuracies))
			for i, acc := range tt.accuracies {
				results[i] = trainer.FoldResult{Unit: i, ValAccuracy: acc}
			}

			got, err := SelectBest(results)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectBestEmpty(t *testing.T) {
	_, err := SelectBest(nil)
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestAggregateDistinguishesPooledFromMean(t *testing.T) {
	results := []trainer.FoldResult{
		{ValCorrect: 8, ValTotal: 10, ValAccuracy: 80, SlowestEpoch: 2 * time.Second},
		{ValCorrect: 18, ValTotal: 20, ValAccuracy: 90, SlowestEpoch: 4 * time.Second},
	}

	agg := aggregate(results)

	assert.InDelta(t, 86.6667, agg.pooledAccuracy, 1e-3)
	assert.InDelta(t, 85.0, agg.meanValAccuracy, 1e-9)
	assert.NotEqual(t, agg.pooledAccuracy, agg.meanValAccuracy,
		"pooled accuracy and mean-of-accuracies are not interchangeable")

	assert.Equal(t, 26, agg.pooledCorrect)
	assert.Equal(t, 30, agg.pooledTotal)
	assert.Equal(t, 6*time.Second, agg.cumulative)
	assert.Equal(t, 3*time.Second, agg.averagePerNode)
}
