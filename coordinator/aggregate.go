package coordinator

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/rodneyosodo/parfold/trainer"
)

// SelectBest picks the fold with maximum validation accuracy. Ties break
// toward the lowest fold index: the first seen wins.
func SelectBest(results []trainer.FoldResult) (int, error) {
	if len(results) == 0 {
		return 0, ErrNoResults
	}

	best := 0
	for i, res := range results[1:] {
		if res.ValAccuracy > results[best].ValAccuracy {
			best = i + 1
		}
	}

	return best, nil
}

type aggregates struct {
	meanValAccuracy float64
	pooledCorrect   int
	pooledTotal     int
	pooledAccuracy  float64
	cumulative      time.Duration
	averagePerNode  time.Duration
}

// aggregate combines per-worker metrics into global summary statistics.
// The pooled accuracy (total correct over total examples) and the mean
// of per-worker accuracies are different quantities; both are computed.
func aggregate(results []trainer.FoldResult) aggregates {
	if len(results) == 0 {
		return aggregates{}
	}

	accuracies := make([]float64, len(results))
	var agg aggregates
	for i, res := range results {
		accuracies[i] = res.ValAccuracy
		agg.pooledCorrect += res.ValCorrect
		agg.pooledTotal += res.ValTotal
		agg.cumulative += res.SlowestEpoch
	}

	agg.meanValAccuracy = stat.Mean(accuracies, nil)
	if agg.pooledTotal > 0 {
		agg.pooledAccuracy = float64(agg.pooledCorrect) / float64(agg.pooledTotal) * 100
	}
	agg.averagePerNode = agg.cumulative / time.Duration(len(results))

	return agg
}
