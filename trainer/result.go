package trainer

import (
	"time"

	"github.com/rodneyosodo/parfold/nn"
)

// FoldResult is the immutable outcome of one worker training unit,
// consumed by the selector and the metrics aggregator.
type FoldResult struct {
	Unit         int           `json:"unit"`
	Name         string        `json:"name,omitempty"`
	TrainLoss    float64       `json:"train_loss"`
	ValLoss      float64       `json:"val_loss"`
	ValAccuracy  float64       `json:"val_accuracy"`
	TrainCorrect int           `json:"train_correct"`
	TrainTotal   int           `json:"train_total"`
	ValCorrect   int           `json:"val_correct"`
	ValTotal     int           `json:"val_total"`
	Epochs       int           `json:"epochs"`
	SlowestEpoch time.Duration `json:"slowest_epoch"`
	Model        *nn.Network   `json:"-"`
}
