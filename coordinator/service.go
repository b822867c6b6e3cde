package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rodneyosodo/parfold"
	"github.com/rodneyosodo/parfold/dataset"
	"github.com/rodneyosodo/parfold/mas"
	"github.com/rodneyosodo/parfold/pkg/storage"
	"github.com/rodneyosodo/parfold/pool"
	"github.com/rodneyosodo/parfold/trainer"
)

const mnistClasses = 10

type service struct {
	runsDB storage.Storage
	logger *slog.Logger
}

func NewService(runsDB storage.Storage, logger *slog.Logger) Service {
	return &service{
		runsDB: runsDB,
		logger: logger,
	}
}

func (svc *service) RunCrossValidation(ctx context.Context, cfg parfold.Config) (Summary, error) {
	ds, tcfg, err := svc.prepare(cfg)
	if err != nil {
		return Summary{}, err
	}
	resolved, err := tcfg.Resolve()
	if err != nil {
		return Summary{}, err
	}

	trainIdx, testIdx := ds.Split(cfg.TestFraction, cfg.Seed)

	folds, err := dataset.KFold(trainIdx, cfg.Folds)
	if err != nil {
		return Summary{}, err
	}

	units := make([]trainer.Unit, len(folds))
	for i, f := range folds {
		units[i] = trainer.Unit{
			ID:    i,
			Name:  fmt.Sprintf("fold-%d", i),
			Train: f.Train,
			Val:   f.Val,
		}
	}

	results, wall, err := pool.Run(ctx, units, cfg.Processors, func(ctx context.Context, u trainer.Unit) (trainer.FoldResult, error) {
		return trainer.Run(ctx, ds, u, tcfg, nil)
	})
	if err != nil {
		return Summary{}, err
	}

	best, err := SelectBest(results)
	if err != nil {
		return Summary{}, err
	}

	agg := aggregate(results)
	_, testAcc, testCorrect, testTotal := trainer.Evaluate(ds, testIdx, results[best].Model, resolved.Loss)

	summary := Summary{
		ID:                 uuid.NewString(),
		Mode:               ModeCrossValidation,
		Dataset:            strings.ToUpper(cfg.Dataset),
		Device:             strings.ToUpper(cfg.Device),
		Folds:              results,
		BestFold:           best,
		BestValAccuracy:    results[best].ValAccuracy,
		MeanValAccuracy:    agg.meanValAccuracy,
		PooledCorrect:      agg.pooledCorrect,
		PooledTotal:        agg.pooledTotal,
		PooledAccuracy:     agg.pooledAccuracy,
		TestCorrect:        testCorrect,
		TestTotal:          testTotal,
		TestAccuracy:       testAcc,
		CumulativeTime:     agg.cumulative,
		AverageTimePerNode: agg.averagePerNode,
		WallClock:          wall,
		CreatedAt:          time.Now(),
	}

	return svc.save(ctx, summary)
}

func (svc *service) RunSimulation(ctx context.Context, cfg parfold.Config) (Summary, error) {
	ds, tcfg, err := svc.prepare(cfg)
	if err != nil {
		return Summary{}, err
	}
	resolved, err := tcfg.Resolve()
	if err != nil {
		return Summary{}, err
	}

	trainAll, testIdx := ds.Split(cfg.TestFraction, cfg.Seed)
	trainIdx, valIdx := dataset.SplitIndices(trainAll, cfg.ValFraction, cfg.Seed+1)

	begin := time.Now()

	sim, err := mas.New(ds, trainIdx, valIdx, tcfg, cfg.Processors, svc.logger)
	if err != nil {
		return Summary{}, err
	}

	report, err := sim.Run(ctx)
	if err != nil {
		return Summary{}, err
	}

	wall := time.Since(begin)

	agg := aggregate(report.Results)
	_, testAcc, testCorrect, testTotal := trainer.Evaluate(ds, testIdx, report.Representative, resolved.Loss)

	best, err := SelectBest(report.Results)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		ID:                 uuid.NewString(),
		Mode:               ModeSimulation,
		Dataset:            strings.ToUpper(cfg.Dataset),
		Device:             strings.ToUpper(cfg.Device),
		Folds:              report.Results,
		BestFold:           best,
		BestValAccuracy:    report.Results[best].ValAccuracy,
		MeanValAccuracy:    agg.meanValAccuracy,
		PooledCorrect:      agg.pooledCorrect,
		PooledTotal:        agg.pooledTotal,
		PooledAccuracy:     agg.pooledAccuracy,
		TestCorrect:        testCorrect,
		TestTotal:          testTotal,
		TestAccuracy:       testAcc,
		CumulativeTime:     agg.cumulative,
		AverageTimePerNode: agg.averagePerNode,
		WallClock:          wall,
		Rounds:             report.Rounds,
		CreatedAt:          time.Now(),
	}

	return svc.save(ctx, summary)
}

func (svc *service) RunSingle(ctx context.Context, cfg parfold.Config) (Summary, error) {
	ds, tcfg, err := svc.prepare(cfg)
	if err != nil {
		return Summary{}, err
	}
	resolved, err := tcfg.Resolve()
	if err != nil {
		return Summary{}, err
	}

	svc.logger.Info("fewer than 2 folds requested, training on the entire training split")

	trainIdx, testIdx := ds.Split(cfg.TestFraction, cfg.Seed)

	begin := time.Now()
	res, err := trainer.Run(ctx, ds, trainer.Unit{ID: 0, Name: "single", Train: trainIdx}, tcfg, nil)
	if err != nil {
		return Summary{}, err
	}
	wall := time.Since(begin)

	_, testAcc, testCorrect, testTotal := trainer.Evaluate(ds, testIdx, res.Model, resolved.Loss)

	summary := Summary{
		ID:                 uuid.NewString(),
		Mode:               ModeSingle,
		Dataset:            strings.ToUpper(cfg.Dataset),
		Device:             strings.ToUpper(cfg.Device),
		Folds:              []trainer.FoldResult{res},
		TestCorrect:        testCorrect,
		TestTotal:          testTotal,
		TestAccuracy:       testAcc,
		CumulativeTime:     res.SlowestEpoch,
		AverageTimePerNode: res.SlowestEpoch,
		WallClock:          wall,
		CreatedAt:          time.Now(),
	}

	return svc.save(ctx, summary)
}

func (svc *service) GetRun(ctx context.Context, id string) (Summary, error) {
	data, err := svc.runsDB.Get(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	s, ok := data.(Summary)
	if !ok {
		return Summary{}, storage.ErrInvalidData
	}

	return s, nil
}

func (svc *service) ListRuns(ctx context.Context, offset, limit uint64) (SummaryPage, error) {
	data, total, err := svc.runsDB.List(ctx, offset, limit)
	if err != nil {
		return SummaryPage{}, err
	}

	runs := make([]Summary, len(data))
	for i := range data {
		s, ok := data[i].(Summary)
		if !ok {
			return SummaryPage{}, storage.ErrInvalidData
		}
		runs[i] = s
	}

	return SummaryPage{
		Offset: offset,
		Limit:  limit,
		Total:  total,
		Runs:   runs,
	}, nil
}

// prepare validates the configuration and materializes the dataset, so
// that configuration errors surface before any training work starts.
func (svc *service) prepare(cfg parfold.Config) (*dataset.Dataset, trainer.Config, error) {
	if err := cfg.Validate(); err != nil {
		return nil, trainer.Config{}, err
	}

	if strings.ToUpper(cfg.Device) == parfold.DeviceGPU {
		svc.logger.Warn("accelerator requested but not available, using CPU")
	}

	ds, err := svc.loadDataset(cfg)
	if err != nil {
		return nil, trainer.Config{}, err
	}
	if err := ds.Validate(); err != nil {
		return nil, trainer.Config{}, err
	}

	return ds, cfg.TrainerConfig(), nil
}

func (svc *service) loadDataset(cfg parfold.Config) (*dataset.Dataset, error) {
	switch strings.ToUpper(cfg.Dataset) {
	case parfold.DatasetMNIST:
		return dataset.LoadIDX(
			filepath.Join(cfg.DataDir, "train-images-idx3-ubyte"),
			filepath.Join(cfg.DataDir, "train-labels-idx1-ubyte"),
			mnistClasses,
		)
	case parfold.DatasetSynth:
		return dataset.Synthetic(cfg.Synth.Examples, cfg.Synth.Classes, cfg.Synth.Features, cfg.Seed), nil
	default:
		return nil, fmt.Errorf("%w: %q", parfold.ErrUnknownDataset, cfg.Dataset)
	}
}

func (svc *service) save(ctx context.Context, summary Summary) (Summary, error) {
	if err := svc.runsDB.Create(ctx, summary.ID, summary); err != nil {
		return Summary{}, fmt.Errorf("storing run %s: %w", summary.ID, err)
	}

	return summary, nil
}
