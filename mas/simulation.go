// Package mas runs the simulated multi-agent training mode: N agents,
// each owning a training shard, locally stepped in a deterministic
// sequence and parameter-averaged after every round.
package mas

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/0x6flab/namegenerator"

	"github.com/rodneyosodo/parfold/dataset"
	"github.com/rodneyosodo/parfold/fedavg"
	"github.com/rodneyosodo/parfold/nn"
	"github.com/rodneyosodo/parfold/trainer"
)

var ErrNoAgents = errors.New("simulation requires at least one agent")

// Agent is one logical node holding its own model and optimizer state.
type Agent struct {
	ID   int
	Name string

	sess   *trainer.Session
	failed bool

	valLoss    float64
	valAcc     float64
	valCorrect int
	valTotal   int
}

// Report is the outcome of a full simulation: one immutable result per
// surviving agent plus the representative synchronized model used for
// held-out evaluation.
type Report struct {
	Results        []trainer.FoldResult
	Rounds         int
	Failed         []int
	Representative *nn.Network
}

type Simulation struct {
	ds     *dataset.Dataset
	cfg    trainer.Config
	agents []*Agent
	logger *slog.Logger
}

// New shards the training indices across processors and creates one
// agent per shard. With a single processor the whole training set is
// used unsharded. The validation indices are themselves sub-divided so
// that agent i validates on part i.
func New(ds *dataset.Dataset, trainIdx, valIdx []int, cfg trainer.Config, processors int, logger *slog.Logger) (*Simulation, error) {
	if processors < 1 {
		return nil, fmt.Errorf("%w: processors = %d", ErrNoAgents, processors)
	}

	trainShards := dataset.Shards(trainIdx, processors)
	valShards := dataset.Shards(valIdx, processors)

	namegen := namegenerator.NewGenerator()

	agents := make([]*Agent, processors)
	for i := range agents {
		unit := trainer.Unit{
			ID:    i,
			Name:  namegen.Generate(),
			Train: trainShards[i],
			Val:   valShards[i],
		}
		sess, err := trainer.NewSession(ds, unit, cfg)
		if err != nil {
			return nil, fmt.Errorf("creating agent %d: %w", i, err)
		}
		agents[i] = &Agent{ID: i, Name: unit.Name, sess: sess}

		logger.Info("agent created",
			slog.Int("agent", i),
			slog.String("name", unit.Name),
			slog.Int("train_examples", len(unit.Train)),
			slog.Int("val_examples", len(unit.Val)))
	}

	return &Simulation{ds: ds, cfg: cfg, agents: agents, logger: logger}, nil
}

// Run drives the round loop. Each round every live agent completes its
// local step before any cross-agent synchronization happens, then the
// averaged parameters are broadcast back so all agents are
// parameter-identical. A failed agent contributes no state and only
// degrades the averaging divisor; the round carries on.
func (s *Simulation) Run(ctx context.Context) (Report, error) {
	rounds := 0

	for round := 0; round < s.cfg.Epochs; round++ {
		if s.allSettled() {
			break
		}

		states := make([]nn.State, len(s.agents))
		for i, a := range s.agents {
			if a.failed {
				continue
			}
			if a.sess.Stopped() {
				// Stopped agents still hold a usable model, so they
				// participate in the average and receive the broadcast.
				states[i] = a.sess.Model().State()

				continue
			}

			if err := a.sess.TrainEpoch(ctx); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return Report{}, err
				}
				a.failed = true
				s.logger.Warn("agent failed, excluded from synchronization",
					slog.Int("agent", a.ID),
					slog.String("name", a.Name),
					slog.Any("error", err))

				continue
			}
			states[i] = a.sess.Model().State()
		}

		avg, err := fedavg.Average(states)
		if err != nil {
			return Report{}, fmt.Errorf("round %d: %w", round, err)
		}
		if err := fedavg.Broadcast(avg, s.liveModels()); err != nil {
			return Report{}, fmt.Errorf("round %d: %w", round, err)
		}
		rounds++

		for _, a := range s.agents {
			if a.failed || a.sess.Stopped() || a.sess.ValSize() == 0 {
				continue
			}

			a.valLoss, a.valAcc, a.valCorrect, a.valTotal = a.sess.Validate()
			stopped := a.sess.Observe(a.valLoss)

			s.logger.Info("round complete for agent",
				slog.Int("round", round+1),
				slog.Int("agent", a.ID),
				slog.Float64("val_loss", a.valLoss),
				slog.Float64("val_accuracy", a.valAcc),
				slog.Bool("stopped", stopped))
		}
	}

	// Final synchronization at reporting time, seeded from the
	// representative agent, so every model reflects the same state
	// before evaluation.
	var rep *Agent
	for _, a := range s.agents {
		if !a.failed {
			rep = a

			break
		}
	}
	if rep == nil {
		return Report{}, ErrNoAgents
	}
	if err := fedavg.Broadcast(rep.sess.Model().State(), s.liveModels()); err != nil {
		return Report{}, err
	}

	report := Report{Rounds: rounds, Representative: rep.sess.Model()}
	for _, a := range s.agents {
		if a.failed {
			report.Failed = append(report.Failed, a.ID)

			continue
		}
		report.Results = append(report.Results, a.sess.Result(a.valLoss, a.valAcc, a.valCorrect, a.valTotal))
	}

	return report, nil
}

func (s *Simulation) allSettled() bool {
	for _, a := range s.agents {
		if !a.failed && !a.sess.Stopped() {
			return false
		}
	}

	return true
}

func (s *Simulation) liveModels() []*nn.Network {
	models := make([]*nn.Network, 0, len(s.agents))
	for _, a := range s.agents {
		if !a.failed {
			models = append(models, a.sess.Model())
		}
	}

	return models
}
