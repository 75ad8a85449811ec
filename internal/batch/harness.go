package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/agbru/canonsim/internal/analysis"
	"github.com/agbru/canonsim/internal/config"
	apperrors "github.com/agbru/canonsim/internal/errors"
	"github.com/agbru/canonsim/internal/logging"
	"github.com/agbru/canonsim/internal/orchestration"
	"github.com/agbru/canonsim/internal/simulation"
)

// Record is the outcome of one trial.
type Record struct {
	RunID       uuid.UUID
	TrialID     uuid.UUID
	Trial       int
	Particles   int
	TotalEnergy int
	Levels      simulation.Capacity
	Seed        uint64
	Fit         analysis.FitResult
	// FitOK is false when fewer than two levels were occupied; Slope and
	// Intercept are NaN in that case.
	FitOK       bool
	Duration    time.Duration
}

// Sink consumes trial records. Begin is called once before the first
// record, Close once after the last.
type Sink interface {
	Begin(run Run) error
	Write(rec Record) error
	Close() error
}

// Run identifies one sweep.
type Run struct {
	ID        uuid.UUID
	StartedAt time.Time
	Config    config.BatchConfig
}

// Simulator runs one parallel simulation. *orchestration.Runner satisfies it.
type Simulator interface {
	Run(ctx context.Context, req orchestration.Request) (orchestration.Result, error)
}

// Harness drives a sweep.
type Harness struct {
	sim    Simulator
	sinks  []Sink
	out    io.Writer
	logger logging.Logger
}

// NewHarness builds a harness writing trial progress lines to out.
func NewHarness(sim Simulator, out io.Writer, logger logging.Logger, sinks ...Sink) *Harness {
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Harness{sim: sim, sinks: sinks, out: out, logger: logger}
}

// Execute runs every trial of cfg in order. Trial seeds derive from
// cfg.Seed so a seeded sweep is reproducible; a zero seed picks one per
// trial. The sweep stops at the first failing trial, and sinks are closed
// whatever happens.
func (h *Harness) Execute(ctx context.Context, cfg config.BatchConfig) (n int, err error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}

	run := Run{ID: uuid.New(), StartedAt: time.Now().UTC(), Config: cfg}
	opened := make([]Sink, 0, len(h.sinks))
	defer func() {
		for _, s := range opened {
			err = errors.Join(err, s.Close())
		}
	}()
	for _, s := range h.sinks {
		if err := s.Begin(run); err != nil {
			return 0, apperrors.WrapError(err, "opening sink")
		}
		opened = append(opened, s)
	}

	h.logger.Info("batch started",
		logging.String("run", run.ID.String()),
		logging.Int("energies", len(cfg.TotalEnergies)),
		logging.Int("trials", cfg.Trials))

	for ei, energy := range cfg.TotalEnergies {
		fmt.Fprintf(h.out, "Total Energy = %d\n", energy)
		for trial := range cfg.Trials {
			fmt.Fprintf(h.out, "\tRepeat %d\n", trial)
			rec, err := h.trial(ctx, cfg, energy, trialSeed(cfg.Seed, ei, trial, cfg.Trials))
			if err != nil {
				return n, fmt.Errorf("total energy %d, trial %d: %w", energy, trial, err)
			}
			rec.RunID = run.ID
			rec.Trial = trial
			for _, s := range h.sinks {
				if err := s.Write(rec); err != nil {
					return n, apperrors.WrapError(err, "writing trial")
				}
			}
			n++
		}
	}
	h.logger.Info("batch finished", logging.String("run", run.ID.String()), logging.Int("trials", n))
	return n, nil
}

func (h *Harness) trial(ctx context.Context, cfg config.BatchConfig, energy int, seed uint64) (Record, error) {
	res, err := h.sim.Run(ctx, orchestration.Request{
		Params: simulation.Params{
			Particles:   cfg.Particles,
			TotalEnergy: energy,
			Capacity:    cfg.Capacity(),
		},
		Workers: cfg.Workers,
		Seed:    seed,
	})
	if err != nil {
		return Record{}, err
	}
	fit, fitErr := analysis.Analyze(res.Histogram)
	if fitErr != nil && !apperrors.IsFitUnderdetermined(fitErr) {
		return Record{}, fitErr
	}
	return Record{
		TrialID:     uuid.New(),
		Particles:   cfg.Particles,
		TotalEnergy: energy,
		Levels:      cfg.Capacity(),
		Seed:        res.Seed,
		Fit:         fit,
		FitOK:       fitErr == nil,
		Duration:    res.Duration,
	}, nil
}

// trialSeed spreads a base seed over the sweep grid. Zero stays zero so the
// runner picks a random seed.
func trialSeed(base uint64, energyIndex, trial, trials int) uint64 {
	if base == 0 {
		return 0
	}
	return base + uint64(energyIndex*trials+trial)
}
