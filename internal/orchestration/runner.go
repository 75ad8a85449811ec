package orchestration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/agbru/canonsim/internal/errors"
	"github.com/agbru/canonsim/internal/logging"
	"github.com/agbru/canonsim/internal/progress"
	"github.com/agbru/canonsim/internal/simulation"
)

// ProgressBufferMultiplier sizes the progress channel per shard. A larger
// buffer keeps shards from dropping updates when the display is slow.
const ProgressBufferMultiplier = 5

const tracerName = "github.com/agbru/canonsim/internal/orchestration"

// Request describes one parallel simulation.
type Request struct {
	simulation.Params
	// Workers is the number of shards; it must be within [1, Particles].
	Workers int
	// Seed drives every shard generator; 0 picks a random seed.
	Seed uint64
	// ShardTimeout bounds each shard individually; 0 means no limit.
	ShardTimeout time.Duration
}

// ShardResult is the outcome of one shard.
type ShardResult struct {
	ShardSpec
	Histogram simulation.Histogram
	Duration  time.Duration
}

// Result is the merged outcome of a run.
type Result struct {
	// Histogram is the sum of all shard histograms.
	Histogram simulation.Histogram
	// Shards are in partition order.
	Shards   []ShardResult
	Seed     uint64
	Duration time.Duration
}

// Runner fans a simulation out over shards and merges their histograms.
// The zero value is not usable; call NewRunner.
type Runner struct {
	logger   logging.Logger
	reporter ProgressReporter
	out      io.Writer
	tracer   trace.Tracer
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger used for run diagnostics.
func WithLogger(l logging.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithProgress routes shard progress to reporter, which writes to out.
func WithProgress(reporter ProgressReporter, out io.Writer) Option {
	return func(r *Runner) {
		if reporter != nil {
			r.reporter = reporter
		}
		if out != nil {
			r.out = out
		}
	}
}

// WithTracer overrides the tracer taken from the global otel provider.
func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) {
		if t != nil {
			r.tracer = t
		}
	}
}

// NewRunner returns a Runner that logs nothing and reports no progress
// unless configured otherwise.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		logger:   logging.NewNopLogger(),
		reporter: NullProgressReporter{},
		out:      io.Discard,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run partitions the request, simulates every shard on its own goroutine
// with its own generator seeded from (Seed, shard index), waits for all of
// them and merges the histograms. A single shard runs on the caller's
// goroutine. The first shard failure cancels the others and is returned
// wrapped in a ShardError.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "orchestration.Runner.Run",
		trace.WithAttributes(
			attribute.Int("canonsim.particles", req.Particles),
			attribute.Int("canonsim.total_energy", req.TotalEnergy),
			attribute.String("canonsim.capacity", req.Capacity.String()),
			attribute.Int("canonsim.workers", req.Workers),
		))
	defer span.End()

	shards, err := Partition(req.Params, req.Workers)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "partition failed")
		return Result{}, err
	}

	seed := req.Seed
	if seed == 0 {
		seed = simulation.RandomSeed()
	}
	span.SetAttributes(attribute.Int64("canonsim.seed", int64(seed)))

	if len(shards) > 1 {
		r.logger.Info("shards equilibrate independently; use one worker for a single-system trajectory",
			logging.Int("workers", len(shards)))
	}
	r.logger.Debug("starting run",
		logging.Int("particles", req.Particles),
		logging.Int("total_energy", req.TotalEnergy),
		logging.String("capacity", req.Capacity.String()),
		logging.Uint64("seed", seed))

	results := make([]ShardResult, len(shards))
	progressChan := make(chan progress.ProgressUpdate, len(shards)*ProgressBufferMultiplier)

	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go r.reporter.DisplayProgress(&displayWg, progressChan, len(shards), r.out)

	if len(shards) == 1 {
		err = r.runShard(ctx, shards[0], seed, req.ShardTimeout, progressChan, &results[0])
	} else {
		g, gctx := errgroup.WithContext(ctx)
		for _, shard := range shards {
			g.Go(func() error {
				return r.runShard(gctx, shard, seed, req.ShardTimeout, progressChan, &results[shard.Index])
			})
		}
		err = g.Wait()
	}

	close(progressChan)
	displayWg.Wait()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "shard failed")
		if apperrors.IsContextError(err) {
			r.logger.Info("run interrupted", logging.String("reason", err.Error()), logging.Duration("elapsed", time.Since(start)))
		} else {
			r.logger.Error("run failed", err, logging.Duration("elapsed", time.Since(start)))
		}
		return Result{Seed: seed}, err
	}

	histograms := make([]simulation.Histogram, len(results))
	for i, res := range results {
		histograms[i] = res.Histogram
	}
	merged := simulation.Merge(histograms...)

	elapsed := time.Since(start)
	span.SetAttributes(attribute.Int("canonsim.levels", len(merged)))
	span.SetStatus(codes.Ok, "run complete")
	r.logger.Debug("run complete",
		logging.Int("levels", len(merged)),
		logging.Duration("elapsed", elapsed))

	return Result{
		Histogram: merged,
		Shards:    results,
		Seed:      seed,
		Duration:  elapsed,
	}, nil
}

func (r *Runner) runShard(ctx context.Context, shard ShardSpec, seed uint64, timeout time.Duration,
	progressChan chan<- progress.ProgressUpdate, slot *ShardResult) error {
	ctx, span := r.tracer.Start(ctx, "orchestration.Runner.shard",
		trace.WithAttributes(
			attribute.Int("canonsim.shard", shard.Index),
			attribute.Int("canonsim.particles", shard.Particles),
			attribute.Int("canonsim.total_energy", shard.TotalEnergy),
		))
	defer span.End()

	shardCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		shardCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	rng := simulation.NewRand(seed, uint64(shard.Index))
	h, err := simulation.Allocate(shardCtx, shard.Params, rng, progress.ChannelCallback(progressChan, shard.Index))
	if err != nil {
		// Only the shard's own deadline is a timeout; a cancelled parent is not.
		if timeout > 0 && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = apperrors.TimeoutError{Operation: fmt.Sprintf("shard %d", shard.Index), Limit: timeout}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "allocation failed")
		return apperrors.ShardError{Index: shard.Index, Cause: err}
	}

	*slot = ShardResult{ShardSpec: shard, Histogram: h, Duration: time.Since(start)}
	span.SetStatus(codes.Ok, "")
	return nil
}

// Simulate runs req with a default Runner.
func Simulate(ctx context.Context, req Request) (Result, error) {
	return NewRunner().Run(ctx, req)
}
