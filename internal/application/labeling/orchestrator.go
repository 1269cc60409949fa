package labeling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/andrescamacho/floodfill-go/internal/adapters/metrics"
	"github.com/andrescamacho/floodfill-go/internal/application/logging"
	"github.com/andrescamacho/floodfill-go/internal/domain/batch"
	"github.com/andrescamacho/floodfill-go/internal/domain/raster"
	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
	"github.com/andrescamacho/floodfill-go/pkg/utils"
)

// Orchestrator fans a batch of labeling jobs out over a bounded worker pool.
//
// Each job reads its grid, labels it and writes the result. A failing job
// is recorded in its own outcome and never affects the others. Outcomes are
// returned in submission order whatever the completion order.
type Orchestrator struct {
	source   batch.GridSource
	sink     batch.GridSink
	recorder batch.RunRecorder
	clock    shared.Clock
}

// NewOrchestrator creates an orchestrator. recorder may be nil.
// If clock is nil, uses RealClock (production behavior)
func NewOrchestrator(source batch.GridSource, sink batch.GridSink, recorder batch.RunRecorder, clock shared.Clock) *Orchestrator {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Orchestrator{source: source, sink: sink, recorder: recorder, clock: clock}
}

// RunBatch processes every job and returns one outcome per job, indexed like specs.
//
// Invalid options fail with a ConfigError before any job starts. When ctx
// ends, jobs not yet started are CANCELED and ctx's error is returned along
// with the outcomes.
func (o *Orchestrator) RunBatch(ctx context.Context, specs []batch.JobSpec, opts Options) ([]batch.Outcome, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.RunID == "" {
		opts.RunID = utils.GenerateRunID()
	}

	workers := EffectiveWorkers(opts.MaxWorkers, len(specs))
	logger := logging.WithFields(logging.LoggerFromContext(ctx), map[string]interface{}{
		"run_id": opts.RunID,
	})

	run := batch.NewRun(opts.RunID, opts.Params, workers, len(specs), o.clock)
	if err := run.Start(); err != nil {
		return nil, err
	}
	o.record(logger, "run start", func(rctx context.Context) error {
		return o.recorder.RecordRunStarted(rctx, run)
	})

	logger.Log(logging.LevelInfo, "Batch started", map[string]interface{}{
		"jobs":              len(specs),
		"requested_workers": opts.MaxWorkers,
		"workers":           workers,
		"params":            opts.Params.String(),
	})
	metrics.SetActiveWorkers(workers)

	jobs := make([]*batch.Job, len(specs))
	for i, spec := range specs {
		jobs[i] = batch.NewJob(utils.GenerateJobID(spec.Input), opts.RunID, i, spec, o.clock)
	}

	var limiter *rate.Limiter
	if opts.DispatchRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.DispatchRate), opts.burst())
	}

	outcomes := make([]batch.Outcome, len(jobs))
	var g errgroup.Group
	g.SetLimit(workers)

	for i, job := range jobs {
		if limiter != nil {
			if err := awaitDispatch(ctx, limiter); err != nil {
				outcomes[i] = o.abandon(ctx, logger, job, err)
				continue
			}
		}
		g.Go(func() error {
			outcomes[i] = o.runJob(ctx, logger, job, opts)
			return nil
		})
	}
	_ = g.Wait()

	cause := ctx.Err()
	if err := run.Finish(outcomes, cause); err != nil {
		return outcomes, err
	}
	o.record(logger, "run finish", func(rctx context.Context) error {
		return o.recorder.RecordRunFinished(rctx, run)
	})
	metrics.RecordRunFinished(run)

	tally := run.Tally()
	logger.Log(logging.LevelInfo, "Batch finished", map[string]interface{}{
		"status":    string(run.Status()),
		"succeeded": tally.Succeeded,
		"failed":    tally.Failed,
		"canceled":  tally.Canceled,
		"events":    tally.Events,
		"duration":  run.Lifecycle().RuntimeDuration().String(),
	})

	if cause != nil {
		return outcomes, fmt.Errorf("batch %s interrupted: %w", opts.RunID, cause)
	}
	return outcomes, nil
}

// runJob takes one job from PENDING to a terminal state
func (o *Orchestrator) runJob(ctx context.Context, runLogger logging.JobLogger, job *batch.Job, opts Options) batch.Outcome {
	logger := logging.WithFields(runLogger, map[string]interface{}{
		"job_id":    job.ID(),
		"job_index": job.Index(),
		"input":     job.Input(),
	})

	if err := ctx.Err(); err != nil {
		return o.abandon(ctx, runLogger, job, err)
	}
	if err := job.Start(); err != nil {
		return o.finish(ctx, logger, job, nil, nil)
	}

	grid, err := o.source.Read(ctx, job.Input())
	if err != nil {
		if cause := ctx.Err(); cause != nil {
			_ = job.Cancel(cause)
		} else {
			_ = job.Fail(asReadError(job.Input(), err))
		}
		return o.finish(ctx, logger, job, nil, nil)
	}

	labels := raster.Label(grid, opts.Params)

	// a job in flight either completes or is abandoned, never half-written
	if err := ctx.Err(); err != nil {
		_ = job.Cancel(err)
		return o.finish(ctx, logger, job, nil, nil)
	}

	if err := o.sink.WriteLabels(ctx, job.Output(), labels); err != nil {
		_ = job.Fail(asWriteError(job.Output(), err))
		return o.finish(ctx, logger, job, nil, nil)
	}
	if opts.SaveBurnDates && job.DatesOutput() != "" {
		if err := o.sink.WriteDates(ctx, job.DatesOutput(), raster.BurnDates(grid, labels)); err != nil {
			_ = job.Fail(asWriteError(job.DatesOutput(), err))
			o.discardLabels(ctx, logger, job)
			return o.finish(ctx, logger, job, nil, nil)
		}
	}

	_ = job.Succeed(labels.Events(), grid.BurnedCount())
	return o.finish(ctx, logger, job, grid, labels)
}

// discardLabels removes the label output of a job that failed afterwards,
// when the sink can remove outputs
func (o *Orchestrator) discardLabels(ctx context.Context, logger logging.JobLogger, job *batch.Job) {
	remover, ok := o.sink.(batch.OutputRemover)
	if !ok {
		return
	}
	if err := remover.Remove(context.WithoutCancel(ctx), job.Output()); err != nil {
		logger.Log(logging.LevelWarning, "Failed to remove label output", map[string]interface{}{
			"output": job.Output(),
			"error":  err.Error(),
		})
	}
}

// awaitDispatch blocks until the limiter admits the next job. Unlike
// rate.Limiter.Wait it only gives up once ctx is actually done, so the
// returned error is always ctx's.
func awaitDispatch(ctx context.Context, limiter *rate.Limiter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r := limiter.Reserve()
	delay := r.Delay()
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}

// abandon cancels a job that never reached a worker
func (o *Orchestrator) abandon(ctx context.Context, runLogger logging.JobLogger, job *batch.Job, cause error) batch.Outcome {
	_ = job.Cancel(cause)
	logger := logging.WithFields(runLogger, map[string]interface{}{
		"job_id":    job.ID(),
		"job_index": job.Index(),
		"input":     job.Input(),
	})
	return o.finish(ctx, logger, job, nil, nil)
}

// finish logs, measures and records a terminal job
func (o *Orchestrator) finish(
	ctx context.Context,
	logger logging.JobLogger,
	job *batch.Job,
	grid *raster.Grid,
	labels *raster.LabelGrid,
) batch.Outcome {
	outcome := job.Outcome()

	switch outcome.Status {
	case shared.LifecycleStatusSucceeded:
		logger.Log(logging.LevelInfo, "Job succeeded", map[string]interface{}{
			"output":        outcome.Output,
			"events":        outcome.Events,
			"burned_pixels": outcome.BurnedPixels,
			"duration_ms":   outcome.Duration.Milliseconds(),
		})
	case shared.LifecycleStatusCanceled:
		logger.Log(logging.LevelWarning, "Job canceled", map[string]interface{}{
			"cause": fmt.Sprint(outcome.Err),
		})
	default:
		logger.Log(logging.LevelError, "Job failed", map[string]interface{}{
			"error_kind": outcome.ErrorKind,
			"error":      fmt.Sprint(outcome.Err),
			"cause":      fmt.Sprint(errors.Unwrap(outcome.Err)),
		})
	}

	metrics.RecordJobOutcome(outcome)

	var events []raster.EventSummary
	if grid != nil && labels != nil {
		events = raster.Summarize(grid, labels)
	}
	o.recordWithContext(ctx, logger, "job outcome", func(rctx context.Context) error {
		return o.recorder.RecordJobOutcome(rctx, job.RunID(), outcome, events)
	})

	return outcome
}

// record runs a recorder call detached from cancellation. Failures are
// logged and never change an outcome.
func (o *Orchestrator) record(logger logging.JobLogger, what string, fn func(context.Context) error) {
	o.recordWithContext(context.Background(), logger, what, fn)
}

func (o *Orchestrator) recordWithContext(ctx context.Context, logger logging.JobLogger, what string, fn func(context.Context) error) {
	if o.recorder == nil {
		return
	}
	if err := fn(context.WithoutCancel(ctx)); err != nil {
		logger.Log(logging.LevelWarning, "Failed to record "+what, map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func asReadError(identifier string, err error) error {
	var readErr *shared.ReadError
	if errors.As(err, &readErr) {
		return err
	}
	return shared.NewReadError(identifier, err)
}

func asWriteError(identifier string, err error) error {
	var writeErr *shared.WriteError
	if errors.As(err, &writeErr) {
		return err
	}
	return shared.NewWriteError(identifier, err)
}
