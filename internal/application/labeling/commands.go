package labeling

import (
	"context"
	"fmt"

	"github.com/andrescamacho/floodfill-go/internal/application/logging"
	"github.com/andrescamacho/floodfill-go/internal/application/mediator"
	"github.com/andrescamacho/floodfill-go/internal/domain/batch"
	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
	"github.com/andrescamacho/floodfill-go/pkg/utils"
)

// RunBatchCommand labels every job of a batch
type RunBatchCommand struct {
	Jobs    []batch.JobSpec
	Options Options
}

// RunBatchResponse reports one outcome per submitted job, in submission order
type RunBatchResponse struct {
	RunID    string
	Status   shared.LifecycleStatus
	Workers  int
	Outcomes []batch.Outcome
	Tally    batch.Tally
}

// RunLoggerFactory builds an extra logger for a run, e.g. one that persists entries
type RunLoggerFactory func(runID string) logging.JobLogger

// RunBatchHandler handles the run batch command
type RunBatchHandler struct {
	orchestrator *Orchestrator
	runLoggers   RunLoggerFactory
}

// NewRunBatchHandler creates a new run batch handler. runLoggers may be nil.
func NewRunBatchHandler(orchestrator *Orchestrator, runLoggers RunLoggerFactory) *RunBatchHandler {
	return &RunBatchHandler{orchestrator: orchestrator, runLoggers: runLoggers}
}

// Handle executes the run batch command
func (h *RunBatchHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*RunBatchCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	opts := cmd.Options
	if opts.RunID == "" {
		opts.RunID = utils.GenerateRunID()
	}
	if h.runLoggers != nil {
		ctx = logging.WithLogger(ctx, logging.Multi(logging.LoggerFromContext(ctx), h.runLoggers(opts.RunID)))
	}

	outcomes, err := h.orchestrator.RunBatch(ctx, cmd.Jobs, opts)
	if outcomes == nil && err != nil {
		return nil, err
	}

	status := shared.LifecycleStatusSucceeded
	if err != nil {
		status = shared.LifecycleStatusCanceled
	}

	return &RunBatchResponse{
		RunID:    opts.RunID,
		Status:   status,
		Workers:  EffectiveWorkers(opts.MaxWorkers, len(cmd.Jobs)),
		Outcomes: outcomes,
		Tally:    batch.TallyOutcomes(outcomes),
	}, err
}
