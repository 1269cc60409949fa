package batch

import (
	"fmt"
	"time"

	"github.com/andrescamacho/floodfill-go/internal/domain/raster"
	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
)

// Run is one invocation of the batch orchestrator over an ordered job list.
// A run SUCCEEDS once every job has an outcome, even if all jobs failed;
// it is CANCELED when its context ends first.
type Run struct {
	id       string
	params   raster.Params
	workers  int
	jobCount int

	lifecycle *shared.LifecycleStateMachine

	tally Tally
}

func NewRun(id string, params raster.Params, workers, jobCount int, clock shared.Clock) *Run {
	return &Run{
		id:        id,
		params:    params,
		workers:   workers,
		jobCount:  jobCount,
		lifecycle: shared.NewLifecycleStateMachine(clock),
	}
}

// RestoreRun rebuilds a run from persisted state
func RestoreRun(
	id string,
	params raster.Params,
	workers, jobCount int,
	tally Tally,
	status shared.LifecycleStatus,
	createdAt, updatedAt time.Time,
	startedAt, stoppedAt *time.Time,
	lastError error,
) *Run {
	run := NewRun(id, params, workers, jobCount, nil)
	run.lifecycle.RecoverFromPersistence(status, createdAt, updatedAt, startedAt, stoppedAt, lastError)
	run.tally = tally
	return run
}

func (r *Run) ID() string                     { return r.id }
func (r *Run) Params() raster.Params          { return r.params }
func (r *Run) Workers() int                   { return r.workers }
func (r *Run) JobCount() int                  { return r.jobCount }
func (r *Run) Tally() Tally                   { return r.tally }
func (r *Run) Status() shared.LifecycleStatus { return r.lifecycle.Status() }

// Lifecycle exposes timestamps for persistence
func (r *Run) Lifecycle() *shared.LifecycleStateMachine { return r.lifecycle }

func (r *Run) Start() error {
	return r.lifecycle.Start()
}

// Finish closes the run. cause is the context error, if the run was interrupted.
func (r *Run) Finish(outcomes []Outcome, cause error) error {
	r.tally = TallyOutcomes(outcomes)
	if cause != nil {
		return r.lifecycle.Cancel(cause)
	}
	return r.lifecycle.Succeed()
}

func (r *Run) String() string {
	return fmt.Sprintf("Run[%s, jobs=%d, workers=%d, status=%s]", r.id, r.jobCount, r.workers, r.lifecycle.Status())
}
