package batch

import (
	"fmt"
	"time"

	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
)

// JobSpec is one (input grid, output destination) pair submitted to a batch.
// DatesOutput is optional and only written when burn dates are requested.
type JobSpec struct {
	Input       string
	Output      string
	DatesOutput string
}

// Job is one unit of batch work. It is owned by a single worker while running.
//
// Lifecycle: PENDING when enqueued, RUNNING once a worker picks it up, then
// SUCCEEDED (labels written), FAILED (error recorded) or CANCELED (abandoned
// before its labels were written).
type Job struct {
	id    string
	runID string
	index int
	spec  JobSpec

	lifecycle *shared.LifecycleStateMachine

	events       int
	burnedPixels int
}

// NewJob creates a pending job at position index of its batch
func NewJob(id, runID string, index int, spec JobSpec, clock shared.Clock) *Job {
	return &Job{
		id:        id,
		runID:     runID,
		index:     index,
		spec:      spec,
		lifecycle: shared.NewLifecycleStateMachine(clock),
	}
}

// RestoreJob rebuilds a job from persisted state
func RestoreJob(
	id, runID string,
	index int,
	spec JobSpec,
	status shared.LifecycleStatus,
	events, burnedPixels int,
	createdAt, updatedAt time.Time,
	startedAt, stoppedAt *time.Time,
	lastError error,
) *Job {
	job := NewJob(id, runID, index, spec, nil)
	job.lifecycle.RecoverFromPersistence(status, createdAt, updatedAt, startedAt, stoppedAt, lastError)
	job.events = events
	job.burnedPixels = burnedPixels
	return job
}

// Getters

func (j *Job) ID() string                     { return j.id }
func (j *Job) RunID() string                  { return j.runID }
func (j *Job) Index() int                     { return j.index }
func (j *Job) Spec() JobSpec                  { return j.spec }
func (j *Job) Input() string                  { return j.spec.Input }
func (j *Job) Output() string                 { return j.spec.Output }
func (j *Job) DatesOutput() string            { return j.spec.DatesOutput }
func (j *Job) Status() shared.LifecycleStatus { return j.lifecycle.Status() }
func (j *Job) Events() int                    { return j.events }
func (j *Job) BurnedPixels() int              { return j.burnedPixels }
func (j *Job) LastError() error               { return j.lifecycle.LastError() }

// Lifecycle exposes timestamps for persistence
func (j *Job) Lifecycle() *shared.LifecycleStateMachine { return j.lifecycle }

// State transitions

func (j *Job) Start() error {
	return j.lifecycle.Start()
}

// Succeed records the labeling result once the label grid has been written
func (j *Job) Succeed(events, burnedPixels int) error {
	if err := j.lifecycle.Succeed(); err != nil {
		return err
	}
	j.events = events
	j.burnedPixels = burnedPixels
	return nil
}

func (j *Job) Fail(err error) error {
	return j.lifecycle.Fail(err)
}

func (j *Job) Cancel(cause error) error {
	return j.lifecycle.Cancel(cause)
}

// Outcome snapshots the job's current result
func (j *Job) Outcome() Outcome {
	err := j.lifecycle.LastError()
	return Outcome{
		JobID:        j.id,
		Index:        j.index,
		Input:        j.spec.Input,
		Output:       j.spec.Output,
		DatesOutput:  j.spec.DatesOutput,
		Status:       j.lifecycle.Status(),
		Events:       j.events,
		BurnedPixels: j.burnedPixels,
		ErrorKind:    shared.ErrorKind(err),
		Err:          err,
		Duration:     j.lifecycle.RuntimeDuration(),
	}
}

func (j *Job) String() string {
	return fmt.Sprintf("Job[%s, #%d, %s, status=%s]", j.id, j.index, j.spec.Input, j.lifecycle.Status())
}
