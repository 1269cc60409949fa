package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/floodfill-go/internal/domain/batch"
	"github.com/andrescamacho/floodfill-go/internal/domain/raster"
	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
)

// GormRunRepository implements batch.RunRepository using GORM
type GormRunRepository struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewGormRunRepository creates a new run repository
// If clock is nil, uses RealClock (production behavior)
func NewGormRunRepository(db *gorm.DB, clock shared.Clock) *GormRunRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormRunRepository{db: db, clock: clock}
}

// RecordRunStarted inserts the run row
func (r *GormRunRepository) RecordRunStarted(ctx context.Context, run *batch.Run) error {
	model := runToModel(run)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID(), err)
	}
	return nil
}

// RecordJobOutcome inserts the finished job and its event summaries in one transaction
func (r *GormRunRepository) RecordJobOutcome(
	ctx context.Context,
	runID string,
	outcome batch.Outcome,
	events []raster.EventSummary,
) error {
	stoppedAt := r.clock.Now()
	startedAt := stoppedAt.Add(-outcome.Duration)

	job := &JobModel{
		ID:           outcome.JobID,
		RunID:        runID,
		JobIndex:     outcome.Index,
		Input:        outcome.Input,
		Output:       outcome.Output,
		DatesOutput:  outcome.DatesOutput,
		Status:       string(outcome.Status),
		Events:       outcome.Events,
		BurnedPixels: outcome.BurnedPixels,
		ErrorKind:    outcome.ErrorKind,
		CreatedAt:    startedAt,
		StoppedAt:    &stoppedAt,
	}
	if outcome.Duration > 0 || outcome.Status != shared.LifecycleStatusCanceled {
		job.StartedAt = &startedAt
	}
	if outcome.Err != nil {
		job.ErrorMessage = outcome.Err.Error()
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(job).Error; err != nil {
			return fmt.Errorf("failed to insert job %s: %w", outcome.JobID, err)
		}
		if len(events) == 0 {
			return nil
		}

		models := make([]EventModel, len(events))
		for i, e := range events {
			models[i] = eventToModel(runID, outcome.Index, e)
		}
		if err := tx.CreateInBatches(models, 500).Error; err != nil {
			return fmt.Errorf("failed to insert events for job %s: %w", outcome.JobID, err)
		}
		return nil
	})
}

// RecordRunFinished stores the final status and tallies
func (r *GormRunRepository) RecordRunFinished(ctx context.Context, run *batch.Run) error {
	tally := run.Tally()
	lc := run.Lifecycle()

	updates := map[string]interface{}{
		"status":     string(run.Status()),
		"succeeded":  tally.Succeeded,
		"failed":     tally.Failed,
		"canceled":   tally.Canceled,
		"events":     tally.Events,
		"updated_at": lc.UpdatedAt(),
		"stopped_at": lc.StoppedAt(),
	}
	if lc.LastError() != nil {
		updates["last_error"] = lc.LastError().Error()
	}

	result := r.db.WithContext(ctx).
		Model(&RunModel{}).
		Where("id = ?", run.ID()).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update run %s: %w", run.ID(), result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("run %s not found", run.ID())
	}
	return nil
}

// FindRun returns nil, nil when the run does not exist
func (r *GormRunRepository) FindRun(ctx context.Context, runID string) (*batch.Run, error) {
	var model RunModel
	err := r.db.WithContext(ctx).Where("id = ?", runID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find run %s: %w", runID, err)
	}
	return modelToRun(&model), nil
}

// ListRuns returns the most recent runs first
func (r *GormRunRepository) ListRuns(ctx context.Context, limit int) ([]*batch.Run, error) {
	var models []RunModel
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]*batch.Run, len(models))
	for i := range models {
		runs[i] = modelToRun(&models[i])
	}
	return runs, nil
}

// FindJobs returns the run's jobs ordered by position
func (r *GormRunRepository) FindJobs(ctx context.Context, runID string) ([]*batch.Job, error) {
	var models []JobModel
	if err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("job_index ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find jobs for run %s: %w", runID, err)
	}

	jobs := make([]*batch.Job, len(models))
	for i := range models {
		jobs[i] = modelToJob(&models[i])
	}
	return jobs, nil
}

// FindEvents returns the event summaries of one job ordered by label
func (r *GormRunRepository) FindEvents(ctx context.Context, runID string, jobIndex int) ([]raster.EventSummary, error) {
	var models []EventModel
	if err := r.db.WithContext(ctx).
		Where("run_id = ? AND job_index = ?", runID, jobIndex).
		Order("label ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find events for run %s job %d: %w", runID, jobIndex, err)
	}

	events := make([]raster.EventSummary, len(models))
	for i, m := range models {
		events[i] = modelToEvent(m)
	}
	return events, nil
}

// Mapping helpers

func runToModel(run *batch.Run) *RunModel {
	p := run.Params()
	lc := run.Lifecycle()
	return &RunModel{
		ID:           run.ID(),
		Status:       string(run.Status()),
		Adjacency:    int(p.Adjacency),
		CutOff:       p.Window,
		Temporal:     p.Temporal,
		TemporalMode: string(p.Mode),
		Strategy:     string(p.Strategy),
		Workers:      run.Workers(),
		JobCount:     run.JobCount(),
		CreatedAt:    lc.CreatedAt(),
		UpdatedAt:    lc.UpdatedAt(),
		StartedAt:    lc.StartedAt(),
		StoppedAt:    lc.StoppedAt(),
	}
}

func modelToRun(m *RunModel) *batch.Run {
	params := raster.Params{
		Adjacency: raster.Adjacency(m.Adjacency),
		Window:    m.CutOff,
		Temporal:  m.Temporal,
		Mode:      raster.TemporalMode(m.TemporalMode),
		Strategy:  raster.Strategy(m.Strategy),
	}
	tally := batch.Tally{Succeeded: m.Succeeded, Failed: m.Failed, Canceled: m.Canceled, Events: m.Events}

	var lastErr error
	if m.LastError != "" {
		lastErr = errors.New(m.LastError)
	}

	return batch.RestoreRun(
		m.ID, params, m.Workers, m.JobCount, tally,
		shared.LifecycleStatus(m.Status),
		m.CreatedAt, m.UpdatedAt, m.StartedAt, m.StoppedAt,
		lastErr,
	)
}

func modelToJob(m *JobModel) *batch.Job {
	spec := batch.JobSpec{Input: m.Input, Output: m.Output, DatesOutput: m.DatesOutput}
	updatedAt := m.CreatedAt
	if m.StoppedAt != nil {
		updatedAt = *m.StoppedAt
	}
	return batch.RestoreJob(
		m.ID, m.RunID, m.JobIndex, spec,
		shared.LifecycleStatus(m.Status),
		m.Events, m.BurnedPixels,
		m.CreatedAt, updatedAt, m.StartedAt, m.StoppedAt,
		restoreError(m.ErrorKind, spec, m.ErrorMessage),
	)
}

// restoreError rebuilds a typed error so ErrorKind survives a round trip
func restoreError(kind string, spec batch.JobSpec, message string) error {
	if message == "" && kind == "" {
		return nil
	}
	switch kind {
	case shared.KindReadError:
		return &shared.ReadError{DomainError: shared.NewDomainError(message), Identifier: spec.Input}
	case shared.KindWriteError:
		return &shared.WriteError{DomainError: shared.NewDomainError(message), Identifier: spec.Output}
	case shared.KindCanceled:
		return &restoredError{message: message, sentinel: context.Canceled}
	default:
		return errors.New(message)
	}
}

type restoredError struct {
	message  string
	sentinel error
}

func (e *restoredError) Error() string { return e.message }
func (e *restoredError) Unwrap() error { return e.sentinel }

func eventToModel(runID string, jobIndex int, e raster.EventSummary) EventModel {
	m := EventModel{
		RunID:    runID,
		JobIndex: jobIndex,
		Label:    int64(e.Label),
		Pixels:   e.Pixels,
		MinRow:   e.MinRow,
		MinCol:   e.MinCol,
		MaxRow:   e.MaxRow,
		MaxCol:   e.MaxCol,
	}
	if e.HasDates {
		first, last := e.FirstDate, e.LastDate
		m.FirstDate = &first
		m.LastDate = &last
	}
	return m
}

func modelToEvent(m EventModel) raster.EventSummary {
	e := raster.EventSummary{
		Label:  uint32(m.Label),
		Pixels: m.Pixels,
		MinRow: m.MinRow,
		MinCol: m.MinCol,
		MaxRow: m.MaxRow,
		MaxCol: m.MaxCol,
	}
	if m.FirstDate != nil && m.LastDate != nil {
		e.FirstDate, e.LastDate, e.HasDates = *m.FirstDate, *m.LastDate, true
	}
	return e
}

var _ batch.RunRepository = (*GormRunRepository)(nil)

