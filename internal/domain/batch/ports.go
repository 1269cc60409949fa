package batch

import (
	"context"

	"github.com/andrescamacho/floodfill-go/internal/domain/raster"
)

// GridSource supplies input grids. Implementations must be safe for
// concurrent use by batch workers.
type GridSource interface {
	// Read returns the grid named by identifier or a ReadError
	Read(ctx context.Context, identifier string) (*raster.Grid, error)
}

// GridSink accepts labeling results. Implementations must preserve label 0
// and be safe for concurrent use by batch workers.
type GridSink interface {
	WriteLabels(ctx context.Context, identifier string, labels *raster.LabelGrid) error
	WriteDates(ctx context.Context, identifier string, dates *raster.DateGrid) error
}

// OutputRemover is implemented by sinks that can delete a written output.
// It lets a job that fails after its labels were written leave nothing behind.
type OutputRemover interface {
	Remove(ctx context.Context, identifier string) error
}

// RunRecorder persists run progress. Recording failures never fail a job.
type RunRecorder interface {
	RecordRunStarted(ctx context.Context, run *Run) error
	RecordJobOutcome(ctx context.Context, runID string, outcome Outcome, events []raster.EventSummary) error
	RecordRunFinished(ctx context.Context, run *Run) error
}

// RunRepository adds queries over recorded runs
type RunRepository interface {
	RunRecorder

	// FindRun returns nil, nil when the run does not exist
	FindRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	// FindJobs returns the run's jobs ordered by index
	FindJobs(ctx context.Context, runID string) ([]*Job, error)
	FindEvents(ctx context.Context, runID string, jobIndex int) ([]raster.EventSummary, error)
}
