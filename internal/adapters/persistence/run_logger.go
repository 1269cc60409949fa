package persistence

import (
	"context"
	"fmt"
	"os"
	"time"
)

// RunLogger persists a run's log entries through a JobLogRepository.
// The job ID is taken from the entry's "job_id" metadata when present.
type RunLogger struct {
	repo    JobLogRepository
	runID   string
	timeout time.Duration
}

func NewRunLogger(repo JobLogRepository, runID string) *RunLogger {
	return &RunLogger{repo: repo, runID: runID, timeout: 5 * time.Second}
}

// Log implements logging.JobLogger. Persistence failures are reported on
// stderr and never propagate to the job.
func (l *RunLogger) Log(level, message string, metadata map[string]interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	jobID, _ := metadata["job_id"].(string)
	if err := l.repo.Log(ctx, l.runID, jobID, message, level, metadata); err != nil {
		fmt.Fprintf(os.Stderr, "[%s] [%s] ERROR: failed to persist log: %v\n",
			time.Now().Format(time.RFC3339), l.runID, err)
	}
}
