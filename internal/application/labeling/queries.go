package labeling

import (
	"context"
	"fmt"
	"time"

	"github.com/andrescamacho/floodfill-go/internal/adapters/persistence"
	"github.com/andrescamacho/floodfill-go/internal/application/mediator"
	"github.com/andrescamacho/floodfill-go/internal/domain/batch"
	"github.com/andrescamacho/floodfill-go/internal/domain/raster"
)

// GetRunQuery fetches a recorded run with its jobs
type GetRunQuery struct {
	RunID string
	// IncludeEvents also loads the event summaries of succeeded jobs
	IncludeEvents bool
}

// GetRunResponse holds the run, its jobs by index and, optionally, events by job index
type GetRunResponse struct {
	Run    *batch.Run
	Jobs   []*batch.Job
	Events map[int][]raster.EventSummary
}

type GetRunHandler struct {
	runs batch.RunRepository
}

func NewGetRunHandler(runs batch.RunRepository) *GetRunHandler {
	return &GetRunHandler{runs: runs}
}

func (h *GetRunHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	query, ok := request.(*GetRunQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	run, err := h.runs.FindRun(ctx, query.RunID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("run %s not found", query.RunID)
	}

	jobs, err := h.runs.FindJobs(ctx, query.RunID)
	if err != nil {
		return nil, err
	}

	response := &GetRunResponse{Run: run, Jobs: jobs}
	if !query.IncludeEvents {
		return response, nil
	}

	response.Events = make(map[int][]raster.EventSummary)
	for _, job := range jobs {
		if job.Events() == 0 {
			continue
		}
		events, err := h.runs.FindEvents(ctx, query.RunID, job.Index())
		if err != nil {
			return nil, err
		}
		response.Events[job.Index()] = events
	}
	return response, nil
}

// ListRunsQuery lists recent runs, newest first
type ListRunsQuery struct {
	Limit int
}

type ListRunsResponse struct {
	Runs []*batch.Run
}

type ListRunsHandler struct {
	runs batch.RunRepository
}

func NewListRunsHandler(runs batch.RunRepository) *ListRunsHandler {
	return &ListRunsHandler{runs: runs}
}

func (h *ListRunsHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	query, ok := request.(*ListRunsQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	runs, err := h.runs.ListRuns(ctx, query.Limit)
	if err != nil {
		return nil, err
	}
	return &ListRunsResponse{Runs: runs}, nil
}

// GetJobLogsQuery reads persisted log entries of a run
type GetJobLogsQuery struct {
	RunID string
	// JobID restricts the entries to one job; empty means all jobs
	JobID  string
	Limit  int
	Offset int
	Level  *string
	Since  *time.Time
}

type GetJobLogsResponse struct {
	Logs []persistence.JobLogEntry
}

type GetJobLogsHandler struct {
	logs persistence.JobLogRepository
}

func NewGetJobLogsHandler(logs persistence.JobLogRepository) *GetJobLogsHandler {
	return &GetJobLogsHandler{logs: logs}
}

func (h *GetJobLogsHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	query, ok := request.(*GetJobLogsQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	logs, err := h.logs.GetLogs(ctx, query.RunID, query.JobID, query.Limit, query.Offset, query.Level, query.Since)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs for run %s: %w", query.RunID, err)
	}
	return &GetJobLogsResponse{Logs: logs}, nil
}
