package grpc

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/andrescamacho/floodfill-go/internal/application/labeling"
	"github.com/andrescamacho/floodfill-go/internal/domain/batch"
)

// Messages travel as google.protobuf.Struct; these types fix their shape.

// JobMessage is one input/output pair of a batch
type JobMessage struct {
	Input       string `json:"input"`
	Output      string `json:"output"`
	DatesOutput string `json:"dates_output,omitempty"`
}

// RunBatchRequest submits a batch. Zero-valued labeling fields fall back to
// the daemon's configuration.
type RunBatchRequest struct {
	RunID         string       `json:"run_id,omitempty"`
	Jobs          []JobMessage `json:"jobs"`
	Workers       int          `json:"workers,omitempty"`
	Adjacency     int          `json:"adjacency,omitempty"`
	CutOff        *int         `json:"cut_off,omitempty"`
	SpatialOnly   bool         `json:"spatial_only,omitempty"`
	TemporalMode  string       `json:"temporal_mode,omitempty"`
	Strategy      string       `json:"strategy,omitempty"`
	SaveBurnDates bool         `json:"save_burn_dates,omitempty"`
	// Wait blocks the call until the run finishes
	Wait bool `json:"wait,omitempty"`
}

// OutcomeMessage reports one job
type OutcomeMessage struct {
	Index        int    `json:"index"`
	JobID        string `json:"job_id"`
	Input        string `json:"input"`
	Output       string `json:"output"`
	Status       string `json:"status"`
	Events       int    `json:"events"`
	BurnedPixels int    `json:"burned_pixels"`
	ErrorKind    string `json:"error_kind,omitempty"`
	Error        string `json:"error,omitempty"`
	DurationMs   int64  `json:"duration_ms"`
}

// RunMessage reports a run and, once known, its outcomes
type RunMessage struct {
	RunID     string           `json:"run_id"`
	Status    string           `json:"status"`
	Workers   int              `json:"workers"`
	JobCount  int              `json:"job_count"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Canceled  int              `json:"canceled"`
	Events    int              `json:"events"`
	Error     string           `json:"error,omitempty"`
	Outcomes  []OutcomeMessage `json:"outcomes,omitempty"`
}

type RunIDRequest struct {
	RunID string `json:"run_id"`
}

type ListRunsRequest struct {
	Limit int `json:"limit,omitempty"`
}

type ListRunsResponse struct {
	Runs []RunMessage `json:"runs"`
}

// toStruct encodes v through its JSON form
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	st := &structpb.Struct{}
	if err := protojson.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	return st, nil
}

// fromStruct decodes st into v through its JSON form
func fromStruct(st *structpb.Struct, v interface{}) error {
	data, err := protojson.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to decode %T: %w", v, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %T: %w", v, err)
	}
	return nil
}

func outcomeToMessage(o batch.Outcome) OutcomeMessage {
	msg := OutcomeMessage{
		Index:        o.Index,
		JobID:        o.JobID,
		Input:        o.Input,
		Output:       o.Output,
		Status:       string(o.Status),
		Events:       o.Events,
		BurnedPixels: o.BurnedPixels,
		ErrorKind:    o.ErrorKind,
		DurationMs:   o.Duration.Milliseconds(),
	}
	if o.Err != nil {
		msg.Error = o.Err.Error()
	}
	return msg
}

func responseToMessage(resp *labeling.RunBatchResponse) RunMessage {
	msg := RunMessage{
		RunID:     resp.RunID,
		Status:    string(resp.Status),
		Workers:   resp.Workers,
		JobCount:  len(resp.Outcomes),
		Succeeded: resp.Tally.Succeeded,
		Failed:    resp.Tally.Failed,
		Canceled:  resp.Tally.Canceled,
		Events:    resp.Tally.Events,
		Outcomes:  make([]OutcomeMessage, len(resp.Outcomes)),
	}
	for i, o := range resp.Outcomes {
		msg.Outcomes[i] = outcomeToMessage(o)
	}
	return msg
}

func runToMessage(run *batch.Run, jobs []*batch.Job) RunMessage {
	tally := run.Tally()
	msg := RunMessage{
		RunID:     run.ID(),
		Status:    string(run.Status()),
		Workers:   run.Workers(),
		JobCount:  run.JobCount(),
		Succeeded: tally.Succeeded,
		Failed:    tally.Failed,
		Canceled:  tally.Canceled,
		Events:    tally.Events,
	}
	if err := run.Lifecycle().LastError(); err != nil {
		msg.Error = err.Error()
	}
	for _, job := range jobs {
		msg.Outcomes = append(msg.Outcomes, outcomeToMessage(job.Outcome()))
	}
	return msg
}

// Duration returns the job's duration
func (o OutcomeMessage) Duration() time.Duration {
	return time.Duration(o.DurationMs) * time.Millisecond
}
