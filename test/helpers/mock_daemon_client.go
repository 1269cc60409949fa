package helpers

import (
	"context"
	"fmt"
	"sort"
	"sync"

	daemongrpc "github.com/andrescamacho/floodfill-go/internal/adapters/grpc"
)

// MockDaemonClient simulates the label daemon for CLI tests.
// Submitted runs finish immediately with every job SUCCEEDED.
type MockDaemonClient struct {
	mu sync.RWMutex

	runs      map[string]daemongrpc.RunMessage
	requests  []daemongrpc.RunBatchRequest
	canceled  []string
	submitErr error
	closed    bool
}

// NewMockDaemonClient creates a new mock daemon client
func NewMockDaemonClient() *MockDaemonClient {
	return &MockDaemonClient{
		runs: make(map[string]daemongrpc.RunMessage),
	}
}

// FailSubmissions makes every RunBatch call return err
func (m *MockDaemonClient) FailSubmissions(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitErr = err
}

// AddRun adds a pre-existing run
func (m *MockDaemonClient) AddRun(run daemongrpc.RunMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.RunID] = run
}

func (m *MockDaemonClient) RunBatch(ctx context.Context, req daemongrpc.RunBatchRequest) (daemongrpc.RunMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if m.submitErr != nil {
		return daemongrpc.RunMessage{}, m.submitErr
	}

	runID := req.RunID
	if runID == "" {
		runID = fmt.Sprintf("run-mock%04d", len(m.requests))
	}
	run := daemongrpc.RunMessage{
		RunID:     runID,
		Status:    "SUCCEEDED",
		Workers:   1,
		JobCount:  len(req.Jobs),
		Succeeded: len(req.Jobs),
	}
	for i, job := range req.Jobs {
		run.Outcomes = append(run.Outcomes, daemongrpc.OutcomeMessage{
			Index:  i,
			Input:  job.Input,
			Output: job.Output,
			Status: "SUCCEEDED",
		})
	}
	m.runs[runID] = run

	if !req.Wait {
		return daemongrpc.RunMessage{RunID: runID, Status: "PENDING", JobCount: len(req.Jobs)}, nil
	}
	return run, nil
}

func (m *MockDaemonClient) GetRun(ctx context.Context, runID string) (daemongrpc.RunMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[runID]
	if !ok {
		return daemongrpc.RunMessage{}, fmt.Errorf("run %s not found", runID)
	}
	return run, nil
}

func (m *MockDaemonClient) CancelRun(ctx context.Context, runID string) (daemongrpc.RunMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.runs[runID]
	if !ok {
		return daemongrpc.RunMessage{}, fmt.Errorf("run %s is not active", runID)
	}
	m.canceled = append(m.canceled, runID)
	return run, nil
}

func (m *MockDaemonClient) ListRuns(ctx context.Context, limit int) ([]daemongrpc.RunMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := make([]daemongrpc.RunMessage, 0, len(m.runs))
	for _, r := range m.runs {
		runs = append(runs, r)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].RunID > runs[j].RunID })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (m *MockDaemonClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Requests returns the submitted requests in order
func (m *MockDaemonClient) Requests() []daemongrpc.RunBatchRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]daemongrpc.RunBatchRequest{}, m.requests...)
}

// Canceled returns the IDs passed to CancelRun
func (m *MockDaemonClient) Canceled() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string{}, m.canceled...)
}

// Closed reports whether Close was called
func (m *MockDaemonClient) Closed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}
