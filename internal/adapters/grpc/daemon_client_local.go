package grpc

import (
	"context"
)

// DaemonClientLocal calls a DaemonServer in the same process, bypassing the socket
type DaemonClientLocal struct {
	server *DaemonServer
}

// NewDaemonClientLocal creates a new local daemon client
func NewDaemonClientLocal(server *DaemonServer) *DaemonClientLocal {
	return &DaemonClientLocal{
		server: server,
	}
}

func (c *DaemonClientLocal) RunBatch(ctx context.Context, req RunBatchRequest) (RunMessage, error) {
	return c.server.SubmitRun(ctx, req)
}

func (c *DaemonClientLocal) GetRun(ctx context.Context, runID string) (RunMessage, error) {
	return c.server.GetRun(ctx, runID)
}

func (c *DaemonClientLocal) CancelRun(_ context.Context, runID string) (RunMessage, error) {
	return c.server.CancelRun(runID)
}

func (c *DaemonClientLocal) ListRuns(ctx context.Context, limit int) ([]RunMessage, error) {
	return c.server.ListRuns(ctx, limit)
}

// Close is a no-op; the server owns its lifecycle
func (c *DaemonClientLocal) Close() error {
	return nil
}
