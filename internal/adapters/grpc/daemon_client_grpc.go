package grpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
)

// DaemonClientGRPC talks to the label service over its unix socket
type DaemonClientGRPC struct {
	conn *grpc.ClientConn
}

// NewDaemonClientGRPC creates a new gRPC daemon client.
// socketPath should be a Unix domain socket path (e.g., "/tmp/floodfill-daemon.sock")
func NewDaemonClientGRPC(socketPath string) (*DaemonClientGRPC, error) {
	conn, err := grpc.NewClient(
		"unix:"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon socket: %w", err)
	}

	return &DaemonClientGRPC{conn: conn}, nil
}

// Close closes the gRPC connection
func (c *DaemonClientGRPC) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// RunBatch submits a batch. Configuration problems come back as a ConfigError.
func (c *DaemonClientGRPC) RunBatch(ctx context.Context, req RunBatchRequest) (RunMessage, error) {
	var run RunMessage
	if err := c.invoke(ctx, "RunBatch", req, &run); err != nil {
		return RunMessage{}, fmt.Errorf("failed to run batch: %w", err)
	}
	return run, nil
}

// GetRun retrieves a run with its outcomes
func (c *DaemonClientGRPC) GetRun(ctx context.Context, runID string) (RunMessage, error) {
	var run RunMessage
	if err := c.invoke(ctx, "GetRun", RunIDRequest{RunID: runID}, &run); err != nil {
		return RunMessage{}, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// CancelRun cancels an active run
func (c *DaemonClientGRPC) CancelRun(ctx context.Context, runID string) (RunMessage, error) {
	var run RunMessage
	if err := c.invoke(ctx, "CancelRun", RunIDRequest{RunID: runID}, &run); err != nil {
		return RunMessage{}, fmt.Errorf("failed to cancel run: %w", err)
	}
	return run, nil
}

// ListRuns lists recent runs, newest first
func (c *DaemonClientGRPC) ListRuns(ctx context.Context, limit int) ([]RunMessage, error) {
	var resp ListRunsResponse
	if err := c.invoke(ctx, "ListRuns", ListRunsRequest{Limit: limit}, &resp); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return resp.Runs, nil
}

func (c *DaemonClientGRPC) invoke(ctx context.Context, method string, req, resp interface{}) error {
	in, err := toStruct(req)
	if err != nil {
		return err
	}

	out := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, fullMethod(method), in, out); err != nil {
		return fromStatus(err)
	}
	return fromStruct(out, resp)
}

// fromStatus restores a ConfigError from InvalidArgument
func fromStatus(err error) error {
	if st, ok := status.FromError(err); ok && st.Code() == codes.InvalidArgument {
		return shared.NewConfigError("request", st.Message())
	}
	return err
}
