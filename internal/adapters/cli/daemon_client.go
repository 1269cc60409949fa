package cli

import (
	"context"

	daemongrpc "github.com/andrescamacho/floodfill-go/internal/adapters/grpc"
)

// LabelClient is the daemon API used by submit and runs
type LabelClient interface {
	RunBatch(ctx context.Context, req daemongrpc.RunBatchRequest) (daemongrpc.RunMessage, error)
	GetRun(ctx context.Context, runID string) (daemongrpc.RunMessage, error)
	CancelRun(ctx context.Context, runID string) (daemongrpc.RunMessage, error)
	ListRuns(ctx context.Context, limit int) ([]daemongrpc.RunMessage, error)
	Close() error
}

// dialDaemon connects to the daemon socket; tests replace it
var dialDaemon = func(socket string) (LabelClient, error) {
	return daemongrpc.NewDaemonClientGRPC(socket)
}
