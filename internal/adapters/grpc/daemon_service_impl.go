package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
)

// daemonServiceImpl implements labelServiceServer.
// It bridges gRPC requests to the DaemonServer business logic
type daemonServiceImpl struct {
	daemon *DaemonServer
}

// newDaemonServiceImpl creates a new gRPC service implementation
func newDaemonServiceImpl(daemon *DaemonServer) *daemonServiceImpl {
	return &daemonServiceImpl{
		daemon: daemon,
	}
}

// RunBatch submits a batch
func (s *daemonServiceImpl) RunBatch(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req RunBatchRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	run, err := s.daemon.SubmitRun(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(run)
}

// GetRun reports one run
func (s *daemonServiceImpl) GetRun(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req RunIDRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if req.RunID == "" {
		return nil, status.Error(codes.InvalidArgument, "run_id is required")
	}

	run, err := s.daemon.GetRun(ctx, req.RunID)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(run)
}

// CancelRun cancels an active run
func (s *daemonServiceImpl) CancelRun(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req RunIDRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	run, err := s.daemon.CancelRun(req.RunID)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(run)
}

// ListRuns lists recent runs
func (s *daemonServiceImpl) ListRuns(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req ListRunsRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	runs, err := s.daemon.ListRuns(ctx, req.Limit)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(ListRunsResponse{Runs: runs})
}

// toStatus maps errors onto gRPC status codes
func toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	var cfgErr *shared.ConfigError
	switch {
	case errors.As(err, &cfgErr):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
