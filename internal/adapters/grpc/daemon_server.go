package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/andrescamacho/floodfill-go/internal/application/labeling"
	"github.com/andrescamacho/floodfill-go/internal/application/mediator"
	"github.com/andrescamacho/floodfill-go/internal/domain/batch"
	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
	"github.com/andrescamacho/floodfill-go/internal/infrastructure/config"
	"github.com/andrescamacho/floodfill-go/pkg/utils"
)

// finishedRunsRetained bounds how many finished runs stay queryable from memory
const finishedRunsRetained = 100

// ServerOptions configures the daemon
type ServerOptions struct {
	SocketPath        string
	MaxConcurrentRuns int
	ShutdownTimeout   time.Duration

	// Labeling and Batch supply defaults for fields a request leaves unset
	Labeling config.LabelingConfig
	Batch    config.BatchConfig
}

// DaemonServer implements the gRPC label service.
// Batches run in the background, at most MaxConcurrentRuns at a time.
type DaemonServer struct {
	mediator mediator.Mediator
	listener net.Listener
	opts     ServerOptions

	runs     map[string]*runHandle
	finished []string
	nextSeq  uint64
	runsMu   sync.RWMutex
	slots    chan struct{}

	runCtx     context.Context
	cancelRuns context.CancelFunc
	runsWG     sync.WaitGroup

	// Shutdown coordination
	shutdownChan chan os.Signal
	done         chan struct{}
	stopOnce     sync.Once
}

type runHandle struct {
	id       string
	seq      uint64 // submission order
	jobs     int
	workers  int
	started  atomic.Bool
	cancel   context.CancelFunc
	finished chan struct{}

	// set before finished is closed
	response *labeling.RunBatchResponse
	err      error
}

// NewDaemonServer creates a new daemon server instance
func NewDaemonServer(m mediator.Mediator, opts ServerOptions) (*DaemonServer, error) {
	if opts.MaxConcurrentRuns < 1 {
		opts.MaxConcurrentRuns = 1
	}

	// Remove existing socket file if present
	if err := os.RemoveAll(opts.SocketPath); err != nil {
		return nil, fmt.Errorf("failed to remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", opts.SocketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create unix socket listener: %w", err)
	}

	// Set socket permissions (owner only)
	if err := os.Chmod(opts.SocketPath, 0600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to set socket permissions: %w", err)
	}

	runCtx, cancelRuns := context.WithCancel(context.Background())
	server := &DaemonServer{
		mediator:     m,
		listener:     listener,
		opts:         opts,
		runs:         make(map[string]*runHandle),
		slots:        make(chan struct{}, opts.MaxConcurrentRuns),
		runCtx:       runCtx,
		cancelRuns:   cancelRuns,
		shutdownChan: make(chan os.Signal, 1),
		done:         make(chan struct{}),
	}

	signal.Notify(server.shutdownChan, os.Interrupt, syscall.SIGTERM)

	return server, nil
}

// Start begins serving gRPC requests and blocks until shutdown
func (s *DaemonServer) Start() error {
	fmt.Printf("Daemon server listening on unix socket: %s\n", s.listener.Addr().String())

	go s.handleShutdown()

	grpcServer := grpc.NewServer()
	grpcServer.RegisterService(&labelServiceDesc, newDaemonServiceImpl(s))

	errChan := make(chan error, 1)
	go func() {
		if err := grpcServer.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-s.done:
		fmt.Println("Initiating graceful shutdown of gRPC server...")
		grpcServer.GracefulStop()
		return nil
	}
}

// handleShutdown waits for a signal, then stops the daemon
func (s *DaemonServer) handleShutdown() {
	select {
	case <-s.shutdownChan:
		fmt.Println("\nShutdown signal received, stopping daemon...")
		s.Stop()
	case <-s.done:
	}
}

// Stop cancels running batches, waits up to the shutdown timeout for them
// to wind down and closes the listener. Safe to call more than once.
func (s *DaemonServer) Stop() {
	s.stopOnce.Do(func() {
		signal.Stop(s.shutdownChan)
		s.cancelRuns()

		finished := make(chan struct{})
		go func() {
			s.runsWG.Wait()
			close(finished)
		}()

		timeout := s.opts.ShutdownTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		select {
		case <-finished:
		case <-time.After(timeout):
			fmt.Printf("Shutdown timeout after %s, abandoning running batches\n", timeout)
		}

		if s.listener != nil {
			s.listener.Close()
		}
		close(s.done)
	})
}

// SubmitRun starts a batch. With req.Wait it blocks until the batch ends or
// ctx is done; a caller that stops waiting cancels its run.
func (s *DaemonServer) SubmitRun(ctx context.Context, req RunBatchRequest) (RunMessage, error) {
	opts, specs, err := s.buildCommand(req)
	if err != nil {
		return RunMessage{}, err
	}

	runCtx, cancel := context.WithCancel(s.runCtx)
	handle := &runHandle{
		id:       opts.RunID,
		jobs:     len(specs),
		workers:  labeling.EffectiveWorkers(opts.MaxWorkers, len(specs)),
		cancel:   cancel,
		finished: make(chan struct{}),
	}
	if err := s.registerRun(handle); err != nil {
		cancel()
		return RunMessage{}, err
	}

	if req.Wait {
		stop := context.AfterFunc(ctx, cancel)
		defer stop()
	}

	s.runsWG.Add(1)
	go s.execute(runCtx, handle, specs, opts)

	if !req.Wait {
		return handle.message(), nil
	}

	select {
	case <-handle.finished:
	case <-ctx.Done():
		return RunMessage{}, ctx.Err()
	}
	return handle.message(), nil
}

func (s *DaemonServer) execute(ctx context.Context, handle *runHandle, specs []batch.JobSpec, opts labeling.Options) {
	defer s.runsWG.Done()
	defer handle.cancel()
	defer s.markFinished(handle)

	select {
	case s.slots <- struct{}{}:
		defer func() { <-s.slots }()
	case <-ctx.Done():
		handle.err = ctx.Err()
		return
	}
	handle.started.Store(true)

	resp, err := s.mediator.Send(ctx, &labeling.RunBatchCommand{Jobs: specs, Options: opts})
	if result, ok := resp.(*labeling.RunBatchResponse); ok {
		handle.response = result
	}
	handle.err = err
}

// buildCommand overlays the request on the configured defaults
func (s *DaemonServer) buildCommand(req RunBatchRequest) (labeling.Options, []batch.JobSpec, error) {
	lc := s.opts.Labeling
	if req.Adjacency != 0 {
		lc.Adjacency = req.Adjacency
	}
	if req.CutOff != nil {
		lc.CutOff = req.CutOff
	}
	if req.SpatialOnly {
		lc.SpatialOnly = true
	}
	if req.TemporalMode != "" {
		lc.TemporalMode = req.TemporalMode
	}
	if req.Strategy != "" {
		lc.Strategy = req.Strategy
	}

	params, err := lc.Params()
	if err != nil {
		return labeling.Options{}, nil, err
	}

	opts := labeling.Options{
		RunID:         req.RunID,
		MaxWorkers:    s.opts.Batch.Workers,
		Params:        params,
		DispatchRate:  s.opts.Batch.DispatchRate,
		DispatchBurst: s.opts.Batch.DispatchBurst,
		SaveBurnDates: req.SaveBurnDates || s.opts.Batch.SaveBurnDates,
	}
	if req.Workers != 0 {
		opts.MaxWorkers = req.Workers
	}
	if opts.RunID == "" {
		opts.RunID = utils.GenerateRunID()
	}
	if err := opts.Validate(); err != nil {
		return labeling.Options{}, nil, err
	}

	specs := make([]batch.JobSpec, len(req.Jobs))
	for i, j := range req.Jobs {
		if j.Input == "" || j.Output == "" {
			return labeling.Options{}, nil, shared.NewConfigError("job", fmt.Sprintf("job %d needs an input and an output", i))
		}
		specs[i] = batch.JobSpec{Input: j.Input, Output: j.Output, DatesOutput: j.DatesOutput}
	}
	return opts, specs, nil
}

func (s *DaemonServer) registerRun(handle *runHandle) error {
	s.runsMu.Lock()
	defer s.runsMu.Unlock()

	if _, exists := s.runs[handle.id]; exists {
		return status.Errorf(codes.AlreadyExists, "run %s already exists", handle.id)
	}
	s.nextSeq++
	handle.seq = s.nextSeq
	s.runs[handle.id] = handle
	return nil
}

// markFinished closes the handle and evicts the oldest finished runs
func (s *DaemonServer) markFinished(handle *runHandle) {
	s.runsMu.Lock()
	defer s.runsMu.Unlock()

	close(handle.finished)
	s.finished = append(s.finished, handle.id)
	for len(s.finished) > finishedRunsRetained {
		delete(s.runs, s.finished[0])
		s.finished = s.finished[1:]
	}
}

func (s *DaemonServer) lookupRun(runID string) (*runHandle, bool) {
	s.runsMu.RLock()
	defer s.runsMu.RUnlock()
	h, ok := s.runs[runID]
	return h, ok
}

// GetRun reports a run from memory, falling back to the recorded history
func (s *DaemonServer) GetRun(ctx context.Context, runID string) (RunMessage, error) {
	if handle, ok := s.lookupRun(runID); ok {
		return handle.message(), nil
	}

	resp, err := s.mediator.Send(ctx, &labeling.GetRunQuery{RunID: runID})
	if err != nil {
		return RunMessage{}, status.Errorf(codes.NotFound, "run %s not found", runID)
	}
	result, ok := resp.(*labeling.GetRunResponse)
	if !ok {
		return RunMessage{}, fmt.Errorf("unexpected response type %T", resp)
	}
	return runToMessage(result.Run, result.Jobs), nil
}

// CancelRun cancels an active run. Finished runs are left unchanged.
func (s *DaemonServer) CancelRun(runID string) (RunMessage, error) {
	handle, ok := s.lookupRun(runID)
	if !ok {
		return RunMessage{}, status.Errorf(codes.NotFound, "run %s is not active", runID)
	}
	handle.cancel()
	return handle.message(), nil
}

// ListRuns returns recorded runs when history is enabled, otherwise the
// runs held in memory, newest first
func (s *DaemonServer) ListRuns(ctx context.Context, limit int) ([]RunMessage, error) {
	if resp, err := s.mediator.Send(ctx, &labeling.ListRunsQuery{Limit: limit}); err == nil {
		if result, ok := resp.(*labeling.ListRunsResponse); ok {
			runs := make([]RunMessage, len(result.Runs))
			for i, run := range result.Runs {
				runs[i] = runToMessage(run, nil)
			}
			return runs, nil
		}
	}

	s.runsMu.RLock()
	handles := make([]*runHandle, 0, len(s.runs))
	for _, h := range s.runs {
		handles = append(handles, h)
	}
	s.runsMu.RUnlock()

	sort.Slice(handles, func(i, j int) bool { return handles[i].seq > handles[j].seq })
	if limit > 0 && len(handles) > limit {
		handles = handles[:limit]
	}

	runs := make([]RunMessage, len(handles))
	for i, h := range handles {
		runs[i] = h.message()
	}
	return runs, nil
}

// message snapshots the handle
func (h *runHandle) message() RunMessage {
	select {
	case <-h.finished:
	default:
		st := shared.LifecycleStatusPending
		if h.started.Load() {
			st = shared.LifecycleStatusRunning
		}
		return RunMessage{RunID: h.id, Status: string(st), Workers: h.workers, JobCount: h.jobs}
	}

	if h.response != nil {
		msg := responseToMessage(h.response)
		if h.err != nil {
			msg.Error = h.err.Error()
		}
		return msg
	}

	msg := RunMessage{RunID: h.id, Status: string(shared.LifecycleStatusFailed), Workers: h.workers, JobCount: h.jobs}
	if errors.Is(h.err, context.Canceled) {
		msg.Status = string(shared.LifecycleStatusCanceled)
	}
	if h.err != nil {
		msg.Error = h.err.Error()
	}
	return msg
}

// ActiveRuns returns the number of runs not yet finished
func (s *DaemonServer) ActiveRuns() int {
	s.runsMu.RLock()
	defer s.runsMu.RUnlock()
	return len(s.runs) - len(s.finished)
}
