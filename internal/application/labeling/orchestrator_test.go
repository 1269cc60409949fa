package labeling_test

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/floodfill-go/internal/adapters/gridstore"
	"github.com/andrescamacho/floodfill-go/internal/application/labeling"
	"github.com/andrescamacho/floodfill-go/internal/application/logging"
	"github.com/andrescamacho/floodfill-go/internal/domain/batch"
	"github.com/andrescamacho/floodfill-go/internal/domain/raster"
	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
	"github.com/andrescamacho/floodfill-go/test/helpers"
)

func options(workers int) labeling.Options {
	opts := labeling.DefaultOptions()
	opts.MaxWorkers = workers
	return opts
}

// seedStore holds n grids "in-<i>" with i+1 isolated burned pixels each
func seedStore(t *testing.T, n int) (*gridstore.MemoryStore, []batch.JobSpec) {
	t.Helper()
	store := gridstore.NewMemoryStore()
	specs := make([]batch.JobSpec, n)
	for i := 0; i < n; i++ {
		mask := make([][]bool, 2)
		mask[0] = make([]bool, 2*(i+1))
		mask[1] = make([]bool, 2*(i+1))
		for c := 0; c < len(mask[0]); c += 2 {
			mask[0][c] = true
		}
		grid, err := raster.GridFromBurned(mask)
		require.NoError(t, err)

		id := fmt.Sprintf("in-%d", i)
		store.PutGrid(id, grid)
		specs[i] = batch.JobSpec{Input: id, Output: id + "-out", DatesOutput: id + "-dates"}
	}
	return store, specs
}

func TestRunBatch_SucceedsInSubmissionOrder(t *testing.T) {
	// Arrange
	store, specs := seedStore(t, 6)
	orch := labeling.NewOrchestrator(store, store, nil, nil)

	// Act
	outcomes, err := orch.RunBatch(context.Background(), specs, options(8))

	// Assert
	require.NoError(t, err)
	require.Len(t, outcomes, 6)
	for i, o := range outcomes {
		assert.Equal(t, i, o.Index)
		assert.Equal(t, specs[i].Input, o.Input)
		assert.Equal(t, shared.LifecycleStatusSucceeded, o.Status)
		assert.Equal(t, i+1, o.Events)
		assert.Equal(t, i+1, o.BurnedPixels)
	}
	_, wroteDates := store.Dates("in-0-dates")
	assert.False(t, wroteDates, "burn dates are opt-in")
}

func TestRunBatch_PartialFailureDoesNotAbortBatch(t *testing.T) {
	// Arrange
	store, specs := seedStore(t, 3)
	store.FailRead("in-0", errors.New("truncated strip"))
	store.FailWrite("in-2-out", errors.New("permission denied"))
	logger := helpers.NewRecordingLogger()
	ctx := logging.WithLogger(context.Background(), logger)
	orch := labeling.NewOrchestrator(store, store, nil, nil)

	// Act
	outcomes, err := orch.RunBatch(ctx, specs, options(2))

	// Assert
	require.NoError(t, err, "an all-or-partly failed batch is not an error")
	assert.Equal(t, shared.KindReadError, outcomes[0].ErrorKind)
	assert.Equal(t, shared.LifecycleStatusFailed, outcomes[0].Status)
	assert.Equal(t, shared.LifecycleStatusSucceeded, outcomes[1].Status)
	assert.Equal(t, shared.KindWriteError, outcomes[2].ErrorKind)

	assert.Equal(t, batch.Tally{Succeeded: 1, Failed: 2, Events: 2}, batch.TallyOutcomes(outcomes))
	assert.Equal(t, []string{"in-1-out"}, store.Written())

	var failed []helpers.LogEntry
	for _, e := range logger.Entries() {
		if e.Level == logging.LevelError {
			failed = append(failed, e)
		}
	}
	require.Len(t, failed, 2)
	for _, e := range failed {
		assert.NotEmpty(t, e.Metadata["input"])
		assert.NotEmpty(t, e.Metadata["error_kind"])
		assert.NotEmpty(t, e.Metadata["cause"])
		assert.NotEmpty(t, e.Metadata["run_id"])
	}
}

func TestRunBatch_WorkerCountInvariance(t *testing.T) {
	store, specs := seedStore(t, 10)
	store.FailRead("in-4", errors.New("bad header"))
	orch := labeling.NewOrchestrator(store, store, nil, nil)

	sequential, err := orch.RunBatch(context.Background(), specs, options(1))
	require.NoError(t, err)
	sequentialLabels := make([]*raster.LabelGrid, len(specs))
	for i, spec := range specs {
		sequentialLabels[i], _ = store.Labels(spec.Output)
	}

	parallel, err := orch.RunBatch(context.Background(), specs, options(8))
	require.NoError(t, err)

	for i := range specs {
		assert.Equal(t, sequential[i].Status, parallel[i].Status)
		assert.Equal(t, sequential[i].Events, parallel[i].Events)
		assert.Equal(t, sequential[i].ErrorKind, parallel[i].ErrorKind)
		got, _ := store.Labels(specs[i].Output)
		if sequentialLabels[i] == nil {
			assert.Nil(t, got)
			continue
		}
		assert.True(t, sequentialLabels[i].Equal(got))
	}
}

func TestRunBatch_ConfigErrorBeforeAnyJob(t *testing.T) {
	store, specs := seedStore(t, 2)
	var reads atomic.Int32
	store.SetReadHook(func(ctx context.Context, id string) error {
		reads.Add(1)
		return nil
	})
	orch := labeling.NewOrchestrator(store, store, nil, nil)

	cases := map[string]labeling.Options{
		"zero workers":     options(0),
		"negative workers": options(-3),
		"negative window": func() labeling.Options {
			o := options(1)
			o.Params.Window = -1
			return o
		}(),
		"unknown adjacency": func() labeling.Options {
			o := options(1)
			o.Params.Adjacency = 6
			return o
		}(),
		"negative rate": func() labeling.Options {
			o := options(1)
			o.DispatchRate = -1
			return o
		}(),
	}

	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			outcomes, err := orch.RunBatch(context.Background(), specs, opts)

			assert.True(t, shared.IsConfigError(err), "got %v", err)
			assert.Nil(t, outcomes)
		})
	}
	assert.Zero(t, reads.Load())
	assert.Empty(t, store.Written())
}

func TestRunBatch_SaveBurnDates(t *testing.T) {
	store := gridstore.NewMemoryStore()
	grid := helpers.MustParseGrid(
		"200 201 .",
		". . 90",
	)
	store.PutGrid("tile", grid)
	opts := options(1)
	opts.SaveBurnDates = true

	outcomes, err := labeling.NewOrchestrator(store, store, nil, nil).RunBatch(context.Background(),
		[]batch.JobSpec{{Input: "tile", Output: "tile-ids", DatesOutput: "tile-dates"}}, opts)

	require.NoError(t, err)
	assert.Equal(t, 2, outcomes[0].Events)
	dates, ok := store.Dates("tile-dates")
	require.True(t, ok)
	assert.Equal(t, []int{200, 201, 0, 0, 0, 90}, dates.Values())
}

func TestRunBatch_CancellationAbandonsPendingJobs(t *testing.T) {
	// Arrange - the first read cancels the run while it is in flight
	store, specs := seedStore(t, 5)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store.SetReadHook(func(_ context.Context, id string) error {
		if id == "in-0" {
			cancel()
		}
		return nil
	})
	orch := labeling.NewOrchestrator(store, store, nil, nil)

	// Act
	outcomes, err := orch.RunBatch(ctx, specs, options(1))

	// Assert
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, outcomes, 5)
	for _, o := range outcomes {
		assert.Equal(t, shared.LifecycleStatusCanceled, o.Status)
		assert.Equal(t, shared.KindCanceled, o.ErrorKind)
	}
	assert.Empty(t, store.Written(), "a job in flight is abandoned, not half-written")
}

func TestRunBatch_CancelDuringReadIsNotAReadError(t *testing.T) {
	// Arrange - the store sees the cancellation and reports it as a read failure
	store, specs := seedStore(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store.SetReadHook(func(readCtx context.Context, id string) error {
		if id == "in-0" {
			cancel()
			return readCtx.Err()
		}
		return nil
	})

	// Act
	outcomes, err := labeling.NewOrchestrator(store, store, nil, nil).RunBatch(ctx, specs, options(1))

	// Assert
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.Equal(t, shared.LifecycleStatusCanceled, o.Status)
		assert.Equal(t, shared.KindCanceled, o.ErrorKind)
	}
	assert.Equal(t, batch.Tally{Canceled: 2}, batch.TallyOutcomes(outcomes))
}

func TestRunBatch_DispatchDeadlineCancelsRun(t *testing.T) {
	// Arrange - the second dispatch slot opens long after the deadline
	store, specs := seedStore(t, 3)
	opts := options(3)
	opts.DispatchRate = 2
	opts.DispatchBurst = 1
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	handler := labeling.NewRunBatchHandler(labeling.NewOrchestrator(store, store, nil, nil), nil)

	// Act
	resp, err := handler.Handle(ctx, &labeling.RunBatchCommand{Jobs: specs, Options: opts})

	// Assert
	require.ErrorIs(t, err, context.DeadlineExceeded)
	response := resp.(*labeling.RunBatchResponse)
	assert.Equal(t, shared.LifecycleStatusCanceled, response.Status)
	assert.Equal(t, shared.LifecycleStatusSucceeded, response.Outcomes[0].Status)
	for _, o := range response.Outcomes[1:] {
		assert.Equal(t, shared.LifecycleStatusCanceled, o.Status)
		assert.Equal(t, shared.KindCanceled, o.ErrorKind)
		assert.ErrorIs(t, o.Err, context.DeadlineExceeded)
	}
}

func TestRunBatch_DatesWriteFailureRemovesLabels(t *testing.T) {
	store := gridstore.NewMemoryStore()
	store.PutGrid("tile", helpers.MustParseGrid("200 201 ."))
	store.FailWrite("tile-dates", errors.New("disk full"))
	opts := options(1)
	opts.SaveBurnDates = true

	outcomes, err := labeling.NewOrchestrator(store, store, nil, nil).RunBatch(context.Background(),
		[]batch.JobSpec{{Input: "tile", Output: "tile-ids", DatesOutput: "tile-dates"}}, opts)

	require.NoError(t, err)
	assert.Equal(t, shared.LifecycleStatusFailed, outcomes[0].Status)
	assert.Equal(t, shared.KindWriteError, outcomes[0].ErrorKind)
	assert.Empty(t, store.Written(), "a failed job leaves no label output")
}

func TestRunBatch_DispatchRateThrottles(t *testing.T) {
	store, specs := seedStore(t, 3)
	opts := options(3)
	opts.DispatchRate = 20
	opts.DispatchBurst = 1

	start := time.Now()
	outcomes, err := labeling.NewOrchestrator(store, store, nil, nil).RunBatch(context.Background(), specs, opts)

	require.NoError(t, err)
	assert.Len(t, outcomes, 3)
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestRunBatch_EmptyBatch(t *testing.T) {
	store := gridstore.NewMemoryStore()

	outcomes, err := labeling.NewOrchestrator(store, store, nil, nil).RunBatch(context.Background(), nil, options(4))

	require.NoError(t, err)
	assert.Empty(t, outcomes)
}

type failingRecorder struct {
	calls atomic.Int32
}

func (r *failingRecorder) RecordRunStarted(context.Context, *batch.Run) error {
	r.calls.Add(1)
	return errors.New("database is locked")
}

func (r *failingRecorder) RecordJobOutcome(context.Context, string, batch.Outcome, []raster.EventSummary) error {
	r.calls.Add(1)
	return errors.New("database is locked")
}

func (r *failingRecorder) RecordRunFinished(context.Context, *batch.Run) error {
	r.calls.Add(1)
	return errors.New("database is locked")
}

func TestRunBatch_RecorderFailuresAreOnlyLogged(t *testing.T) {
	store, specs := seedStore(t, 2)
	recorder := &failingRecorder{}
	logger := helpers.NewRecordingLogger()
	ctx := logging.WithLogger(context.Background(), logger)

	outcomes, err := labeling.NewOrchestrator(store, store, recorder, nil).RunBatch(ctx, specs, options(2))

	require.NoError(t, err)
	assert.Equal(t, 2, batch.TallyOutcomes(outcomes).Succeeded)
	assert.EqualValues(t, 4, recorder.calls.Load())
	assert.True(t, logger.HasMessage(logging.LevelWarning, "Failed to record"))
}

func TestEffectiveWorkers(t *testing.T) {
	procs := runtime.GOMAXPROCS(0)

	assert.Equal(t, 1, labeling.EffectiveWorkers(1, 10))
	assert.Equal(t, min(procs, 3), labeling.EffectiveWorkers(64, 3))
	assert.Equal(t, min(procs, 1000), labeling.EffectiveWorkers(1000, 1000))
	assert.Equal(t, 1, labeling.EffectiveWorkers(8, 0))
}
