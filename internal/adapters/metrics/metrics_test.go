package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/floodfill-go/internal/application/mediator"
	"github.com/andrescamacho/floodfill-go/internal/domain/batch"
	"github.com/andrescamacho/floodfill-go/internal/domain/raster"
	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
	"github.com/andrescamacho/floodfill-go/internal/infrastructure/config"
)

func resetGlobals(t *testing.T) {
	t.Cleanup(func() {
		Registry = nil
		globalCollector = nil
	})
}

func TestRecordJobOutcome_DisabledIsNoOp(t *testing.T) {
	resetGlobals(t)

	assert.False(t, IsEnabled())
	assert.NotPanics(t, func() {
		RecordJobOutcome(batch.Outcome{Status: shared.LifecycleStatusSucceeded})
		SetActiveWorkers(4)
	})
}

func TestBatchMetricsCollector_RecordsOutcomes(t *testing.T) {
	// Arrange
	resetGlobals(t)
	commands, err := Setup(config.MetricsConfig{Enabled: true})
	require.NoError(t, err)
	require.NotNil(t, commands)
	collector := globalCollector.(*BatchMetricsCollector)

	// Act
	SetActiveWorkers(3)
	RecordJobOutcome(batch.Outcome{Status: shared.LifecycleStatusSucceeded, Events: 4, BurnedPixels: 90, Duration: time.Second})
	RecordJobOutcome(batch.Outcome{Status: shared.LifecycleStatusFailed, ErrorKind: shared.KindReadError})
	RecordJobOutcome(batch.Outcome{Status: shared.LifecycleStatusFailed, ErrorKind: shared.KindReadError})

	// Assert
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.jobsTotal.WithLabelValues("SUCCEEDED", "")))
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.jobsTotal.WithLabelValues("FAILED", "ReadError")))
	assert.Equal(t, 4.0, testutil.ToFloat64(collector.eventsTotal))
	assert.Equal(t, 90.0, testutil.ToFloat64(collector.burnedPixelsTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(collector.activeWorkers))

	run := batch.NewRun("run-1", raster.DefaultParams(), 3, 0, nil)
	require.NoError(t, run.Start())
	require.NoError(t, run.Finish(nil, nil))
	RecordRunFinished(run)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.runsTotal.WithLabelValues("SUCCEEDED")))
	assert.Zero(t, testutil.ToFloat64(collector.activeWorkers))
}

func TestSetup_DisabledLeavesRegistryNil(t *testing.T) {
	resetGlobals(t)

	commands, err := Setup(config.MetricsConfig{Enabled: false})

	require.NoError(t, err)
	assert.Nil(t, commands)
	assert.False(t, IsEnabled())
}

func TestHandler_ExposesRegistry(t *testing.T) {
	resetGlobals(t)
	_, err := Setup(config.MetricsConfig{Enabled: true})
	require.NoError(t, err)
	RecordJobOutcome(batch.Outcome{Status: shared.LifecycleStatusSucceeded, Events: 1})

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "floodfill_batch_jobs_total"))
}

type pingQuery struct{}

func TestPrometheusMiddleware_LabelsOutcomes(t *testing.T) {
	// Arrange
	resetGlobals(t)
	InitRegistry()
	collector := NewCommandMetricsCollector()
	require.NoError(t, collector.Register())
	middleware := PrometheusMiddleware(collector)

	ok := func(ctx context.Context, request mediator.Request) (mediator.Response, error) { return "pong", nil }
	fail := func(ctx context.Context, request mediator.Request) (mediator.Response, error) { return nil, errors.New("boom") }
	reject := func(ctx context.Context, request mediator.Request) (mediator.Response, error) {
		return nil, shared.NewConfigError("adjacency", "unknown mode 6")
	}
	interrupted := func(ctx context.Context, request mediator.Request) (mediator.Response, error) {
		return "partial", fmt.Errorf("batch interrupted: %w", context.Canceled)
	}

	// Act
	_, _ = middleware(context.Background(), &pingQuery{}, ok)
	_, _ = middleware(context.Background(), &pingQuery{}, fail)
	_, _ = middleware(context.Background(), &pingQuery{}, reject)
	resp, err := middleware(context.Background(), &pingQuery{}, interrupted)

	// Assert
	assert.Equal(t, "partial", resp)
	assert.ErrorIs(t, err, context.Canceled)
	for _, outcome := range []string{"ok", "error", shared.KindConfigError, shared.KindCanceled} {
		assert.Equal(t, 1.0, testutil.ToFloat64(collector.requests.WithLabelValues("pingQuery", outcome)), outcome)
	}
	assert.Zero(t, testutil.ToFloat64(collector.inFlight.WithLabelValues("pingQuery")))
}

func TestPrometheusMiddleware_NilCollectorPassesThrough(t *testing.T) {
	middleware := PrometheusMiddleware(nil)

	resp, err := middleware(context.Background(), &pingQuery{}, func(ctx context.Context, request mediator.Request) (mediator.Response, error) {
		return "pong", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "pong", resp)
}

func TestRequestName(t *testing.T) {
	assert.Equal(t, "pingQuery", requestName(&pingQuery{}))
	assert.Equal(t, "pingQuery", requestName(pingQuery{}))
	assert.Equal(t, "unknown", requestName(nil))
}
