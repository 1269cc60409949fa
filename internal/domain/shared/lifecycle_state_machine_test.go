package shared_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
)

func TestLifecycleStateMachine_SuccessPath(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	sm := shared.NewLifecycleStateMachine(clock)

	// Act
	require.NoError(t, sm.Start())
	clock.Advance(3 * time.Second)
	require.NoError(t, sm.Succeed())

	// Assert
	assert.Equal(t, shared.LifecycleStatusSucceeded, sm.Status())
	assert.True(t, sm.IsFinished())
	assert.Equal(t, 3*time.Second, sm.RuntimeDuration())
	assert.Nil(t, sm.LastError())
}

func TestLifecycleStateMachine_FailRecordsError(t *testing.T) {
	clock := shared.NewMockClock(time.Time{})
	sm := shared.NewLifecycleStateMachine(clock)
	cause := errors.New("disk gone")

	require.NoError(t, sm.Start())
	require.NoError(t, sm.Fail(cause))

	assert.Equal(t, shared.LifecycleStatusFailed, sm.Status())
	assert.Equal(t, cause, sm.LastError())
}

func TestLifecycleStateMachine_TerminalStatesAreFinal(t *testing.T) {
	sm := shared.NewLifecycleStateMachine(shared.NewMockClock(time.Time{}))
	require.NoError(t, sm.Start())
	require.NoError(t, sm.Succeed())

	assert.Error(t, sm.Fail(errors.New("late")))
	assert.Error(t, sm.Cancel(errors.New("late")))
	assert.Error(t, sm.Start())
	assert.Equal(t, shared.LifecycleStatusSucceeded, sm.Status())
}

func TestLifecycleStateMachine_CancelFromPending(t *testing.T) {
	sm := shared.NewLifecycleStateMachine(shared.NewMockClock(time.Time{}))

	require.NoError(t, sm.Cancel(errors.New("shutdown")))

	assert.Equal(t, shared.LifecycleStatusCanceled, sm.Status())
	assert.Zero(t, sm.RuntimeDuration())
}

func TestLifecycleStateMachine_SucceedRequiresRunning(t *testing.T) {
	sm := shared.NewLifecycleStateMachine(shared.NewMockClock(time.Time{}))

	err := sm.Succeed()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "PENDING")
}
