package shared

import (
	"fmt"
	"time"
)

// LifecycleStatus represents the state of a batch run or job in its lifecycle
type LifecycleStatus string

const (
	// LifecycleStatusPending indicates the entity is enqueued but not picked up
	LifecycleStatusPending LifecycleStatus = "PENDING"

	// LifecycleStatusRunning indicates a worker is processing the entity
	LifecycleStatusRunning LifecycleStatus = "RUNNING"

	// LifecycleStatusSucceeded indicates the entity finished and its output was written
	LifecycleStatusSucceeded LifecycleStatus = "SUCCEEDED"

	// LifecycleStatusFailed indicates the entity recorded an error
	LifecycleStatusFailed LifecycleStatus = "FAILED"

	// LifecycleStatusCanceled indicates the entity was abandoned before producing output
	LifecycleStatusCanceled LifecycleStatus = "CANCELED"
)

// IsTerminal reports whether no further transitions are allowed from s
func (s LifecycleStatus) IsTerminal() bool {
	return s == LifecycleStatusSucceeded || s == LifecycleStatusFailed || s == LifecycleStatusCanceled
}

// LifecycleStateMachine manages the PENDING → RUNNING → SUCCEEDED/FAILED/CANCELED
// transitions shared by batch runs and jobs.
//
// Invariants:
// - Terminal states never transition again
// - Timestamps come from the injected Clock
type LifecycleStateMachine struct {
	status    LifecycleStatus
	createdAt time.Time
	updatedAt time.Time
	startedAt *time.Time
	stoppedAt *time.Time
	lastError error
	clock     Clock
}

// NewLifecycleStateMachine creates a new lifecycle state machine in PENDING state
func NewLifecycleStateMachine(clock Clock) *LifecycleStateMachine {
	if clock == nil {
		clock = NewRealClock()
	}

	now := clock.Now()
	return &LifecycleStateMachine{
		status:    LifecycleStatusPending,
		createdAt: now,
		updatedAt: now,
		clock:     clock,
	}
}

// Getters

func (sm *LifecycleStateMachine) Status() LifecycleStatus { return sm.status }
func (sm *LifecycleStateMachine) CreatedAt() time.Time    { return sm.createdAt }
func (sm *LifecycleStateMachine) UpdatedAt() time.Time    { return sm.updatedAt }
func (sm *LifecycleStateMachine) StartedAt() *time.Time   { return sm.startedAt }
func (sm *LifecycleStateMachine) StoppedAt() *time.Time   { return sm.stoppedAt }
func (sm *LifecycleStateMachine) LastError() error        { return sm.lastError }

// State transition methods

// Start transitions from PENDING to RUNNING state
func (sm *LifecycleStateMachine) Start() error {
	if sm.status != LifecycleStatusPending {
		return fmt.Errorf("cannot start from %s state", sm.status)
	}

	now := sm.clock.Now()
	sm.status = LifecycleStatusRunning
	sm.startedAt = &now
	sm.updatedAt = now
	return nil
}

// Succeed transitions from RUNNING to SUCCEEDED state
func (sm *LifecycleStateMachine) Succeed() error {
	if sm.status != LifecycleStatusRunning {
		return fmt.Errorf("cannot succeed from %s state", sm.status)
	}

	sm.finish(LifecycleStatusSucceeded, nil)
	return nil
}

// Fail transitions to FAILED state with an error.
// A pending entity may fail directly, e.g. when its dispatch is refused.
func (sm *LifecycleStateMachine) Fail(err error) error {
	if sm.status.IsTerminal() {
		return fmt.Errorf("cannot fail from %s state", sm.status)
	}

	sm.finish(LifecycleStatusFailed, err)
	return nil
}

// Cancel transitions to CANCELED state, recording the cancellation cause
func (sm *LifecycleStateMachine) Cancel(cause error) error {
	if sm.status.IsTerminal() {
		return fmt.Errorf("cannot cancel from %s state", sm.status)
	}

	sm.finish(LifecycleStatusCanceled, cause)
	return nil
}

func (sm *LifecycleStateMachine) finish(status LifecycleStatus, err error) {
	now := sm.clock.Now()
	sm.status = status
	sm.lastError = err
	sm.stoppedAt = &now
	sm.updatedAt = now
}

// State query methods

func (sm *LifecycleStateMachine) IsPending() bool  { return sm.status == LifecycleStatusPending }
func (sm *LifecycleStateMachine) IsRunning() bool  { return sm.status == LifecycleStatusRunning }
func (sm *LifecycleStateMachine) IsFinished() bool { return sm.status.IsTerminal() }

// RuntimeDuration calculates how long the entity has been/was running
// Returns 0 if not started yet
func (sm *LifecycleStateMachine) RuntimeDuration() time.Duration {
	if sm.startedAt == nil {
		return 0
	}

	endTime := sm.clock.Now()
	if sm.stoppedAt != nil {
		endTime = *sm.stoppedAt
	}

	return endTime.Sub(*sm.startedAt)
}

// RecoverFromPersistence restores the complete lifecycle state from persisted data
// This should only be used when reconstructing entities from storage
func (sm *LifecycleStateMachine) RecoverFromPersistence(
	status LifecycleStatus,
	createdAt, updatedAt time.Time,
	startedAt, stoppedAt *time.Time,
	lastError error,
) {
	sm.status = status
	sm.createdAt = createdAt
	sm.updatedAt = updatedAt
	sm.startedAt = startedAt
	sm.stoppedAt = stoppedAt
	sm.lastError = lastError
}
