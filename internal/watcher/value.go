package watcher

import "sync"

// Stage tracks where a value came from.
type Stage int

// Value stages.
const (
	// StagePending means nothing is known yet.
	StagePending Stage = iota
	// StageProvisional means the value came from a client-side hint and awaits confirmation.
	StageProvisional
	// StageConfirmed means the backend reported the value.
	StageConfirmed
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StagePending:
		return "pending"
	case StageProvisional:
		return "provisional"
	case StageConfirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

// Value is a two-stage value: provisional until the backend confirms it.
type Value[T any] struct {
	mu    sync.Mutex
	value T
	stage Stage
}

// SetProvisional records an optimistic value. It is ignored once the value has
// been confirmed and reports whether it was applied.
func (v *Value[T]) SetProvisional(value T) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.stage == StageConfirmed {
		return false
	}

	v.value = value
	v.stage = StageProvisional

	return true
}

// Confirm records the authoritative value, overriding any provisional one.
func (v *Value[T]) Confirm(value T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.value = value
	v.stage = StageConfirmed
}

// Get returns the current value and its stage.
func (v *Value[T]) Get() (T, Stage) {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.value, v.stage
}
