package session

import (
	"errors"
	"fmt"

	"github.com/leadpilot/pilot/internal/client"
)

var (
	// ErrAlreadyRunning is matched by AlreadyRunningError.
	ErrAlreadyRunning = errors.New("job is already running")
	// ErrNotRunning is returned by Stop when no job is running.
	ErrNotRunning = errors.New("job is not running")
	// ErrNotTerminal is returned by Acknowledge when the session has not finished.
	ErrNotTerminal = errors.New("job has not finished")
	// ErrMissingConfig is returned when Start is called without job parameters.
	ErrMissingConfig = errors.New("job config is required")
	// ErrUnknownKind is returned by the coordinator for kinds it does not manage.
	ErrUnknownKind = errors.New("unknown job kind")
)

// AlreadyRunningError is returned when Start is called while a job is in flight.
type AlreadyRunningError struct {
	Kind  client.JobKind
	Phase Phase
}

// Error implements the error interface.
func (e *AlreadyRunningError) Error() string {
	return fmt.Sprintf("%s job is already %s", e.Kind, e.Phase)
}

// Is makes errors.Is(err, ErrAlreadyRunning) match.
func (e *AlreadyRunningError) Is(target error) bool {
	return target == ErrAlreadyRunning
}

// StartRejectedError is returned when the backend refuses or never receives a start request.
type StartRejectedError struct {
	Kind client.JobKind
	Err  error
}

// Error implements the error interface.
func (e *StartRejectedError) Error() string {
	return fmt.Sprintf("failed to start %s job: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying transport or API error.
func (e *StartRejectedError) Unwrap() error {
	return e.Err
}

// Reason returns the most useful human-readable cause, preferring the backend's detail text.
func (e *StartRejectedError) Reason() string {
	var apiErr *client.APIError
	if errors.As(e.Err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}

	return e.Err.Error()
}
