package session

import (
	"time"

	"github.com/leadpilot/pilot/internal/classify"
	"github.com/leadpilot/pilot/internal/client"
)

// Snapshot is an immutable view of one job session consumed by renderers.
type Snapshot struct {
	// ID identifies the current run; empty before the first start.
	ID      string
	Kind    client.JobKind
	Phase   Phase
	Outcome classify.Verdict
	// Config is the opaque job parameters the run was started with.
	Config any
	// Logs is the latest full snapshot from the backend, plus any local lines.
	Logs []string

	LastError     string
	LastErrorTime time.Time

	StartedAt time.Time
	EndedAt   time.Time

	Polling   bool
	Stopped   bool
	Recovered bool
	StopError string
}

// StatusLabel summarises the session for status bars.
func (s Snapshot) StatusLabel() string {
	switch s.Phase {
	case PhaseTerminal:
		switch {
		case s.Stopped:
			return "Stopped"
		case s.Outcome == classify.Failure:
			return "Failed"
		default:
			return "Completed"
		}
	case PhaseStarting:
		return "Starting"
	case PhaseRunning:
		return "Running"
	case PhaseStoppingRequested:
		return "Stopping"
	default:
		return "Idle"
	}
}

// Elapsed returns how long the run has been (or was) active.
func (s Snapshot) Elapsed(now time.Time) time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}

	if !s.EndedAt.IsZero() {
		return s.EndedAt.Sub(s.StartedAt)
	}

	return now.Sub(s.StartedAt)
}
