package session

// Phase is the lifecycle position of a supervised job.
type Phase int

// Session phases.
const (
	PhaseIdle Phase = iota
	PhaseStarting
	PhaseRunning
	PhaseStoppingRequested
	PhaseTerminal
)

// String returns a human-readable phase label.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseStarting:
		return "starting"
	case PhaseRunning:
		return "running"
	case PhaseStoppingRequested:
		return "stopping"
	case PhaseTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Active reports whether a job is in flight (a start is pending, it runs, or a stop is pending).
func (p Phase) Active() bool {
	return p == PhaseStarting || p == PhaseRunning || p == PhaseStoppingRequested
}

// transitions lists every legal phase edge. Reconciliation adopts a running
// backend job directly from Idle; acknowledging a terminal session resets it.
var transitions = map[Phase][]Phase{
	PhaseIdle:              {PhaseStarting, PhaseRunning},
	PhaseStarting:          {PhaseRunning, PhaseIdle},
	PhaseRunning:           {PhaseTerminal, PhaseStoppingRequested},
	PhaseStoppingRequested: {PhaseTerminal},
	PhaseTerminal:          {PhaseStarting, PhaseIdle},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to Phase) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}

	return false
}
