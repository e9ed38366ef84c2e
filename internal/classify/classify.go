// Package classify infers job outcomes and display severity from backend log text.
package classify

import (
	"strings"

	"github.com/leadpilot/pilot/internal/client"
)

// Verdict is the outcome inferred from a status snapshot.
type Verdict int

const (
	// Indeterminate means no terminal signal was found; the job is still running.
	Indeterminate Verdict = iota
	// Success means the job finished (or was stopped) without failing.
	Success
	// Failure means the job ended with an error.
	Failure
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case Indeterminate:
		return "indeterminate"
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// Terminal reports whether the verdict ends supervision.
func (v Verdict) Terminal() bool {
	return v == Success || v == Failure
}

// marker is a substring rule that maps a log line to a verdict.
type marker struct {
	text    string
	verdict Verdict
	// idleOnly restricts the marker to snapshots where the backend no longer reports the job running.
	idleOnly bool
}

// markers are checked in order; the first marker found anywhere in the snapshot wins.
// These strings mirror the backend's log phrasing and must follow it when it changes.
var markers = map[client.JobKind][]marker{
	client.KindScrape: {
		{text: "Done!", verdict: Success},
		{text: "Run aborted", verdict: Failure},
		{text: "Failed to initialize Google Sheet", verdict: Failure},
	},
	client.KindMessaging: {
		{text: "Complete", verdict: Success},
		// Per-row send errors are logged with ❌ while the run continues.
		{text: "❌", verdict: Failure, idleOnly: true},
	},
}

// Classify decides whether a status snapshot shows a terminal job.
//
// A structured phase reported by the backend is authoritative. Without one, the log
// lines are scanned for the kind's markers. Classify never modifies status.
func Classify(kind client.JobKind, status *client.JobStatus) Verdict {
	if status == nil {
		return Indeterminate
	}

	if status.Phase != "" {
		return fromPhase(status.Phase)
	}

	return Logs(kind, status.Logs, status.Status == client.StatusRunning)
}

// Logs scans a log snapshot for terminal markers. running is the backend's own
// running flag and gates markers that also appear mid-run.
func Logs(kind client.JobKind, logs []string, running bool) Verdict {
	for _, m := range markers[kind] {
		if m.idleOnly && running {
			continue
		}

		for _, line := range logs {
			if strings.Contains(line, m.text) {
				return m.verdict
			}
		}
	}

	return Indeterminate
}

func fromPhase(phase string) Verdict {
	switch phase {
	case client.PhaseSucceeded, client.PhaseStopped:
		return Success
	case client.PhaseFailed:
		return Failure
	default:
		return Indeterminate
	}
}
