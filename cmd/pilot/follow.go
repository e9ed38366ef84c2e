package main

import (
	"context"
	"slices"

	"github.com/charmbracelet/x/ansi"

	"github.com/leadpilot/pilot/internal/classify"
	"github.com/leadpilot/pilot/internal/client"
	"github.com/leadpilot/pilot/internal/output"
	"github.com/leadpilot/pilot/internal/session"
)

// follower prints the lines a session gained since the previous snapshot.
// Every poll replaces the whole log list, so new lines are found by diffing.
type follower struct {
	out     *output.Writer
	kind    client.JobKind
	printed []string
}

func newFollower(out *output.Writer, kind client.JobKind) *follower {
	return &follower{out: out, kind: kind}
}

func (f *follower) show(logs []string) {
	if f.out.JSON {
		return
	}

	for _, line := range unseenLines(f.printed, logs) {
		f.out.Line(lineTone(f.kind, line), ansi.Strip(line))
	}

	f.printed = slices.Clone(logs)
}

// unseenLines returns the part of next not already shown from prev. A shared
// prefix is skipped; otherwise the longest suffix of prev that starts next is
// skipped, which covers backends that trim old lines from the front.
func unseenLines(prev, next []string) []string {
	common := 0
	for common < len(prev) && common < len(next) && prev[common] == next[common] {
		common++
	}

	if common > 0 {
		return next[common:]
	}

	for k := min(len(prev), len(next)); k > 0; k-- {
		if slices.Equal(prev[len(prev)-k:], next[:k]) {
			return next[k:]
		}
	}

	return next
}

func lineTone(kind client.JobKind, line string) output.Tone {
	switch classify.LineSeverity(kind, line) {
	case classify.Bad:
		return output.ToneError
	case classify.Good:
		return output.ToneSuccess
	case classify.Heading:
		return output.ToneHeading
	case classify.Highlight:
		return output.ToneHighlight
	default:
		return output.ToneNormal
	}
}

// follow streams the controller's logs until the session is Terminal or ctx
// ends. It returns the last snapshot seen.
func follow(ctx context.Context, ctrl *session.Controller, changed <-chan struct{}, f *follower) session.Snapshot {
	for {
		snap := ctrl.Snapshot()
		f.show(snap.Logs)

		if !snap.Phase.Active() {
			return snap
		}

		select {
		case <-ctx.Done():
			return ctrl.Snapshot()
		case <-changed:
		}
	}
}

// changeSignal returns an OnChange callback and the channel it pulses. The
// channel holds at most one pending signal; the reader re-reads the snapshot.
func changeSignal() (func(session.Snapshot), <-chan struct{}) {
	ch := make(chan struct{}, 1)

	return func(session.Snapshot) {
		select {
		case ch <- struct{}{}:
		default:
		}
	}, ch
}
