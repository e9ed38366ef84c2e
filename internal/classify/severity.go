package classify

import (
	"strings"

	"github.com/leadpilot/pilot/internal/client"
)

// Severity is the display level of a single log line.
type Severity int

// Severity levels, lowest first.
const (
	Plain Severity = iota
	Highlight
	Heading
	Good
	Bad
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case Plain:
		return "plain"
	case Highlight:
		return "highlight"
	case Heading:
		return "heading"
	case Good:
		return "success"
	case Bad:
		return "error"
	default:
		return "unknown"
	}
}

var (
	errorGlyphs   = []string{"Error", "❌"}
	successGlyphs = []string{"✅", "Done!", "🎉"}
)

// LineSeverity returns how a log line should be coloured in views.
func LineSeverity(kind client.JobKind, line string) Severity {
	switch {
	case containsAny(line, errorGlyphs...):
		return Bad
	case kind == client.KindMessaging && strings.Contains(line, "🛑"):
		return Bad
	case containsAny(line, successGlyphs...):
		return Good
	case strings.Contains(line, "═══"):
		return Heading
	case strings.Contains(line, "🚀"):
		return Highlight
	default:
		return Plain
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}

	return false
}
