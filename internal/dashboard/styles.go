package dashboard

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/leadpilot/pilot/internal/classify"
)

// Palette.
var (
	colorAccent  = lipgloss.Color("#7D56F4")
	colorGood    = lipgloss.Color("#04B575")
	colorBad     = lipgloss.Color("#FF5F87")
	colorWarn    = lipgloss.Color("#FFB86C")
	colorHeading = lipgloss.Color("#8BE9FD")
	colorMuted   = lipgloss.Color("241")
	colorText    = lipgloss.Color("252")
)

type styles struct {
	title       lipgloss.Style
	tabActive   lipgloss.Style
	tabInactive lipgloss.Style
	label       lipgloss.Style
	focusLabel  lipgloss.Style
	muted       lipgloss.Style
	banner      lipgloss.Style
	notice      lipgloss.Style
	pane        lipgloss.Style

	plain     lipgloss.Style
	good      lipgloss.Style
	bad       lipgloss.Style
	heading   lipgloss.Style
	highlight lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(colorAccent).Padding(0, 1),
		tabActive:   lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Underline(true).Padding(0, 1),
		tabInactive: lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 1),
		label:       lipgloss.NewStyle().Foreground(colorMuted),
		focusLabel:  lipgloss.NewStyle().Foreground(colorAccent).Bold(true),
		muted:       lipgloss.NewStyle().Foreground(colorMuted),
		banner:      lipgloss.NewStyle().Foreground(colorBad).Bold(true),
		notice:      lipgloss.NewStyle().Foreground(colorWarn),
		pane:        lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorMuted),

		plain:     lipgloss.NewStyle().Foreground(colorText),
		good:      lipgloss.NewStyle().Foreground(colorGood),
		bad:       lipgloss.NewStyle().Foreground(colorBad),
		heading:   lipgloss.NewStyle().Foreground(colorHeading).Bold(true),
		highlight: lipgloss.NewStyle().Foreground(colorWarn),
	}
}

func (s styles) severity(sev classify.Severity) lipgloss.Style {
	switch sev {
	case classify.Good:
		return s.good
	case classify.Bad:
		return s.bad
	case classify.Heading:
		return s.heading
	case classify.Highlight:
		return s.highlight
	default:
		return s.plain
	}
}

// badge renders the session status label.
func (s styles) badge(label string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch label {
	case "Running", "Starting", "Stopping":
		return base.Foreground(lipgloss.Color("#000000")).Background(colorWarn)
	case "Completed":
		return base.Foreground(lipgloss.Color("#000000")).Background(colorGood)
	case "Failed", "Stopped":
		return base.Foreground(lipgloss.Color("#FFFFFF")).Background(colorBad)
	default:
		return base.Foreground(colorText).Background(lipgloss.Color("238"))
	}
}
