package dashboard

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/leadpilot/pilot/internal/classify"
	"github.com/leadpilot/pilot/internal/client"
)

// EmptyLogText is shown in place of an empty log list.
const EmptyLogText = "No logs available. Ready to start."

// logPane is a scrollable view of one session's log list. It follows the
// tail until the user scrolls away from the bottom.
type logPane struct {
	kind   client.JobKind
	vp     viewport.Model
	lines  []string
	follow bool
}

func newLogPane(kind client.JobKind) *logPane {
	return &logPane{
		kind:   kind,
		vp:     viewport.New(0, 0),
		follow: true,
	}
}

func (p *logPane) resize(width, height int, st styles) {
	p.vp.Width = max(width, 1)
	p.vp.Height = max(height, 1)
	p.render(st)
}

// setLines replaces the content with a new full snapshot.
func (p *logPane) setLines(lines []string, st styles) {
	p.lines = lines
	p.render(st)
}

func (p *logPane) render(st styles) {
	p.vp.SetContent(renderLogs(p.kind, p.lines, p.vp.Width, st))

	if p.follow {
		p.vp.GotoBottom()
	}
}

func (p *logPane) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd

	p.vp, cmd = p.vp.Update(msg)
	p.follow = p.vp.AtBottom()

	return cmd
}

func (p *logPane) resumeFollow() {
	p.follow = true
	p.vp.GotoBottom()
}

func (p *logPane) view() string {
	return p.vp.View()
}

// renderLogs colours each line by severity and truncates it to width columns.
// Backend lines may carry their own escape sequences; those are stripped first.
func renderLogs(kind client.JobKind, lines []string, width int, st styles) string {
	if len(lines) == 0 {
		return st.muted.Render(EmptyLogText)
	}

	var b strings.Builder

	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}

		plain := ansi.Strip(line)
		if width > 0 && ansi.StringWidth(plain) > width {
			plain = ansi.Truncate(plain, width, "…")
		}

		b.WriteString(st.severity(classify.LineSeverity(kind, plain)).Render(plain))
	}

	return b.String()
}
