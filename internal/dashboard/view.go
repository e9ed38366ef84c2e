package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/leadpilot/pilot/internal/client"
	"github.com/leadpilot/pilot/internal/session"
	"github.com/leadpilot/pilot/internal/watcher"
)

// Size used until the first WindowSizeMsg arrives.
const (
	defaultWidth  = 100
	defaultHeight = 30
)

// Rows used by everything except the log pane: header, tab bar, status line,
// banner, a blank separator, pane border and help.
const chromeRows = 8

var tabTitles = [tabCount]string{"Scrape", "WhatsApp", "Sheets"}

// layout resizes the forms and log panes to the window.
func (m *Model) layout() {
	m.help.Width = m.width

	for _, kind := range client.Kinds() {
		f := m.forms[kind]
		f.setWidth(m.width)

		paneHeight := m.height - chromeRows - f.height()
		if m.help.ShowAll {
			paneHeight -= 3
		}

		// Borders take two columns.
		m.panes[kind].resize(m.width-2, max(paneHeight, 3), m.styles)
	}
}

// View implements tea.Model.
func (m Model) View() string {
	sections := []string{m.headerView(), m.tabsView()}

	if kind, ok := m.active.kind(); ok {
		sections = append(sections, m.jobView(kind))
	} else {
		sections = append(sections, m.sheetsView())
	}

	sections = append(sections, m.help.View(m.keys))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) headerView() string {
	left := m.styles.title.Render("Pilot")
	right := m.connectionIndicator() + "  " + m.leadCounter()

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)

	return left + strings.Repeat(" ", gap) + right
}

func (m Model) connectionIndicator() string {
	st := m.styles

	switch {
	case m.connection.Stage == watcher.StagePending:
		return st.muted.Render("○ Sheets: checking")
	case !m.connection.Connected:
		return st.bad.Render("● Sheets: not connected")
	case m.connection.Stage == watcher.StageProvisional:
		return st.highlight.Render("● Sheets: connected (confirming)")
	default:
		return st.good.Render("● Sheets: connected")
	}
}

func (m Model) leadCounter() string {
	if !m.connection.LeadCountKnown {
		return m.styles.muted.Render("Leads: -")
	}

	return m.styles.plain.Render(fmt.Sprintf("Leads: %d", m.connection.LeadCount))
}

func (m Model) tabsView() string {
	tabs := make([]string, 0, tabCount)

	for t := range tabCount {
		title := tabTitles[t]

		if kind, ok := t.kind(); ok && m.sessions[kind].Phase.Active() {
			title += " " + m.spinner.View()
		}

		if t == m.active {
			tabs = append(tabs, m.styles.tabActive.Render(title))
		} else {
			tabs = append(tabs, m.styles.tabInactive.Render(title))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) jobView(kind client.JobKind) string {
	snap := m.sessions[kind]
	rows := []string{m.statusLine(kind, snap)}

	switch {
	case m.banners[kind] != "":
		rows = append(rows, m.styles.banner.Render("✗ "+m.banners[kind]))
	case snap.LastError != "" && snap.Phase == session.PhaseRunning:
		rows = append(rows, m.styles.notice.Render("⚠ "+snap.LastError))
	default:
		rows = append(rows, "")
	}

	if m.editable(kind) {
		rows = append(rows, m.forms[kind].view(m.styles))
	} else {
		rows = append(rows, m.configSummary(snap))
	}

	rows = append(rows, m.styles.pane.Render(m.panes[kind].view()))

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) statusLine(kind client.JobKind, snap session.Snapshot) string {
	label := snap.StatusLabel()
	if pending, ok := m.pending[kind]; ok {
		label = pending
	}

	parts := []string{m.styles.badge(label).Render(label)}

	if snap.Phase.Active() {
		parts = append(parts, m.spinner.View())
	}

	if elapsed := snap.Elapsed(m.now); elapsed > 0 {
		parts = append(parts, m.styles.muted.Render(elapsed.Truncate(time.Second).String()))
	}

	if snap.Recovered {
		parts = append(parts, m.styles.muted.Render("(resumed)"))
	}

	if snap.Phase == session.PhaseTerminal {
		parts = append(parts, m.styles.muted.Render("^s to run again, ^l to clear"))
	}

	return strings.Join(parts, " ")
}

// configSummary describes the running job's parameters in one line.
func (m Model) configSummary(snap session.Snapshot) string {
	var summary string

	switch cfg := snap.Config.(type) {
	case client.ScrapeConfig:
		where := strings.Trim(strings.Join([]string{cfg.City, cfg.Country}, ", "), ", ")
		summary = fmt.Sprintf("Keywords: %s  Location: %s  Limit: %d", cfg.Keywords, valueOr(where, "-"), cfg.Limit)
	case client.MessagingConfig:
		summary = fmt.Sprintf("Daily limit: %d  Template: %s", cfg.Limit, firstLine(cfg.MessageTemplate))
	default:
		summary = "Job started outside this dashboard"
	}

	return m.styles.muted.Render(ansi.Truncate(summary, max(m.width, 10), "…"))
}

func (m Model) sheetsView() string {
	st := m.styles
	status := m.connection

	var connected string

	switch {
	case status.Stage == watcher.StagePending:
		connected = st.muted.Render("checking...")
	case status.Connected && status.Stage == watcher.StageConfirmed:
		connected = st.good.Render("connected")
	case status.Connected:
		connected = st.highlight.Render("connected (waiting for backend confirmation)")
	default:
		connected = st.bad.Render("not connected")
	}

	leads := "-"
	if status.LeadCountKnown {
		leads = fmt.Sprintf("%d (updated %s)", status.LeadCount, status.LeadsUpdatedAt.Format("15:04:05"))
	}

	rows := []string{
		"",
		st.label.Render("Google Sheets  ") + connected,
		st.label.Render("Leads          ") + st.plain.Render(leads),
	}

	if status.CheckError != "" {
		rows = append(rows, st.notice.Render("⚠ Last check failed: "+status.CheckError))
	}

	rows = append(rows, "")

	if m.authURL != "" {
		rows = append(rows, st.label.Render("Connect link   ")+ansi.Truncate(m.authURL, max(m.width-15, 10), "…"))
	} else {
		rows = append(rows, st.muted.Render("Press enter to get a Google connection link."))
	}

	if m.sheetsNote != "" {
		rows = append(rows, "", st.notice.Render(m.sheetsNote))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}

	return s
}
