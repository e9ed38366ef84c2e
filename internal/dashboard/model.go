// Package dashboard is the interactive terminal view over the job sessions and
// the Google Sheets watcher. It renders state and forwards user intents; all
// lifecycle rules live in the session and watcher packages.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/leadpilot/pilot/internal/client"
	"github.com/leadpilot/pilot/internal/session"
	"github.com/leadpilot/pilot/internal/watcher"
)

// Jobs is the session coordinator as seen by the dashboard.
type Jobs interface {
	Start(ctx context.Context, kind client.JobKind, cfg any) error
	Stop(ctx context.Context, kind client.JobKind) error
	Acknowledge(kind client.JobKind) error
	Snapshot(kind client.JobKind) (session.Snapshot, error)
	Reconcile(ctx context.Context) error
}

// Connection is the Sheets watcher as seen by the dashboard.
type Connection interface {
	Status() watcher.Status
	AuthURL(ctx context.Context) (string, error)
	CheckConnection(ctx context.Context) error
	RefreshLeads(ctx context.Context) error
}

// Options configures a Model.
type Options struct {
	Jobs       Jobs
	Connection Connection
	// Default limits prefilled in the forms.
	ScrapeLimit    int
	MessagingLimit int
	Logger         *slog.Logger
	// Copy writes to the system clipboard. Defaults to clipboard.WriteAll.
	Copy func(string) error
}

type tab int

const (
	tabScrape tab = iota
	tabMessaging
	tabSheets
	tabCount
)

func (t tab) kind() (client.JobKind, bool) {
	switch t {
	case tabScrape:
		return client.KindScrape, true
	case tabMessaging:
		return client.KindMessaging, true
	default:
		return "", false
	}
}

// Result messages from commands.
type (
	startDoneMsg struct {
		kind client.JobKind
		err  error
	}
	stopDoneMsg struct {
		kind client.JobKind
		err  error
	}
	ackDoneMsg struct {
		kind client.JobKind
		err  error
	}
	reconcileDoneMsg struct{ err error }
	authURLMsg       struct {
		url string
		err error
	}
	connectionCheckedMsg struct{ err error }
	clockMsg             time.Time
)

// Model is the bubbletea model of the dashboard.
type Model struct {
	ctx    context.Context
	jobs   Jobs
	conn   Connection
	logger *slog.Logger
	copy   func(string) error

	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	styles  styles

	width  int
	height int
	now    time.Time
	active tab

	sessions map[client.JobKind]session.Snapshot
	forms    map[client.JobKind]*form
	panes    map[client.JobKind]*logPane
	// pending holds the label of an outstanding start or stop request.
	pending map[client.JobKind]string
	banners map[client.JobKind]string

	connection watcher.Status
	authURL    string
	sheetsNote string
}

// New builds the model. The current session and watcher state is read once so
// the first frame is accurate.
func New(ctx context.Context, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	copyFn := opts.Copy
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	m := Model{
		ctx:     ctx,
		jobs:    opts.Jobs,
		conn:    opts.Connection,
		logger:  logger.With(slog.String("component", "dashboard")),
		copy:    copyFn,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		styles:  defaultStyles(),
		width:   defaultWidth,
		height:  defaultHeight,
		now:     time.Now(),
		forms: map[client.JobKind]*form{
			client.KindScrape:    newScrapeForm(opts.ScrapeLimit),
			client.KindMessaging: newMessagingForm(opts.MessagingLimit),
		},
		sessions: make(map[client.JobKind]session.Snapshot),
		panes:    make(map[client.JobKind]*logPane),
		pending:  make(map[client.JobKind]string),
		banners:  make(map[client.JobKind]string),
	}

	for _, kind := range client.Kinds() {
		m.panes[kind] = newLogPane(kind)
		m.refreshSession(kind)
	}

	m.connection = m.conn.Status()
	m.layout()
	m.syncFocus()

	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.reconcileCmd(),
		m.checkConnectionCmd(),
		clockCmd(),
		m.forms[client.KindScrape].focusCurrent(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()

		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case sessionChangedMsg:
		m.refreshSession(msg.kind)
		return m, m.syncFocus()

	case watcherChangedMsg:
		m.connection = m.conn.Status()
		return m, nil

	case startDoneMsg:
		delete(m.pending, msg.kind)

		if msg.err != nil {
			m.banners[msg.kind] = describeStartError(msg.err)
			m.logger.Warn("start failed", slog.String("job.kind", string(msg.kind)), slog.String("error", msg.err.Error()))
		}

		m.refreshSession(msg.kind)

		return m, m.syncFocus()

	case stopDoneMsg:
		delete(m.pending, msg.kind)
		m.refreshSession(msg.kind)

		switch snap := m.sessions[msg.kind]; {
		case msg.err != nil:
			m.banners[msg.kind] = msg.err.Error()
		case snap.StopError == client.ErrStopUnsupported.Error():
			m.banners[msg.kind] = "Supervision stopped; the backend cannot stop this job remotely"
		case snap.StopError != "":
			m.banners[msg.kind] = "Remote stop failed: " + snap.StopError
		}

		return m, m.syncFocus()

	case ackDoneMsg:
		delete(m.pending, msg.kind)

		if msg.err != nil {
			m.banners[msg.kind] = msg.err.Error()
		} else {
			delete(m.banners, msg.kind)
		}

		m.refreshSession(msg.kind)

		return m, m.syncFocus()

	case reconcileDoneMsg:
		if msg.err != nil {
			for _, kind := range client.Kinds() {
				m.banners[kind] = "Could not check for running jobs: " + msg.err.Error()
			}
		}

		for _, kind := range client.Kinds() {
			m.refreshSession(kind)
		}

		return m, m.syncFocus()

	case authURLMsg:
		if msg.err != nil {
			m.sheetsNote = "Could not get a connection link: " + msg.err.Error()
			return m, nil
		}

		m.authURL = msg.url
		m.sheetsNote = "Open the link in a browser, then press ^r to refresh"

		return m, nil

	case connectionCheckedMsg:
		m.connection = m.conn.Status()
		if msg.err != nil {
			m.sheetsNote = msg.err.Error()
		}

		return m, nil

	case clockMsg:
		m.now = time.Time(msg)
		return m, clockCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd

		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	if kind, ok := m.active.kind(); ok {
		return m, m.panes[kind].update(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()

		return m, nil
	case key.Matches(msg, m.keys.NextTab):
		m.active = (m.active + 1) % tabCount
		return m, m.syncFocus()
	case key.Matches(msg, m.keys.PrevTab):
		m.active = (m.active + tabCount - 1) % tabCount
		return m, m.syncFocus()
	}

	kind, ok := m.active.kind()
	if !ok {
		return m.handleSheetsKey(msg)
	}

	f := m.forms[kind]

	switch {
	case key.Matches(msg, m.keys.Start):
		return m, m.start(kind)
	case key.Matches(msg, m.keys.Stop):
		return m, m.stop(kind)
	case key.Matches(msg, m.keys.Clear):
		return m, m.acknowledge(kind)
	case key.Matches(msg, m.keys.Follow):
		m.panes[kind].resumeFollow()
		return m, nil
	}

	if !m.editable(kind) {
		return m, m.panes[kind].update(msg)
	}

	switch {
	case key.Matches(msg, m.keys.NextField):
		return m, f.next()
	case key.Matches(msg, m.keys.PrevField):
		return m, f.prev()
	case msg.Type == tea.KeyPgUp || msg.Type == tea.KeyPgDown:
		return m, m.panes[kind].update(msg)
	}

	return m, f.update(msg)
}

func (m Model) handleSheetsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Connect):
		m.sheetsNote = "Requesting connection link..."
		return m, m.authURLCmd()
	case key.Matches(msg, m.keys.Copy):
		if m.authURL == "" {
			m.sheetsNote = "Press enter to get a connection link first"
			return m, nil
		}

		if err := m.copy(m.authURL); err != nil {
			m.sheetsNote = "Clipboard unavailable: " + err.Error()
		} else {
			m.sheetsNote = "Link copied to clipboard"
		}

		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		m.sheetsNote = ""
		return m, m.checkConnectionCmd()
	}

	return m, nil
}

// start validates the form and issues the start request.
func (m Model) start(kind client.JobKind) tea.Cmd {
	if _, busy := m.pending[kind]; busy || m.sessions[kind].Phase.Active() {
		return nil
	}

	cfg, err := m.forms[kind].config()
	if err != nil {
		return nil
	}

	delete(m.banners, kind)
	m.pending[kind] = "Starting"
	m.panes[kind].resumeFollow()
	m.forms[kind].blur()

	ctx, jobs := m.ctx, m.jobs

	return func() tea.Msg {
		return startDoneMsg{kind: kind, err: jobs.Start(ctx, kind, cfg)}
	}
}

func (m Model) stop(kind client.JobKind) tea.Cmd {
	if _, busy := m.pending[kind]; busy || m.sessions[kind].Phase != session.PhaseRunning {
		return nil
	}

	delete(m.banners, kind)
	m.pending[kind] = "Stopping"

	ctx, jobs := m.ctx, m.jobs

	return func() tea.Msg {
		return stopDoneMsg{kind: kind, err: jobs.Stop(ctx, kind)}
	}
}

// acknowledge clears a terminal session off the Update goroutine, since the
// session's change notification is delivered back into this program.
func (m Model) acknowledge(kind client.JobKind) tea.Cmd {
	if _, busy := m.pending[kind]; busy || m.sessions[kind].Phase != session.PhaseTerminal {
		return nil
	}

	m.pending[kind] = "Clearing"

	jobs := m.jobs

	return func() tea.Msg {
		return ackDoneMsg{kind: kind, err: jobs.Acknowledge(kind)}
	}
}

func (m Model) reconcileCmd() tea.Cmd {
	ctx, jobs := m.ctx, m.jobs

	return func() tea.Msg {
		return reconcileDoneMsg{err: jobs.Reconcile(ctx)}
	}
}

func (m Model) checkConnectionCmd() tea.Cmd {
	ctx, conn := m.ctx, m.conn

	return func() tea.Msg {
		err := conn.CheckConnection(ctx)
		if leadErr := conn.RefreshLeads(ctx); leadErr != nil && err == nil {
			err = leadErr
		}

		return connectionCheckedMsg{err: err}
	}
}

func (m Model) authURLCmd() tea.Cmd {
	ctx, conn := m.ctx, m.conn

	return func() tea.Msg {
		url, err := conn.AuthURL(ctx)
		return authURLMsg{url: url, err: err}
	}
}

func clockCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}

// refreshSession re-reads one session and updates its log pane.
func (m Model) refreshSession(kind client.JobKind) {
	snap, err := m.jobs.Snapshot(kind)
	if err != nil {
		m.logger.Error("read session", slog.String("job.kind", string(kind)), slog.String("error", err.Error()))
		return
	}

	m.sessions[kind] = snap
	m.panes[kind].setLines(snap.Logs, m.styles)
}

// editable reports whether the form of kind accepts input.
func (m Model) editable(kind client.JobKind) bool {
	if _, busy := m.pending[kind]; busy {
		return false
	}

	phase := m.sessions[kind].Phase

	return phase == session.PhaseIdle || phase == session.PhaseTerminal
}

// syncFocus focuses the form on the active tab when it is editable and blurs the others.
func (m Model) syncFocus() tea.Cmd {
	var cmd tea.Cmd

	for _, kind := range client.Kinds() {
		f := m.forms[kind]

		if active, _ := m.active.kind(); active == kind && m.editable(kind) {
			cmd = f.focusCurrent()
		} else {
			f.blur()
		}
	}

	return cmd
}

func describeStartError(err error) string {
	var rejected *session.StartRejectedError

	switch {
	case errors.As(err, &rejected):
		return "Start rejected: " + rejected.Reason()
	case errors.Is(err, session.ErrAlreadyRunning):
		return "A job of this kind is already running"
	default:
		return fmt.Sprintf("Start failed: %v", err)
	}
}
