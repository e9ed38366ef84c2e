package dashboard

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/leadpilot/pilot/internal/client"
	"github.com/leadpilot/pilot/internal/session"
	"github.com/leadpilot/pilot/internal/watcher"
)

// sessionChangedMsg tells the model to re-read one session.
type sessionChangedMsg struct {
	kind client.JobKind
}

// watcherChangedMsg tells the model to re-read the connection and counter.
type watcherChangedMsg struct{}

// Relay forwards change callbacks from the sessions and the watcher into a
// running program. Callbacks fire on poller goroutines and may arrive out of
// order, so only the fact of a change is sent; the model re-reads current state.
type Relay struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

// NewRelay returns a relay that drops notifications until attached.
func NewRelay() *Relay {
	return &Relay{}
}

// Attach starts delivering notifications to p.
func (r *Relay) Attach(p *tea.Program) {
	r.attach(p.Send)
}

func (r *Relay) attach(send func(tea.Msg)) {
	r.mu.Lock()
	r.send = send
	r.mu.Unlock()
}

// Detach stops delivery.
func (r *Relay) Detach() {
	r.attach(nil)
}

// SessionChanged is a session.Options.OnChange callback.
func (r *Relay) SessionChanged(snap session.Snapshot) {
	r.deliver(sessionChangedMsg{kind: snap.Kind})
}

// WatcherChanged is a watcher.Options.OnChange callback.
func (r *Relay) WatcherChanged(watcher.Status) {
	r.deliver(watcherChangedMsg{})
}

func (r *Relay) deliver(msg tea.Msg) {
	r.mu.Lock()
	send := r.send
	r.mu.Unlock()

	if send != nil {
		send(msg)
	}
}
