// Package watcher tracks the Google Sheets connection flag and the lead counter.
//
// The two are independent: the connection is resolved once against the
// backend, overriding any optimistic hint, while the lead count is refreshed on
// its own interval and keeps its previous value when a refresh fails.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/leadpilot/pilot/internal/observability"
	"github.com/leadpilot/pilot/internal/poller"
)

// DefaultLeadInterval is the lead counter refresh cadence.
const DefaultLeadInterval = 3 * time.Second

// Backend is the subset of the REST client the watcher needs.
type Backend interface {
	AuthURL(ctx context.Context) (string, error)
	AuthStatus(ctx context.Context) (bool, error)
	LeadCount(ctx context.Context) (int, error)
}

// Options configures a Watcher.
type Options struct {
	// LeadInterval defaults to DefaultLeadInterval.
	LeadInterval time.Duration
	Logger       *slog.Logger
	// OnChange is called after every state change.
	OnChange func(Status)
}

// Status is a point-in-time view of the watcher.
type Status struct {
	Connected bool
	Stage     Stage
	// LeadCount is meaningful only when LeadCountKnown is set.
	LeadCount      int
	LeadCountKnown bool
	LeadsUpdatedAt time.Time
	// CheckError is the last failed connection check, if any.
	CheckError string
}

// Watcher owns the connection value and the lead counter poller.
type Watcher struct {
	backend  Backend
	interval time.Duration
	logger   *slog.Logger
	onChange func(Status)

	// Test hooks.
	now   func() time.Time
	ticks func() <-chan time.Time

	connected Value[bool]

	mu             sync.Mutex
	leadCount      int
	leadCountKnown bool
	leadsUpdatedAt time.Time
	checkError     string
	handle         *poller.Handle
}

// New creates a watcher with a pending connection and unknown lead count.
func New(backend Backend, opts Options) *Watcher {
	interval := opts.LeadInterval
	if interval <= 0 {
		interval = DefaultLeadInterval
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		backend:  backend,
		interval: interval,
		logger:   logger.With(slog.String("component", "watcher")),
		onChange: opts.OnChange,
	}
}

// Status returns the current connection and counter state.
func (w *Watcher) Status() Status {
	connected, stage := w.connected.Get()

	w.mu.Lock()
	defer w.mu.Unlock()

	return Status{
		Connected:      connected,
		Stage:          stage,
		LeadCount:      w.leadCount,
		LeadCountKnown: w.leadCountKnown,
		LeadsUpdatedAt: w.leadsUpdatedAt,
		CheckError:     w.checkError,
	}
}

// Hint records a connection flag carried by an OAuth redirect. It stays
// provisional until CheckConnection confirms or overrides it.
func (w *Watcher) Hint(connected bool) {
	if w.connected.SetProvisional(connected) {
		w.logger.Debug("provisional connection hint", slog.Bool("connected", connected))
		w.notify()
	}
}

// CheckConnection asks the backend for the authoritative connection flag.
// On failure the current value and stage are kept.
func (w *Watcher) CheckConnection(ctx context.Context) (err error) {
	ctx, span := observability.Tracer("pilot.watcher").Start(ctx, "watcher.check_connection")
	defer func() { observability.EndSpan(span, err) }()

	connected, err := w.backend.AuthStatus(ctx)
	if err != nil {
		w.mu.Lock()
		w.checkError = err.Error()
		w.mu.Unlock()
		w.notify()

		return fmt.Errorf("check sheets connection: %w", err)
	}

	w.connected.Confirm(connected)

	w.mu.Lock()
	w.checkError = ""
	w.mu.Unlock()

	w.logger.Info("sheets connection confirmed", slog.Bool("connected", connected))
	w.notify()

	return nil
}

// RefreshLeads fetches the lead count once. A failure leaves the previous count in place.
func (w *Watcher) RefreshLeads(ctx context.Context) error {
	count, err := w.backend.LeadCount(ctx)
	if err != nil {
		w.logger.Debug("lead count refresh failed", slog.String("error", err.Error()))
		return fmt.Errorf("fetch lead count: %w", err)
	}

	w.applyLeadCount(count)

	return nil
}

// Start begins periodic lead count refreshes. Calling it while already polling is a no-op.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.handle.Active() {
		return nil
	}

	opts := poller.Options[int]{
		Interval: w.interval,
		Fetch:    w.backend.LeadCount,
		OnResult: func(count int) poller.Decision {
			w.applyLeadCount(count)
			return poller.Continue
		},
		OnError: func(err error) {
			w.logger.Debug("lead count refresh failed", slog.String("error", err.Error()))
		},
	}

	if w.ticks != nil {
		opts.Ticks = w.ticks()
	}

	handle, err := poller.Start(ctx, opts)
	if err != nil {
		return fmt.Errorf("start lead counter: %w", err)
	}

	w.handle = handle

	return nil
}

// Stop ends lead count refreshes.
func (w *Watcher) Stop() {
	w.mu.Lock()
	handle := w.handle
	w.handle = nil
	w.mu.Unlock()

	handle.Stop()
}

// AuthURL returns the OAuth URL that starts the Google Sheets connection flow.
func (w *Watcher) AuthURL(ctx context.Context) (string, error) {
	url, err := w.backend.AuthURL(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch sheets auth url: %w", err)
	}

	return url, nil
}

func (w *Watcher) applyLeadCount(count int) {
	w.mu.Lock()
	changed := !w.leadCountKnown || w.leadCount != count
	w.leadCount = count
	w.leadCountKnown = true
	w.leadsUpdatedAt = w.currentTime()
	w.mu.Unlock()

	if changed {
		w.notify()
	}
}

func (w *Watcher) notify() {
	if w.onChange != nil {
		w.onChange(w.Status())
	}
}

func (w *Watcher) currentTime() time.Time {
	if w.now != nil {
		return w.now()
	}

	return time.Now()
}
