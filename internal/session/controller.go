// Package session supervises remote backend jobs by polling their status.
//
// A Controller owns the lifecycle of one job kind: it issues the start and stop
// requests, polls the status endpoint while the job runs, replaces its log
// snapshot on every poll and hands the snapshot to the classifier to decide when
// the job has finished. A Coordinator holds one Controller per job kind.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/leadpilot/pilot/internal/classify"
	"github.com/leadpilot/pilot/internal/client"
	"github.com/leadpilot/pilot/internal/observability"
	"github.com/leadpilot/pilot/internal/poller"
)

// DefaultPollInterval is the status polling cadence for running jobs.
const DefaultPollInterval = 2 * time.Second

const tracerName = "pilot.session"

// Backend is the subset of the REST client the controller needs.
type Backend interface {
	StartJob(ctx context.Context, kind client.JobKind, cfg any) (*client.StartResponse, error)
	JobStatus(ctx context.Context, kind client.JobKind) (*client.JobStatus, error)
	StopJob(ctx context.Context, kind client.JobKind) (*client.StopResponse, error)
}

// Options configures a Controller.
type Options struct {
	// PollInterval defaults to DefaultPollInterval.
	PollInterval time.Duration
	Logger       *slog.Logger
	// OnChange is called outside the controller lock after every state change.
	OnChange func(Snapshot)
}

// Controller supervises one job kind.
type Controller struct {
	kind     client.JobKind
	backend  Backend
	interval time.Duration
	logger   *slog.Logger
	onChange func(Snapshot)
	// base scopes every poller this controller starts.
	base context.Context

	// Test hooks.
	now   func() time.Time
	ticks func() <-chan time.Time

	mu            sync.Mutex
	id            string
	phase         Phase
	outcome       classify.Verdict
	config        any
	logs          []string
	lastError     string
	lastErrorTime time.Time
	startedAt     time.Time
	endedAt       time.Time
	stopped       bool
	recovered     bool
	stopError     string
	handle        *poller.Handle
	// generation is bumped whenever the session leaves Running or a new run
	// begins, so results from an older run are recognised as stale.
	generation uint64
}

// New creates an idle controller for kind. ctx bounds all polling it starts.
func New(ctx context.Context, kind client.JobKind, backend Backend, opts Options) *Controller {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	logger := opts.Logger
	if logger == nil {
		logger = observability.FromContext(ctx)
	}

	return &Controller{
		kind:     kind,
		backend:  backend,
		interval: interval,
		logger:   logger.With(slog.String("job.kind", string(kind))),
		onChange: opts.OnChange,
		base:     ctx,
		phase:    PhaseIdle,
	}
}

// Kind returns the job kind this controller supervises.
func (c *Controller) Kind() client.JobKind {
	return c.kind
}

// Snapshot returns a consistent copy of the session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshotLocked()
}

// Start launches a new job. It fails with *AlreadyRunningError unless the
// session is Idle or Terminal. On a rejected start the session returns to Idle
// and a *StartRejectedError is returned.
func (c *Controller) Start(ctx context.Context, cfg any) error {
	if missingConfig(cfg) {
		return ErrMissingConfig
	}

	c.mu.Lock()

	if c.phase != PhaseIdle && c.phase != PhaseTerminal {
		phase := c.phase
		c.mu.Unlock()

		return &AlreadyRunningError{Kind: c.kind, Phase: phase}
	}

	c.resetLocked()
	c.id = uuid.NewString()
	c.config = cfg
	c.logs = []string{startPlaceholder(c.kind)}
	c.startedAt = c.currentTime()
	c.transitionLocked(PhaseStarting)
	gen := c.generation
	id := c.id
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	ctx, span := observability.Tracer(tracerName).Start(ctx, "session.start",
		trace.WithAttributes(
			attribute.String("job.kind", string(c.kind)),
			attribute.String("job.session_id", id),
		),
	)
	defer span.End()

	_, err := c.backend.StartJob(ctx, c.kind, cfg)

	c.mu.Lock()

	if gen != c.generation || c.phase != PhaseStarting {
		c.mu.Unlock()
		span.SetStatus(codes.Error, "superseded")

		return fmt.Errorf("%s start superseded", c.kind)
	}

	if err != nil {
		rejected := &StartRejectedError{Kind: c.kind, Err: err}

		c.logs = nil
		c.config = nil
		c.setLastErrorLocked(rejected.Reason())
		c.transitionLocked(PhaseIdle)
		snap = c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snap)

		span.RecordError(err)
		span.SetStatus(codes.Error, "start rejected")
		c.logger.Warn("job start rejected",
			slog.String("job.session_id", id),
			slog.String("error", err.Error()),
		)

		return rejected
	}

	c.transitionLocked(PhaseRunning)

	if pollErr := c.startPollingLocked(gen); pollErr != nil {
		c.setLastErrorLocked(pollErr.Error())
	}

	snap = c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	span.SetStatus(codes.Ok, "")
	c.logger.Info("job started", slog.String("job.session_id", id))

	return nil
}

// Stop ends supervision of a running job. The remote stop request is best
// effort: the session becomes Terminal(Success) whether or not the backend
// acknowledges it, and any remote error is recorded in Snapshot.StopError.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()

	if c.phase != PhaseRunning {
		phase := c.phase
		c.mu.Unlock()

		return fmt.Errorf("%w: %s job is %s", ErrNotRunning, c.kind, phase)
	}

	handle := c.detachLocked()
	c.transitionLocked(PhaseStoppingRequested)
	id := c.id
	snap := c.snapshotLocked()
	c.mu.Unlock()

	// Never stop the poller while holding c.mu: its delivery lock may be held by
	// a callback waiting on c.mu.
	if handle != nil {
		handle.Stop()
	}

	c.notify(snap)

	ctx, span := observability.Tracer(tracerName).Start(ctx, "session.stop",
		trace.WithAttributes(
			attribute.String("job.kind", string(c.kind)),
			attribute.String("job.session_id", id),
		),
	)
	defer span.End()

	_, remoteErr := c.backend.StopJob(ctx, c.kind)

	c.mu.Lock()
	c.logs = append(c.logs, stopLine(c.kind))
	c.stopped = true
	c.outcome = classify.Success
	c.endedAt = c.currentTime()

	if remoteErr != nil {
		c.stopError = remoteErr.Error()
	}

	c.transitionLocked(PhaseTerminal)
	snap = c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	switch {
	case remoteErr == nil:
		span.SetStatus(codes.Ok, "")
		c.logger.Info("job stopped", slog.String("job.session_id", id))
	case errors.Is(remoteErr, client.ErrStopUnsupported):
		span.SetStatus(codes.Ok, "remote stop unsupported")
		c.logger.Info("job supervision stopped; backend has no stop endpoint",
			slog.String("job.session_id", id),
		)
	default:
		span.RecordError(remoteErr)
		span.SetStatus(codes.Error, "remote stop failed")
		c.logger.Warn("remote stop failed",
			slog.String("job.session_id", id),
			slog.String("error", remoteErr.Error()),
		)
	}

	return nil
}

// ReconcileOnMount performs one status fetch and, if the backend reports the
// job running, adopts it and resumes polling. It is a no-op unless the session
// is Idle. It reports whether a running job was adopted.
func (c *Controller) ReconcileOnMount(ctx context.Context) (bool, error) {
	c.mu.Lock()

	if c.phase != PhaseIdle {
		c.mu.Unlock()
		return false, nil
	}

	c.generation++
	gen := c.generation
	c.mu.Unlock()

	ctx, span := observability.Tracer(tracerName).Start(ctx, "session.reconcile",
		trace.WithAttributes(attribute.String("job.kind", string(c.kind))),
	)
	defer span.End()

	status, err := c.backend.JobStatus(ctx, c.kind)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "status fetch failed")

		c.mu.Lock()
		if gen == c.generation && c.phase == PhaseIdle {
			c.setLastErrorLocked(fmt.Sprintf("Status check failed: %v", err))
		}
		c.mu.Unlock()

		return false, fmt.Errorf("reconcile %s job: %w", c.kind, err)
	}

	if !status.Running() {
		span.SetAttributes(attribute.Bool("job.adopted", false))
		return false, nil
	}

	c.mu.Lock()

	if gen != c.generation || c.phase != PhaseIdle {
		c.mu.Unlock()
		c.logger.Debug("discarding reconcile result for superseded session")

		return false, nil
	}

	c.resetLocked()
	c.id = uuid.NewString()
	c.recovered = true
	c.logs = slices.Clone(status.Logs)
	c.startedAt = c.currentTime()
	c.transitionLocked(PhaseRunning)
	gen = c.generation
	id := c.id

	if pollErr := c.startPollingLocked(gen); pollErr != nil {
		c.setLastErrorLocked(pollErr.Error())
	}

	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	span.SetAttributes(attribute.Bool("job.adopted", true), attribute.String("job.session_id", id))
	c.logger.Info("adopted running job", slog.String("job.session_id", id))

	return true, nil
}

// Acknowledge resets a Terminal session to a fresh Idle one.
func (c *Controller) Acknowledge() error {
	c.mu.Lock()

	if c.phase != PhaseTerminal {
		phase := c.phase
		c.mu.Unlock()

		return fmt.Errorf("%w: %s job is %s", ErrNotTerminal, c.kind, phase)
	}

	c.resetLocked()
	c.transitionLocked(PhaseIdle)
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	return nil
}

// Close stops any active poller without contacting the backend. The remote job
// keeps running and can be adopted again with ReconcileOnMount from a new controller.
func (c *Controller) Close() {
	c.mu.Lock()
	handle := c.detachLocked()
	c.mu.Unlock()

	if handle != nil {
		handle.Stop()
	}
}

// startPollingLocked activates the status poller for generation gen.
func (c *Controller) startPollingLocked(gen uint64) error {
	if c.handle != nil {
		// Unreachable: every path out of Running detaches the handle first.
		return fmt.Errorf("%s poller already active", c.kind)
	}

	opts := poller.Options[*client.JobStatus]{
		Interval: c.interval,
		Fetch: func(ctx context.Context) (*client.JobStatus, error) {
			return c.backend.JobStatus(ctx, c.kind)
		},
		OnResult: func(status *client.JobStatus) poller.Decision {
			return c.handleTick(gen, status)
		},
		OnError: func(err error) {
			c.handlePollError(gen, err)
		},
	}

	if c.ticks != nil {
		opts.Ticks = c.ticks()
	}

	handle, err := poller.Start(c.base, opts)
	if err != nil {
		return fmt.Errorf("start %s poller: %w", c.kind, err)
	}

	c.handle = handle

	return nil
}

// handleTick applies one successful status fetch.
func (c *Controller) handleTick(gen uint64, status *client.JobStatus) poller.Decision {
	c.mu.Lock()

	if gen != c.generation || c.phase != PhaseRunning {
		phase := c.phase
		c.mu.Unlock()
		c.logger.Debug("discarding stale status response", slog.String("phase", phase.String()))

		return poller.Stop
	}

	c.logs = slices.Clone(status.Logs)

	verdict := classify.Classify(c.kind, status)
	if !verdict.Terminal() {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snap)

		return poller.Continue
	}

	// The poller ends itself on a Stop decision.
	c.handle = nil
	c.generation++
	c.outcome = verdict
	c.endedAt = c.currentTime()
	c.transitionLocked(PhaseTerminal)
	id := c.id
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	c.logger.Info("job finished",
		slog.String("job.session_id", id),
		slog.String("job.outcome", verdict.String()),
	)

	return poller.Stop
}

// handlePollError records a transient poll failure; polling continues.
func (c *Controller) handlePollError(gen uint64, err error) {
	c.mu.Lock()

	if gen != c.generation || c.phase != PhaseRunning {
		c.mu.Unlock()
		return
	}

	line := pollErrorLine(err)
	if n := len(c.logs); n == 0 || c.logs[n-1] != line {
		c.logs = append(c.logs, line)
	}

	c.setLastErrorLocked(err.Error())
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	c.logger.Warn("status poll failed", slog.String("error", err.Error()))
}

// detachLocked releases ownership of the active poller and invalidates in-flight results.
func (c *Controller) detachLocked() *poller.Handle {
	handle := c.handle
	c.handle = nil
	c.generation++

	return handle
}

// resetLocked clears per-run state. The caller sets the next phase.
func (c *Controller) resetLocked() {
	c.generation++
	c.id = ""
	c.outcome = classify.Indeterminate
	c.config = nil
	c.logs = nil
	c.lastError = ""
	c.lastErrorTime = time.Time{}
	c.startedAt = time.Time{}
	c.endedAt = time.Time{}
	c.stopped = false
	c.recovered = false
	c.stopError = ""
}

func (c *Controller) transitionLocked(to Phase) {
	from := c.phase
	if !CanTransition(from, to) {
		c.logger.Error("illegal phase transition",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)

		return
	}

	c.phase = to
	c.logger.Debug("phase transition",
		slog.String("job.session_id", c.id),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
	)
}

func (c *Controller) setLastErrorLocked(msg string) {
	c.lastError = msg
	c.lastErrorTime = c.currentTime()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		ID:            c.id,
		Kind:          c.kind,
		Phase:         c.phase,
		Outcome:       c.outcome,
		Config:        c.config,
		Logs:          slices.Clone(c.logs),
		LastError:     c.lastError,
		LastErrorTime: c.lastErrorTime,
		StartedAt:     c.startedAt,
		EndedAt:       c.endedAt,
		Polling:       c.handle != nil,
		Stopped:       c.stopped,
		Recovered:     c.recovered,
		StopError:     c.stopError,
	}
}

func (c *Controller) notify(snap Snapshot) {
	if c.onChange != nil {
		c.onChange(snap)
	}
}

// currentTime returns the current time, using the injected clock when available.
func (c *Controller) currentTime() time.Time {
	if c.now != nil {
		return c.now()
	}

	return time.Now()
}

// missingConfig reports whether cfg is nil, including a nil pointer, map or
// slice wrapped in a non-nil interface.
func missingConfig(cfg any) bool {
	if cfg == nil {
		return true
	}

	switch v := reflect.ValueOf(cfg); v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}
