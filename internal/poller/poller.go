// Package poller runs an interval-driven fetch and dispatches each outcome to callbacks.
//
// A poller performs at most one fetch at a time. Ticks that come due while a fetch
// is outstanding are dropped rather than queued. Fetch errors are reported to the
// error callback and never stop the poller; only Handle.Stop, cancellation of the
// parent context, or a Stop decision returned from the result callback end it.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Decision is returned by a result callback to keep or end polling.
type Decision int

// Decision values.
const (
	Continue Decision = iota
	Stop
)

// Options configures a poller.
type Options[T any] struct {
	// Interval between fetches. Ignored when Ticks is set.
	Interval time.Duration

	// Fetch performs exactly one request per tick.
	Fetch func(ctx context.Context) (T, error)

	// OnResult receives each successful fetch.
	OnResult func(T) Decision

	// OnError receives fetch failures. Optional.
	OnError func(error)

	// Ticks replaces the interval timer when set.
	Ticks <-chan time.Time
}

// Handle owns one running poller.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}

	// mu serializes callback delivery with Stop.
	mu      sync.Mutex
	stopped bool
}

// Start launches a poller and returns its handle.
func Start[T any](ctx context.Context, opts Options[T]) (*Handle, error) {
	if opts.Fetch == nil {
		return nil, errors.New("poller: fetch function is required")
	}

	if opts.OnResult == nil {
		return nil, errors.New("poller: result callback is required")
	}

	ticks := opts.Ticks
	stopTicker := func() {}

	if ticks == nil {
		if opts.Interval <= 0 {
			return nil, errors.New("poller: interval must be positive")
		}

		ticker := time.NewTicker(opts.Interval)
		ticks = ticker.C
		stopTicker = ticker.Stop
	}

	pollCtx, cancel := context.WithCancel(ctx)

	h := &Handle{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(h.done)
		defer stopTicker()

		run(pollCtx, h, opts, ticks)

		h.mu.Lock()
		h.stopped = true
		h.mu.Unlock()
	}()

	return h, nil
}

func run[T any](ctx context.Context, h *Handle, opts Options[T], ticks <-chan time.Time) {
	// lastFetch is when the previous fetch finished; ticks stamped earlier came
	// due while it was outstanding and are skipped.
	var lastFetch time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case tick := <-ticks:
			if tick.Before(lastFetch) {
				continue
			}
		}

		if ctx.Err() != nil {
			return
		}

		result, err := opts.Fetch(ctx)
		lastFetch = time.Now()

		if ctx.Err() != nil {
			return
		}

		keepGoing := h.deliver(func() Decision {
			if err != nil {
				if opts.OnError != nil {
					opts.OnError(err)
				}

				return Continue
			}

			return opts.OnResult(result)
		})
		if !keepGoing {
			return
		}
	}
}

// deliver runs fn unless the handle has been stopped.
func (h *Handle) deliver(fn func() Decision) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return false
	}

	if fn() == Stop {
		h.stopped = true
		h.cancel()

		return false
	}

	return true
}

// Stop cancels the poller. Once Stop returns no callback will run again, even if a
// fetch was in flight. Stop must not be called from inside a callback of the same
// handle; return Stop from the result callback instead.
func (h *Handle) Stop() {
	if h == nil {
		return
	}

	h.cancel()

	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()
}

// Active reports whether the poller may still deliver callbacks.
func (h *Handle) Active() bool {
	if h == nil {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	return !h.stopped
}

// Done is closed once the polling goroutine has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}
