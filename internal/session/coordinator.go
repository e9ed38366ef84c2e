package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/leadpilot/pilot/internal/client"
)

// Coordinator owns exactly one Controller per job kind.
type Coordinator struct {
	controllers map[client.JobKind]*Controller
	kinds       []client.JobKind
}

// NewCoordinator creates an idle controller for every supported job kind.
func NewCoordinator(ctx context.Context, backend Backend, opts Options) *Coordinator {
	kinds := client.Kinds()
	coord := &Coordinator{
		controllers: make(map[client.JobKind]*Controller, len(kinds)),
		kinds:       kinds,
	}

	for _, kind := range kinds {
		coord.controllers[kind] = New(ctx, kind, backend, opts)
	}

	return coord
}

// Controller returns the controller for kind.
func (c *Coordinator) Controller(kind client.JobKind) (*Controller, error) {
	ctrl, ok := c.controllers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	return ctrl, nil
}

// Start starts a job of the given kind.
func (c *Coordinator) Start(ctx context.Context, kind client.JobKind, cfg any) error {
	ctrl, err := c.Controller(kind)
	if err != nil {
		return err
	}

	return ctrl.Start(ctx, cfg)
}

// Stop stops supervision of the job of the given kind.
func (c *Coordinator) Stop(ctx context.Context, kind client.JobKind) error {
	ctrl, err := c.Controller(kind)
	if err != nil {
		return err
	}

	return ctrl.Stop(ctx)
}

// Acknowledge clears a finished session of the given kind back to Idle.
func (c *Coordinator) Acknowledge(kind client.JobKind) error {
	ctrl, err := c.Controller(kind)
	if err != nil {
		return err
	}

	return ctrl.Acknowledge()
}

// Snapshot returns the state of the session of the given kind.
func (c *Coordinator) Snapshot(kind client.JobKind) (Snapshot, error) {
	ctrl, err := c.Controller(kind)
	if err != nil {
		return Snapshot{}, err
	}

	return ctrl.Snapshot(), nil
}

// Reconcile adopts any job the backend reports as already running. Kinds are
// independent: a failed status check for one does not prevent the others.
func (c *Coordinator) Reconcile(ctx context.Context) error {
	var errs []error

	for _, kind := range c.kinds {
		if _, err := c.controllers[kind].ReconcileOnMount(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Snapshots returns the state of every session in kind order.
func (c *Coordinator) Snapshots() []Snapshot {
	snaps := make([]Snapshot, 0, len(c.kinds))
	for _, kind := range c.kinds {
		snaps = append(snaps, c.controllers[kind].Snapshot())
	}

	return snaps
}

// Close stops all pollers.
func (c *Coordinator) Close() {
	for _, kind := range c.kinds {
		c.controllers[kind].Close()
	}
}
