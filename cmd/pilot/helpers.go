package main

import (
	"context"
	"errors"

	"github.com/leadpilot/pilot/internal/client"
	"github.com/leadpilot/pilot/internal/config"
	clierrors "github.com/leadpilot/pilot/internal/errors"
	"github.com/leadpilot/pilot/internal/observability"
	"github.com/leadpilot/pilot/internal/session"
)

// newAPIClient creates a backend client from the loaded configuration.
//
// This consolidates the repeated pattern of:
//
//	cfg := config.Load()
//	c := client.New(cfg.APIURL()).WithTimeout(cfg.APITimeout())
func newAPIClient(ctx context.Context) (*client.Client, *config.Config) {
	cfg := config.Load()
	c := client.New(cfg.APIURL()).
		WithTimeout(cfg.APITimeout()).
		WithLogger(observability.FromContext(ctx))

	return c, cfg
}

// newController creates a session controller for kind using the configured poll interval.
func newController(ctx context.Context, c *client.Client, cfg *config.Config, kind client.JobKind, onChange func(session.Snapshot)) *session.Controller {
	return session.New(ctx, kind, c, session.Options{
		PollInterval: cfg.JobPollInterval(),
		Logger:       observability.FromContext(ctx),
		OnChange:     onChange,
	})
}

// jobError maps session and client errors for the job commands to CLI errors.
func jobError(command, operation, apiURL string, err error) error {
	if err == nil {
		return nil
	}

	var rejected *session.StartRejectedError

	switch {
	case errors.Is(err, session.ErrAlreadyRunning):
		return clierrors.JobAlreadyRunning(command)
	case errors.Is(err, session.ErrNotRunning):
		return clierrors.JobNotRunning(command)
	case clierrors.IsConnectionError(err):
		return clierrors.BackendUnreachable(apiURL, err)
	case errors.As(err, &rejected):
		return clierrors.StartRejected(command, rejected.Reason())
	default:
		return clierrors.BackendRequestFailed(operation, err)
	}
}
