package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/leadpilot/pilot/internal/dashboard"
	clierrors "github.com/leadpilot/pilot/internal/errors"
	"github.com/leadpilot/pilot/internal/observability"
	"github.com/leadpilot/pilot/internal/output"
	"github.com/leadpilot/pilot/internal/session"
	"github.com/leadpilot/pilot/internal/watcher"
)

func newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Open the live dashboard",
		Long: `Open a full-screen dashboard with a tab per job and one for Google Sheets.
Jobs already running on the backend are picked up on start. Quitting the
dashboard stops supervision only; remote jobs keep running.`,
		Example: `  pilot dashboard`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			if !out.Terminal().IsTTY || out.JSON {
				return clierrors.DashboardRequiresTTY()
			}

			logger := observability.FromContext(ctx)
			c, conf := newAPIClient(ctx)
			relay := dashboard.NewRelay()

			jobs := session.NewCoordinator(ctx, c, session.Options{
				PollInterval: conf.JobPollInterval(),
				Logger:       logger,
				OnChange:     relay.SessionChanged,
			})
			defer jobs.Close()

			conn := watcher.New(c, watcher.Options{
				LeadInterval: conf.LeadPollInterval(),
				Logger:       logger,
				OnChange:     relay.WatcherChanged,
			})
			if err := conn.Start(ctx); err != nil {
				return fmt.Errorf("start lead counter: %w", err)
			}
			defer conn.Stop()

			model := dashboard.New(ctx, dashboard.Options{
				Jobs:           jobs,
				Connection:     conn,
				ScrapeLimit:    conf.ScrapeLimit(),
				MessagingLimit: conf.MessagingLimit(),
				Logger:         logger,
			})

			program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

			relay.Attach(program)
			defer relay.Detach()

			if _, err := program.Run(); err != nil {
				return clierrors.Wrap(clierrors.ExitGeneral, "Dashboard exited with an error", err)
			}

			logger.Info("dashboard closed")

			return nil
		},
	}
}
