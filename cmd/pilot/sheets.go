package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	clierrors "github.com/leadpilot/pilot/internal/errors"
	"github.com/leadpilot/pilot/internal/observability"
	"github.com/leadpilot/pilot/internal/output"
	"github.com/leadpilot/pilot/internal/poller"
	"github.com/leadpilot/pilot/internal/watcher"
)

// defaultConnectWait bounds 'sheets connect --wait'.
const defaultConnectWait = 5 * time.Minute

// copyToClipboard is replaced in tests.
var copyToClipboard = clipboard.WriteAll

// sheetsView is the JSON shape of the connection and lead counter.
type sheetsView struct {
	Connected  bool   `json:"connected"`
	Stage      string `json:"stage"`
	LeadCount  *int   `json:"lead_count,omitempty"`
	AuthURL    string `json:"auth_url,omitempty"`
	CheckError string `json:"check_error,omitempty"`
}

func newSheetsView(status watcher.Status) sheetsView {
	view := sheetsView{
		Connected:  status.Connected,
		Stage:      status.Stage.String(),
		CheckError: status.CheckError,
	}

	if status.LeadCountKnown {
		count := status.LeadCount
		view.LeadCount = &count
	}

	return view
}

func newSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Manage the Google Sheets connection",
		Long:  `Connect the Google Sheet that receives scraped leads and check the lead count.`,
	}

	cmd.AddCommand(newSheetsConnectCmd())
	cmd.AddCommand(newSheetsStatusCmd())

	return cmd
}

func newSheetsWatcher(ctx context.Context) (*watcher.Watcher, string) {
	c, conf := newAPIClient(ctx)
	w := watcher.New(c, watcher.Options{
		LeadInterval: conf.LeadPollInterval(),
		Logger:       observability.FromContext(ctx),
	})

	return w, c.BaseURL()
}

func sheetsError(operation, apiURL string, err error) error {
	if clierrors.IsConnectionError(err) {
		return clierrors.BackendUnreachable(apiURL, err)
	}

	return clierrors.BackendRequestFailed(operation, err)
}

func newSheetsConnectCmd() *cobra.Command {
	var (
		redirectStatus string
		noCopy         bool
		wait           bool
		waitTimeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect Google Sheets",
		Long: `Print the Google sign-in link that connects the lead sheet and copy it to
the clipboard. With --wait, keep checking until the backend reports the
connection. --status records the result the OAuth redirect carried; it is
shown as provisional until the backend confirms it.`,
		Example: `  pilot sheets connect
  pilot sheets connect --wait
  pilot sheets connect --status success`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)
			w, apiURL := newSheetsWatcher(ctx)

			switch redirectStatus {
			case "":
			case "success", "error":
				w.Hint(redirectStatus == "success")
				out.Info("Sign-in reported %s; confirming with the backend", redirectStatus)
			default:
				return clierrors.InvalidInput(
					fmt.Sprintf("Invalid --status %q", redirectStatus),
					"Use --status success or --status error",
				)
			}

			if err := w.CheckConnection(ctx); err != nil {
				return sheetsError("check the Google Sheets connection", apiURL, err)
			}

			if w.Status().Connected {
				if out.JSON {
					return out.PrintJSON(newSheetsView(w.Status()))
				}

				out.Success("Google Sheets is connected")

				return nil
			}

			if redirectStatus == "success" {
				out.Warning("The backend does not see the connection yet")
			}

			authURL, err := w.AuthURL(ctx)
			if err != nil {
				return sheetsError("get the Google sign-in link", apiURL, err)
			}

			if out.JSON {
				view := newSheetsView(w.Status())
				view.AuthURL = authURL

				if err := out.PrintJSON(view); err != nil {
					return err
				}
			} else {
				out.Println("Open this link to connect Google Sheets:")
				out.Println("  " + authURL)

				if !noCopy {
					if err := copyToClipboard(authURL); err != nil {
						out.Muted("Could not copy the link: %v", err)
					} else {
						out.Muted("Link copied to clipboard")
					}
				}
			}

			if !wait {
				if !out.JSON {
					out.Muted("Run 'pilot sheets status' after signing in")
				}

				return nil
			}

			return waitForConnection(ctx, out, w, waitTimeout)
		},
	}

	cmd.Flags().StringVar(&redirectStatus, "status", "", "Result carried by the OAuth redirect: success or error")
	cmd.Flags().BoolVar(&noCopy, "no-copy", false, "Do not copy the link to the clipboard")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait until the backend reports the connection")
	cmd.Flags().DurationVar(&waitTimeout, "timeout", defaultConnectWait, "How long --wait keeps checking")

	return cmd
}

// waitForConnection polls the connection flag until it is set, the timeout
// passes or the user interrupts.
func waitForConnection(ctx context.Context, out *output.Writer, w *watcher.Watcher, timeout time.Duration) error {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	waitCtx, cancel := context.WithTimeout(sigCtx, timeout)
	defer cancel()

	spin := out.Spinner("Waiting for Google sign-in")
	spin.Start()

	handle, err := poller.Start(waitCtx, poller.Options[bool]{
		Interval: time.Second,
		Fetch: func(ctx context.Context) (bool, error) {
			if err := w.CheckConnection(ctx); err != nil {
				return false, err
			}

			return w.Status().Connected, nil
		},
		OnResult: func(connected bool) poller.Decision {
			if connected {
				return poller.Stop
			}

			return poller.Continue
		},
	})
	if err != nil {
		spin.StopWithFailure("")
		return fmt.Errorf("wait for connection: %w", err)
	}

	<-handle.Done()

	if !w.Status().Connected {
		spin.StopWithFailure("")
		return clierrors.SheetsNotConnected()
	}

	spin.StopWithSuccess("Google Sheets is connected")

	return nil
}

func newSheetsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the Google Sheets connection and lead count",
		Long: `Ask the backend whether Google Sheets is connected and how many leads the
sheet holds.`,
		Example: `  pilot sheets status
  pilot sheets status --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)
			w, apiURL := newSheetsWatcher(ctx)

			if err := w.CheckConnection(ctx); err != nil {
				return sheetsError("check the Google Sheets connection", apiURL, err)
			}

			// A failed count leaves it unknown; the connection result still stands.
			_ = w.RefreshLeads(ctx)

			status := w.Status()

			if out.JSON {
				return out.PrintJSON(newSheetsView(status))
			}

			connected := "not connected"
			if status.Connected {
				connected = "connected"
			}

			leads := "unavailable"
			if status.LeadCountKnown {
				leads = strconv.Itoa(status.LeadCount)
			}

			out.Field("Sheets", 6, connected)
			out.Field("Leads", 6, leads)

			if !status.Connected {
				out.Println()
				out.Muted("Run 'pilot sheets connect' to link a sheet")
			}

			return nil
		},
	}
}
