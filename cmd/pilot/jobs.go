package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/leadpilot/pilot/internal/classify"
	"github.com/leadpilot/pilot/internal/client"
	clierrors "github.com/leadpilot/pilot/internal/errors"
	"github.com/leadpilot/pilot/internal/output"
	"github.com/leadpilot/pilot/internal/session"
)

// defaultStatusLines is how many log lines 'status' prints without --lines.
const defaultStatusLines = 20

// jobCommand describes the CLI surface of one job kind.
type jobCommand struct {
	kind client.JobKind
	// name is the command name, used in hints.
	name  string
	title string
}

var (
	scrapeJob   = jobCommand{kind: client.KindScrape, name: "scrape", title: "Scrape"}
	whatsappJob = jobCommand{kind: client.KindMessaging, name: "whatsapp", title: "WhatsApp campaign"}
)

// sessionView is the JSON shape of a supervised session.
type sessionView struct {
	Kind      client.JobKind `json:"kind"`
	SessionID string         `json:"session_id,omitempty"`
	Status    string         `json:"status"`
	Outcome   string         `json:"outcome"`
	Recovered bool           `json:"recovered,omitempty"`
	StopError string         `json:"stop_error,omitempty"`
	LastError string         `json:"last_error,omitempty"`
	Logs      []string       `json:"logs"`
}

func newSessionView(snap session.Snapshot) sessionView {
	logs := snap.Logs
	if logs == nil {
		logs = []string{}
	}

	return sessionView{
		Kind:      snap.Kind,
		SessionID: snap.ID,
		Status:    snap.StatusLabel(),
		Outcome:   snap.Outcome.String(),
		Recovered: snap.Recovered,
		StopError: snap.StopError,
		LastError: snap.LastError,
		Logs:      logs,
	}
}

// statusView is the JSON shape of a one-shot status fetch.
type statusView struct {
	Kind    client.JobKind `json:"kind"`
	Status  string         `json:"status"`
	Phase   string         `json:"phase,omitempty"`
	Running bool           `json:"running"`
	Outcome string         `json:"outcome"`
	Logs    []string       `json:"logs"`
}

// runStart starts a job with cfg and, when followLogs is set, streams its
// logs until it finishes.
func runStart(cmd *cobra.Command, job jobCommand, cfg any, followLogs bool) error {
	ctx := cmd.Context()
	out := output.FromContext(ctx)
	c, conf := newAPIClient(ctx)

	notify, changed := changeSignal()
	ctrl := newController(ctx, c, conf, job.kind, notify)

	defer ctrl.Close()

	spin := out.Spinner("Starting " + job.title)
	spin.Start()

	// A job already running on the backend is adopted here, so Start refuses it
	// without sending a second start request.
	if _, err := ctrl.ReconcileOnMount(ctx); err != nil {
		spin.StopWithFailure("")
		return jobError(job.name, "check the "+job.name+" job", c.BaseURL(), err)
	}

	if err := ctrl.Start(ctx, cfg); err != nil {
		spin.StopWithFailure("")
		return jobError(job.name, "start the "+job.name+" job", c.BaseURL(), err)
	}

	spin.StopWithSuccess(job.title + " started")

	if followLogs {
		return followSession(ctx, out, ctrl, changed, job)
	}

	if out.JSON {
		return out.PrintJSON(newSessionView(ctrl.Snapshot()))
	}

	out.Muted("Follow the logs with 'pilot %s status --follow'", job.name)

	return nil
}

// followSession streams logs until the job ends or the user detaches.
func followSession(ctx context.Context, out *output.Writer, ctrl *session.Controller, changed <-chan struct{}, job jobCommand) error {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !out.JSON {
		out.Muted("Press Ctrl+C to detach")
	}

	snap := follow(sigCtx, ctrl, changed, newFollower(out, job.kind))

	if out.JSON {
		if err := out.PrintJSON(newSessionView(snap)); err != nil {
			return err
		}
	}

	return finishFollow(out, job, snap)
}

// finishFollow reports how a followed session ended.
func finishFollow(out *output.Writer, job jobCommand, snap session.Snapshot) error {
	switch {
	case snap.Phase.Active():
		out.Info("Detached; the %s job keeps running on the backend", job.name)
	case snap.Phase == session.PhaseIdle:
		out.Info("No %s job is running", job.name)
	case snap.Outcome == classify.Failure:
		return clierrors.JobFailed(job.name)
	default:
		out.Success("%s finished after %s", job.title, snap.Elapsed(time.Now()).Truncate(time.Second))
	}

	return nil
}

func newJobStopCmd(job jobCommand) *cobra.Command {
	long := fmt.Sprintf(`Stop supervising the running %s job and ask the backend to stop it.`, job.name)
	if job.kind == client.KindMessaging {
		long = `Stop supervising the running WhatsApp campaign. The backend has no stop
endpoint for campaigns, so the campaign itself runs until its daily send
limit is reached.`
	}

	return &cobra.Command{
		Use:     "stop",
		Short:   fmt.Sprintf("Stop the running %s job", job.name),
		Long:    long,
		Example: fmt.Sprintf("  pilot %s stop", job.name),
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)
			c, conf := newAPIClient(ctx)

			ctrl := newController(ctx, c, conf, job.kind, nil)
			defer ctrl.Close()

			adopted, err := ctrl.ReconcileOnMount(ctx)
			if err != nil {
				return jobError(job.name, "check the "+job.name+" job", c.BaseURL(), err)
			}

			if !adopted {
				return clierrors.JobNotRunning(job.name)
			}

			spin := out.Spinner("Stopping " + job.title)
			spin.Start()

			if err := ctrl.Stop(ctx); err != nil {
				spin.StopWithFailure("")
				return jobError(job.name, "stop the "+job.name+" job", c.BaseURL(), err)
			}

			snap := ctrl.Snapshot()

			switch snap.StopError {
			case "":
				spin.StopWithSuccess(job.title + " stopped")
			case client.ErrStopUnsupported.Error():
				spin.StopWithWarning("WhatsApp campaigns cannot be stopped remotely")
				out.Muted("Supervision ended; the campaign runs until its daily limit is reached")
			default:
				spin.StopWithWarning("Supervision stopped, but the backend did not confirm: " + snap.StopError)
			}

			if out.JSON {
				return out.PrintJSON(newSessionView(snap))
			}

			return nil
		},
	}
}

func newJobStatusCmd(job jobCommand) *cobra.Command {
	var (
		followLogs bool
		lines      int
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: fmt.Sprintf("Show the %s job status and recent logs", job.name),
		Long: fmt.Sprintf(`Fetch the %s job status and print its most recent log lines.
With --follow, attach to a running job and stream its logs until it finishes.`, job.name),
		Example: fmt.Sprintf(`  pilot %[1]s status
  pilot %[1]s status --lines 50
  pilot %[1]s status --follow`, job.name),
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if lines < 0 {
				return clierrors.InvalidInput(
					fmt.Sprintf("--lines must not be negative, got %d", lines),
					"Pass 0 to print every line",
				)
			}

			ctx := cmd.Context()
			out := output.FromContext(ctx)
			c, conf := newAPIClient(ctx)

			if followLogs {
				notify, changed := changeSignal()
				ctrl := newController(ctx, c, conf, job.kind, notify)

				defer ctrl.Close()

				adopted, err := ctrl.ReconcileOnMount(ctx)
				if err != nil {
					return jobError(job.name, "fetch the "+job.name+" status", c.BaseURL(), err)
				}

				if !adopted {
					if out.JSON {
						return out.PrintJSON(newSessionView(ctrl.Snapshot()))
					}

					out.Info("No %s job is running", job.name)
					out.Muted("Start one with 'pilot %s start --follow'", job.name)

					return nil
				}

				return followSession(ctx, out, ctrl, changed, job)
			}

			status, err := c.JobStatus(ctx, job.kind)
			if err != nil {
				return jobError(job.name, "fetch the "+job.name+" status", c.BaseURL(), err)
			}

			verdict := classify.Classify(job.kind, status)

			if out.JSON {
				return out.PrintJSON(statusView{
					Kind:    job.kind,
					Status:  status.Status,
					Phase:   status.Phase,
					Running: status.Running(),
					Outcome: verdict.String(),
					Logs:    status.Logs,
				})
			}

			printStatus(out, job, status, verdict, lines)

			return nil
		},
	}

	cmd.Flags().BoolVarP(&followLogs, "follow", "f", false, "Stream logs until the job finishes")
	cmd.Flags().IntVarP(&lines, "lines", "n", defaultStatusLines, "Number of recent log lines to print (0 for all)")

	return cmd
}

func printStatus(out *output.Writer, job jobCommand, status *client.JobStatus, verdict classify.Verdict, lines int) {
	out.Field("Job", 6, job.title)
	out.Field("Status", 6, statusLabel(status, verdict))

	if status.Phase != "" {
		out.Field("Phase", 6, status.Phase)
	}

	out.Println()

	logs := status.Logs
	if len(logs) == 0 {
		out.Muted("No logs available.")
		return
	}

	if lines > 0 && len(logs) > lines {
		out.Muted("... %d more above (use --lines 0 to show all)", len(logs)-lines)
		logs = logs[len(logs)-lines:]
	}

	newFollower(out, job.kind).show(logs)
}

// statusLabel summarises a one-shot status fetch.
func statusLabel(status *client.JobStatus, verdict classify.Verdict) string {
	switch {
	case status.Running():
		return "Running"
	case verdict == classify.Failure:
		return "Failed"
	case verdict == classify.Success:
		return "Completed"
	default:
		return "Idle"
	}
}
