package main

import (
	"context"
	"time"

	selfupdate "github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"

	clierrors "github.com/leadpilot/pilot/internal/errors"
	"github.com/leadpilot/pilot/internal/output"
	"github.com/leadpilot/pilot/internal/update"
)

// updateCheckTimeout bounds the background release check.
const updateCheckTimeout = 5 * time.Second

// noUpdateNotice lists commands that never mention new releases.
var noUpdateNotice = map[string]bool{
	"update":    true,
	"version":   true,
	"dashboard": true,
	"doctor":    true,
}

func newUpdateCmd() *cobra.Command {
	var (
		targetVersion string
		force         bool
		checkOnly     bool
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update pilot to the latest release",
		Long: `Download the newest pilot release from GitHub, verify its checksum and
replace the running binary. When the binary's directory is not writable,
sudo is requested.

Set PILOT_UPDATE_DISABLED=1 to turn off update checks and notices.`,
		Example: `  pilot update
  pilot update --check
  pilot update --version 1.2.0`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			if update.Disabled() {
				out.Warning("Updates are disabled (PILOT_UPDATE_DISABLED is set)")
				return nil
			}

			updater, err := update.NewUpdater()
			if err != nil {
				return clierrors.UpdateFailed("initialize the updater", err)
			}

			if targetVersion != "" {
				return installVersion(ctx, out, updater, targetVersion)
			}

			return runUpdate(ctx, out, updater, version, checkOnly || out.JSON, force)
		},
	}

	cmd.Flags().StringVar(&targetVersion, "version", "", "Install a specific version (e.g. 1.2.0)")
	cmd.Flags().BoolVar(&force, "force", false, "Reinstall even when already up to date")
	cmd.Flags().BoolVar(&checkOnly, "check", false, "Only report whether a newer release exists")
	cmd.MarkFlagsMutuallyExclusive("version", "check")

	return cmd
}

func runUpdate(ctx context.Context, out *output.Writer, updater *update.Updater, current string, checkOnly, force bool) error {
	spin := out.Spinner("Checking for updates")
	spin.Start()

	rel, err := updater.Latest(ctx, current)
	if err != nil {
		spin.StopWithFailure("")
		return clierrors.UpdateFailed("check for updates", err)
	}

	_ = update.Record(rel, time.Now())

	if out.JSON {
		return out.PrintJSON(rel)
	}

	if !rel.Available && !force {
		spin.StopWithSuccess("pilot is up to date (v" + rel.Latest + ")")
		return nil
	}

	if checkOnly {
		spin.StopWithWarning("Update available: v" + rel.Current + " → v" + rel.Latest)
		out.Muted("Run 'pilot update' to install it")

		return nil
	}

	if !rel.Installable() {
		spin.StopWithFailure("")
		return clierrors.UpdateFailed("find a release for this platform", nil)
	}

	spin.StopWithSuccess("Installing v" + rel.Latest)

	if elevated, err := reexecIfNeeded(); elevated || err != nil {
		return err
	}

	spin = out.Spinner("Downloading v" + rel.Latest)
	spin.Start()

	if err := updater.Install(ctx, rel); err != nil {
		spin.StopWithFailure("")
		return clierrors.UpdateFailed("install v"+rel.Latest, err)
	}

	spin.StopWithSuccess("Updated to v" + rel.Latest)

	if rel.URL != "" {
		out.Muted("Release notes: %s", rel.URL)
	}

	return nil
}

func installVersion(ctx context.Context, out *output.Writer, updater *update.Updater, target string) error {
	if elevated, err := reexecIfNeeded(); elevated || err != nil {
		return err
	}

	spin := out.Spinner("Installing " + target)
	spin.Start()

	rel, err := updater.InstallVersion(ctx, target)
	if err != nil {
		spin.StopWithFailure("")
		return clierrors.UpdateFailed("install "+target, err).WithHint("See available versions at " + update.ReleasesURL)
	}

	spin.StopWithSuccess("Installed v" + rel.Latest)

	return nil
}

// reexecIfNeeded hands the command to sudo when the binary cannot be replaced
// in place. It reports true when the process was re-executed.
func reexecIfNeeded() (bool, error) {
	execPath, err := selfupdate.ExecutablePath()
	if err != nil || !update.NeedsElevation(execPath) {
		return false, nil
	}

	if err := update.ReExecWithSudo(); err != nil {
		return false, clierrors.UpdateFailed("request elevated permissions", err)
	}

	return true, nil
}

// updateNoticeEnabled reports whether cmd may check for and mention releases.
func updateNoticeEnabled(cmd *cobra.Command, out *output.Writer, current string) bool {
	if current == "dev" || out.Quiet || out.JSON || update.Disabled() {
		return false
	}

	return !noUpdateNotice[cmd.Name()]
}

// refreshUpdateState checks GitHub when the cached result is stale.
func refreshUpdateState(current string) {
	state, err := update.LoadState()
	if err != nil || !state.Due(time.Now()) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), updateCheckTimeout)
	defer cancel()

	updater, err := update.NewUpdater()
	if err != nil {
		return
	}

	rel, err := updater.Latest(ctx, current)
	if err != nil {
		return
	}

	_ = update.Record(rel, time.Now())
}

// showUpdateNotice mentions a cached newer release after a command finishes.
func showUpdateNotice(out *output.Writer, current string) {
	state, err := update.LoadState()
	if err != nil || !state.NewerThan(current) {
		return
	}

	out.Println()
	out.Info("A new version of pilot is available: v%s → v%s", current, state.Latest)
	out.Muted("  Run 'pilot update' to install it")
}
