package main

import (
	"github.com/spf13/cobra"

	"github.com/leadpilot/pilot/internal/doctor"
	"github.com/leadpilot/pilot/internal/output"
	"github.com/leadpilot/pilot/internal/update"
)

// doctorReport is the JSON shape of a doctor run.
type doctorReport struct {
	Results  []doctor.Result `json:"results"`
	Passed   int             `json:"passed"`
	Failed   int             `json:"failed"`
	Warnings int             `json:"warnings"`
}

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose common issues",
		Long: `Run diagnostic checks to identify configuration and connectivity issues.

Checks performed:
  - Configuration file and backend URL
  - Backend reachability and response time
  - Google Sheets connection
  - Jobs currently running on the backend
  - CLI version against the last cached release check`,
		Example: `  pilot doctor
  pilot doctor --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)
			c, cfg := newAPIClient(ctx)

			state, _ := update.LoadState()

			runner := doctor.New(doctor.Env{
				Backend:       c,
				APIURL:        c.BaseURL(),
				ConfigFile:    cfg.ConfigFileUsed(),
				LatestVersion: state.Latest,
			})
			results := runner.Run(ctx)

			if out.JSON {
				passed, failed, warnings := doctor.Summary(results)

				return out.PrintJSON(doctorReport{
					Results:  results,
					Passed:   passed,
					Failed:   failed,
					Warnings: warnings,
				})
			}

			renderDoctor(out, results)

			return nil
		},
	}
}

func renderDoctor(out *output.Writer, results []doctor.Result) {
	out.Println("Pilot Doctor")
	out.Println("============")
	out.Println()

	doctor.RenderResults(results, out.Print, out.Success, out.Warning, out.Failure, out.Muted)

	passed, failed, warnings := doctor.Summary(results)

	out.Println()
	out.Print("%d passed", passed)

	if failed > 0 {
		out.Print(", %d failed", failed)
	}

	if warnings > 0 {
		out.Print(", %d warning(s)", warnings)
	}

	out.Println()
}
