package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/leadpilot/pilot/internal/client"
	"github.com/leadpilot/pilot/internal/config"
	clierrors "github.com/leadpilot/pilot/internal/errors"
	"github.com/leadpilot/pilot/internal/output"
	"github.com/leadpilot/pilot/internal/prompt"
)

func newScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run the lead-scraping job",
		Long: `Start, stop and inspect the backend job that scrapes business leads
into the connected Google Sheet.`,
	}

	cmd.AddCommand(newScrapeStartCmd())
	cmd.AddCommand(newJobStopCmd(scrapeJob))
	cmd.AddCommand(newJobStatusCmd(scrapeJob))

	return cmd
}

type scrapeStartOptions struct {
	keywords  string
	relevance string
	city      string
	country   string
	limit     int
	follow    bool
}

func newScrapeStartCmd() *cobra.Command {
	var opts scrapeStartOptions

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start scraping leads",
		Long: `Start the lead-scraping job. Keywords are comma-separated search terms;
relevance keywords, when given, keep only leads whose website mentions one
of them. Missing keywords are asked for on an interactive terminal.`,
		Example: `  pilot scrape start --keywords "dentist, dental clinic" --city Berlin --country Germany
  pilot scrape start --keywords plumber --limit 100 --follow`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			conf := config.Load()

			if !cmd.Flags().Changed("limit") {
				opts.limit = conf.ScrapeLimit()
			}

			cfg, err := resolveScrapeConfig(prompt.New(out), opts)
			if err != nil {
				return err
			}

			return runStart(cmd, scrapeJob, cfg, opts.follow)
		},
	}

	cmd.Flags().StringVarP(&opts.keywords, "keywords", "k", "", "Comma-separated search keywords")
	cmd.Flags().StringVarP(&opts.relevance, "relevance", "r", "", "Comma-separated keywords a lead's website must mention")
	cmd.Flags().StringVar(&opts.city, "city", "", "City to search in")
	cmd.Flags().StringVar(&opts.country, "country", "", "Country to search in")
	cmd.Flags().IntVarP(&opts.limit, "limit", "l", config.DefaultJobLimit, "Maximum number of leads to collect")
	cmd.Flags().BoolVarP(&opts.follow, "follow", "f", false, "Stream logs until the job finishes")

	return cmd
}

// resolveScrapeConfig builds the job config from flags, asking for missing
// keywords when a terminal is available.
func resolveScrapeConfig(p *prompt.Prompter, opts scrapeStartOptions) (client.ScrapeConfig, error) {
	cfg := client.ScrapeConfig{
		Keywords:          strings.TrimSpace(opts.keywords),
		RelevanceKeywords: strings.TrimSpace(opts.relevance),
		City:              strings.TrimSpace(opts.city),
		Country:           strings.TrimSpace(opts.country),
		Limit:             opts.limit,
	}

	if cfg.Keywords == "" {
		if !p.CanPrompt() {
			return cfg, clierrors.InvalidInput(
				"--keywords is required",
				`Pass --keywords "dentist, dental clinic" or run in an interactive terminal`,
			)
		}

		keywords, err := p.Text("Keywords (comma-separated)", "")
		if err != nil {
			return cfg, promptError(err)
		}

		limit, err := p.PositiveInt("Lead limit", cfg.Limit)
		if err != nil {
			return cfg, promptError(err)
		}

		cfg.Keywords = keywords
		cfg.Limit = limit
	}

	if err := cfg.Validate(); err != nil {
		return cfg, clierrors.InvalidInput(capitalize(err.Error()), "Run 'pilot scrape start --help' for the available flags")
	}

	return cfg, nil
}

// promptError converts a prompt failure into a CLI error.
func promptError(err error) error {
	if prompt.IsCanceled(err) {
		return clierrors.New(clierrors.ExitGeneral, "Canceled")
	}

	return clierrors.Wrap(clierrors.ExitGeneral, "Failed to read input", err)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}
