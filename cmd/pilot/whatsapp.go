package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leadpilot/pilot/internal/client"
	"github.com/leadpilot/pilot/internal/config"
	clierrors "github.com/leadpilot/pilot/internal/errors"
	"github.com/leadpilot/pilot/internal/output"
	"github.com/leadpilot/pilot/internal/prompt"
)

func newWhatsAppCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "whatsapp",
		Aliases: []string{"messaging"},
		Short:   "Run the WhatsApp messaging campaign",
		Long: `Start and inspect the backend job that messages scraped leads over
WhatsApp Web, up to a daily send limit.`,
	}

	cmd.AddCommand(newWhatsAppStartCmd())
	cmd.AddCommand(newJobStopCmd(whatsappJob))
	cmd.AddCommand(newJobStatusCmd(whatsappJob))

	return cmd
}

type whatsappStartOptions struct {
	template     string
	templateFile string
	limit        int
	follow       bool
}

func newWhatsAppStartCmd() *cobra.Command {
	var opts whatsappStartOptions

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a WhatsApp campaign",
		Long: `Start the messaging job. The message template may use {name} for the
lead's business name. The backend refuses a second campaign while one runs.`,
		Example: `  pilot whatsapp start --template "Hi {name}, we help clinics like yours..."
  pilot whatsapp start --template-file pitch.txt --limit 30 --follow`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			conf := config.Load()

			if !cmd.Flags().Changed("limit") {
				opts.limit = conf.MessagingLimit()
			}

			cfg, err := resolveMessagingConfig(prompt.New(out), opts)
			if err != nil {
				return err
			}

			return runStart(cmd, whatsappJob, cfg, opts.follow)
		},
	}

	cmd.Flags().StringVarP(&opts.template, "template", "t", "", "Message template")
	cmd.Flags().StringVar(&opts.templateFile, "template-file", "", "Read the message template from a file")
	cmd.Flags().IntVarP(&opts.limit, "limit", "l", config.DefaultJobLimit, "Daily send limit")
	cmd.Flags().BoolVarP(&opts.follow, "follow", "f", false, "Stream logs until the campaign finishes")
	cmd.MarkFlagsMutuallyExclusive("template", "template-file")

	return cmd
}

// resolveMessagingConfig builds the job config from flags, asking for a
// missing template when a terminal is available.
func resolveMessagingConfig(p *prompt.Prompter, opts whatsappStartOptions) (client.MessagingConfig, error) {
	cfg := client.MessagingConfig{
		MessageTemplate: strings.TrimSpace(opts.template),
		Limit:           opts.limit,
	}

	if opts.templateFile != "" {
		data, err := os.ReadFile(opts.templateFile)
		if err != nil {
			return cfg, clierrors.InvalidInput(
				fmt.Sprintf("Cannot read template file: %v", err),
				"Check the --template-file path",
			)
		}

		cfg.MessageTemplate = strings.TrimSpace(string(data))
	}

	if cfg.MessageTemplate == "" && opts.templateFile == "" {
		if !p.CanPrompt() {
			return cfg, clierrors.InvalidInput(
				"--template is required",
				"Pass --template or --template-file, or run in an interactive terminal",
			)
		}

		template, err := p.Text("Message template", "")
		if err != nil {
			return cfg, promptError(err)
		}

		limit, err := p.PositiveInt("Daily send limit", cfg.Limit)
		if err != nil {
			return cfg, promptError(err)
		}

		cfg.MessageTemplate = template
		cfg.Limit = limit
	}

	if err := cfg.Validate(); err != nil {
		return cfg, clierrors.InvalidInput(capitalize(err.Error()), "Run 'pilot whatsapp start --help' for the available flags")
	}

	return cfg, nil
}
