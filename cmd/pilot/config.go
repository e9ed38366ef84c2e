package main

import (
	"github.com/spf13/cobra"

	"github.com/leadpilot/pilot/internal/config"
	clierrors "github.com/leadpilot/pilot/internal/errors"
	"github.com/leadpilot/pilot/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `View and modify pilot configuration settings.`,
	}

	cmd.AddCommand(newConfigListCmd())
	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigSetCmd())

	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		Long: `Display every configuration setting with its effective value. Values come
from PILOT_* environment variables, a .env file, the config file or the
built-in defaults, in that order.`,
		Example: `  pilot config list
  pilot config list --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			cfg := config.Load()

			if out.JSON {
				settings := make(map[string]any, len(config.Keys()))
				for _, key := range config.Keys() {
					settings[key] = cfg.Get(key)
				}

				return out.PrintJSON(settings)
			}

			for _, key := range config.Keys() {
				out.Print("%s = %v\n", key, cfg.Get(key))
			}

			if file := cfg.ConfigFileUsed(); file != "" {
				out.Println()
				out.Muted("Config file: %s", file)
			}

			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <key>",
		Short:   "Get a configuration value",
		Long:    `Retrieve and display the effective value of a single configuration key.`,
		Example: `  pilot config get api.url`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			key := args[0]

			if !config.IsKnownKey(key) {
				return clierrors.UnknownConfigKey(key, config.Keys())
			}

			value := config.Load().Get(key)

			if out.JSON {
				return out.PrintJSON(map[string]any{key: value})
			}

			out.Print("%s = %v\n", key, value)

			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long:  `Set a configuration key to the given value. The value is persisted to the config file.`,
		Example: `  pilot config set api.url http://192.168.1.20:8000
  pilot config set jobs.poll_interval 5s`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			key, value := args[0], args[1]

			if !config.IsKnownKey(key) {
				return clierrors.UnknownConfigKey(key, config.Keys())
			}

			if err := config.Load().Set(key, value); err != nil {
				return clierrors.ConfigFailed("set "+key, err)
			}

			out.Success("Set %s = %s", key, value)

			return nil
		},
	}
}
