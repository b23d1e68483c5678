package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/sdejongh/ftpwatch/pkg/config"
)

const redacted = "********"

// NewConfigCommand creates the config command
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `View, create or check the ftpwatch configuration.`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigValidateCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration with secrets redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			data, err := config.Marshal(redact(cfg))
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a sample configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := globalFlags.ConfigFile
			if path == "" {
				var err error
				if path, err = config.DefaultConfigPath(); err != nil {
					return err
				}
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
			}

			if err := config.SaveToFile(config.Example(), path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created at: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")

	return cmd
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration, credentials and exclude patterns",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			for i := range cfg.Targets {
				if _, err := buildEngine(cfg, &cfg.Targets[i], nil); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid (%d target(s))\n", len(cfg.Targets))
			return nil
		},
	}
}

// redact returns a copy of cfg with inline secrets masked
func redact(cfg *config.Config) *config.Config {
	out := *cfg
	out.Targets = make([]config.TargetConfig, len(cfg.Targets))
	for i, t := range cfg.Targets {
		if t.Credentials.Password != "" {
			t.Credentials.Password = redacted
		}
		if t.Credentials.Passphrase != "" {
			t.Credentials.Passphrase = redacted
		}
		out.Targets[i] = t
	}
	if out.State.S3.SecretKey != "" {
		out.State.S3.SecretKey = redacted
	}
	if out.State.Postgres.URL != "" {
		out.State.Postgres.URL = redacted
	}
	return &out
}
