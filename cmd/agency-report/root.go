package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/agency-report/internal/config"
	"github.com/Sternrassler/agency-report/pkg/logging"
)

// cliState is filled by the root command before any subcommand runs.
type cliState struct {
	configFile string
	envFile    string
	cfg        config.Config
}

func newRootCmd() *cobra.Command {
	state := &cliState{}

	cmd := &cobra.Command{
		Use:   "agency-report",
		Short: "Count listed agencies by region and service group",
		Long: `agency-report pages through the agency listings API, classifies every
agency by region and service group and prints or serves the resulting counts.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadEnvFile(state.envFile, cmd.Flags().Changed("env-file")); err != nil {
				return err
			}

			cfg, err := config.Load(state.configFile)
			if err != nil {
				return err
			}
			state.cfg = cfg

			logCfg := cfg.LoggingConfig()
			logCfg.Output = cmd.ErrOrStderr()
			logging.Setup(logCfg)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&state.configFile, "config", "", "config file (YAML)")
	cmd.PersistentFlags().StringVar(&state.envFile, "env-file", ".env", "dotenv file loaded before the configuration")

	cmd.AddCommand(newReportCmd(state))
	cmd.AddCommand(newServeCmd(state))

	return cmd
}

// loadEnvFile loads path into the process environment without overriding
// variables that are already set. A missing default file is ignored.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}
