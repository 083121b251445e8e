package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/railchat/internal/cli"
	"github.com/aretw0/railchat/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "railchat",
	Short: "railchat is a conversational train travel assistant",
	Long: `railchat books train tickets, predicts delayed arrivals and answers travel questions
through a rule-driven conversation. Run it interactively, as an HTTP service or as an MCP server.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultPath, "Path to the railchat YAML config")
	rootCmd.PersistentFlags().Bool("debug", false, "Log at debug level and trace every rule firing")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// buildApp loads the config and wires the collaborators. Logs go to Stderr.
func buildApp(cmd *cobra.Command) (*cli.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	debug, _ := cmd.Flags().GetBool("debug")
	logger, err := cli.NewLogger(cfg.Log, os.Stderr, debug)
	if err != nil {
		return nil, err
	}
	return cli.Build(cmd.Context(), cfg, logger, debug)
}
