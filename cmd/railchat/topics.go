package main

import (
	"fmt"

	loamlib "github.com/aretw0/loam"
	"github.com/spf13/cobra"

	"github.com/aretw0/railchat/pkg/adapters/loam"
	"github.com/aretw0/railchat/pkg/adapters/memory"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Manage the help topics repository",
}

var topicsSeedCmd = &cobra.Command{
	Use:   "seed <dir>",
	Short: "Write the built-in help answers as markdown topics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := loamlib.Init(args[0], loamlib.WithVersioning(false))
		if err != nil {
			return fmt.Errorf("failed to init topics repository: %w", err)
		}
		if err := loam.Seed(cmd.Context(), repo, memory.DefaultHelp); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d topics to %s\n", len(memory.DefaultHelp), args[0])
		return nil
	},
}

var topicsLsCmd = &cobra.Command{
	Use:   "ls [dir]",
	Short: "List help topics (default: help.dir from the config)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ""
		if len(args) > 0 {
			dir = args[0]
		} else {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dir = cfg.Help.Dir
		}

		var topics []string
		if dir == "" {
			topics, _ = memory.NewHelp(memory.DefaultHelp).Topics(cmd.Context())
		} else {
			help, err := loam.Open(dir)
			if err != nil {
				return err
			}
			if topics, err = help.Topics(cmd.Context()); err != nil {
				return err
			}
		}
		for _, t := range topics {
			fmt.Fprintln(cmd.OutOrStdout(), t)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(topicsCmd)
	topicsCmd.AddCommand(topicsSeedCmd)
	topicsCmd.AddCommand(topicsLsCmd)
}
