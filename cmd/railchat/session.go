package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored conversations",
	Long:  `List, inspect, and remove conversations kept by the configured session store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		sessions, err := app.Sessions.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No stored conversations found.")
			return nil
		}
		fmt.Fprintln(out, "Conversations:")
		for _, s := range sessions {
			fmt.Fprintln(out, "- "+s)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Show the trip details collected in a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		sess, err := app.Sessions.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", args[0], err)
		}

		data, err := json.MarshalIndent(sess, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling session: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm [session-id]...",
	Short: "Remove one or more conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if !all && len(args) == 0 {
			return fmt.Errorf("give at least one session id, or --all")
		}

		app, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		ids := args
		if all {
			if ids, err = app.Sessions.List(cmd.Context()); err != nil {
				return fmt.Errorf("error listing sessions: %w", err)
			}
		}

		failed := 0
		for _, sessionID := range ids {
			if err := app.Sessions.Delete(cmd.Context(), sessionID); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", sessionID, err)
				failed++
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", sessionID)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d sessions could not be removed", failed, len(ids))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)

	sessionRmCmd.Flags().Bool("all", false, "Remove every stored conversation")
}
