package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/railchat"
	"github.com/aretw0/railchat/internal/presentation/graph"
)

// rulesCmd represents the rules command
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Export the dialog rule catalog",
	Long:  `Outputs a Mermaid diagram (graph TD) of the rules and the fact kinds they match, or the catalog as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		engine, err := railchat.New()
		if err != nil {
			return fmt.Errorf("error initializing engine: %w", err)
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(engine.Rules())
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(engine.Rules(), nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.Flags().Bool("json", false, "Print the catalog as JSON")
}
