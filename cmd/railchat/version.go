package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/railchat"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of railchat",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "railchat version %s\n", strings.TrimSpace(railchat.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
