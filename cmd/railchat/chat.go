package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/railchat/internal/cli"
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant in the terminal",
	Long: `Starts an interactive conversation. Replies are rendered as markdown on a terminal and
printed plainly otherwise. With --json, each input line is a JSON string or {"text": ...} object
and each turn is written as one line holding the array of replies.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonMode, _ := cmd.Flags().GetBool("json")
		plain, _ := cmd.Flags().GetBool("plain")
		sessionID, _ := cmd.Flags().GetString("session")
		fresh, _ := cmd.Flags().GetBool("fresh")
		noGreeting, _ := cmd.Flags().GetBool("no-greeting")

		app, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		return cli.RunChat(app, cli.ChatOptions{
			JSON:      jsonMode,
			Plain:     plain || !cli.IsTerminal(os.Stdout),
			SessionID: sessionID,
			Fresh:     fresh,
			Greeting:  !noGreeting && !jsonMode,
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	chatCmd.Flags().Bool("plain", false, "Disable the banner and markdown rendering")
	chatCmd.Flags().StringP("session", "s", "", "Conversation ID to resume (default: a new one)")
	chatCmd.Flags().Bool("fresh", false, "Forget the stored conversation before starting")
	chatCmd.Flags().Bool("no-greeting", false, "Do not greet before the first message")

	// 'chat' is the default if no command is provided
	rootCmd.RunE = chatCmd.RunE
	rootCmd.Flags().AddFlagSet(chatCmd.Flags())
}
