/*
Package runner drives a railchat conversation over a line-oriented stream.

It reads one message at a time from an IOHandler, passes it through Respond
(sanitize, extract, session turn) and writes the replies back. The same Respond
pipeline is used by the HTTP, websocket and MCP adapters.

# Key Components

  - Runner: the read/respond/write loop for one conversation.
  - TextHandler: interactive terminal IO with numbered choice lists.
  - JSONHandler: JSON-lines IO for scripting and tests.

# Usage

	r := runner.NewRunner(manager, extractor,
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
