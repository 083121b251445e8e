package cli

import (
	"io"
)

// ChatOptions contains all the configuration for the chat command.
type ChatOptions struct {
	JSON      bool
	Plain     bool // no banner, no markdown rendering
	SessionID string
	Fresh     bool // delete the stored session before starting
	Greeting  bool

	In  io.Reader
	Out io.Writer
}
