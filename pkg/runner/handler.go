package runner

import (
	"context"

	"github.com/aretw0/railchat/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (terminal) and JSON (structured) modes.
type IOHandler interface {
	// Output presents the replies of one turn.
	Output(ctx context.Context, msgs []domain.Message) error

	// Input reads the next message. It returns io.EOF when the stream ends.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message, such as an input error.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms message text before output, e.g. markdown to ANSI.
type ContentRenderer func(string) (string, error)
