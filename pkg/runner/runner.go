package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/railchat/internal/logging"
	"github.com/aretw0/railchat/pkg/domain"
	"github.com/aretw0/railchat/pkg/ports"
	"github.com/aretw0/railchat/pkg/session"
)

// Runner reads messages from a Handler and answers them turn by turn until the input
// ends, the user types exit or quit, the conversation closes, or a signal arrives.
type Runner struct {
	// Handler is the strategy for IO. Defaults to a TextHandler on Stdin/Stdout.
	Handler IOHandler

	// Logger is used for internal debug logging.
	Logger *slog.Logger

	// SessionID names the conversation in the session store.
	SessionID string

	// Greet opens the conversation with a greeting turn.
	Greet bool

	sessions  Sessions
	extractor ports.Extractor
}

// NewRunner creates a Runner over the given sessions and extractor.
func NewRunner(sessions Sessions, extractor ports.Extractor, opts ...Option) *Runner {
	r := &Runner{
		Logger:    logging.NewNop(),
		sessions:  sessions,
		extractor: extractor,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	if r.SessionID == "" {
		r.SessionID = session.NewID()
	}
	return r
}

// Run executes the conversation loop. A signal or the end of input is a normal exit.
func (r *Runner) Run(ctx context.Context) error {
	signals := NewSignalManager(ctx)
	defer signals.Stop()
	ctx = signals.Context()

	r.Logger.Debug("conversation started", "session_id", r.SessionID)

	if r.Greet {
		res, err := r.sessions.Handle(ctx, r.SessionID, domain.Extraction{Greeting: true})
		if err != nil {
			return fmt.Errorf("greeting failed: %w", err)
		}
		if err := r.Handler.Output(ctx, res.Messages); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}

	for {
		text, err := r.Handler.Input(ctx)
		if err != nil {
			signals.CheckRace()
			switch {
			case signals.Interrupted():
				r.Logger.Debug("conversation interrupted", "session_id", r.SessionID)
				return nil
			case errors.Is(err, io.EOF):
				return nil
			case errors.Is(err, ErrInputTooLarge), errors.Is(err, ErrInvalidUTF8):
				if err := r.Handler.SystemOutput(ctx, err.Error()); err != nil {
					return fmt.Errorf("output error: %w", err)
				}
				continue
			}
			return fmt.Errorf("input error: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(text)) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		res, err := Respond(ctx, r.sessions, r.extractor, r.SessionID, text)
		if err != nil {
			if signals.Interrupted() {
				return nil
			}
			return err
		}
		if err := r.Handler.Output(ctx, res.Messages); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
		if res.Ended {
			r.Logger.Debug("conversation ended", "session_id", r.SessionID)
			return nil
		}
	}
}
