package runner

import (
	"context"
	"fmt"

	"github.com/aretw0/railchat/pkg/domain"
	"github.com/aretw0/railchat/pkg/ports"
)

// Sessions runs turns for keyed conversations. *session.Manager satisfies it.
type Sessions interface {
	Handle(ctx context.Context, sessionID string, ex domain.Extraction) (*domain.TurnResult, error)
}

// Respond runs one free-text message through sanitizing, extraction and a session turn.
// Sanitizer errors (ErrInputTooLarge, ErrInvalidUTF8) are returned unwrapped.
func Respond(ctx context.Context, sessions Sessions, extractor ports.Extractor, sessionID, text string) (*domain.TurnResult, error) {
	clean, err := SanitizeInput(text)
	if err != nil {
		return nil, err
	}
	ex, err := extractor.Extract(ctx, clean)
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}
	return sessions.Handle(ctx, sessionID, ex)
}
