package ports

import (
	"context"

	"github.com/aretw0/railchat/pkg/domain"
)

// SessionStore persists conversation accumulators between turns.
type SessionStore interface {
	// Save persists the session under the given ID.
	Save(ctx context.Context, sessionID string, session *domain.Session) error

	// Load retrieves a session.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
