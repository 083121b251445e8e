package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/railchat/internal/logging"
	"github.com/aretw0/railchat/pkg/domain"
	"github.com/aretw0/railchat/pkg/ports"
)

// Apology replaces the reply of a turn that failed unexpectedly.
const Apology = "Sorry, something went wrong on my side. Please try that again."

// DefaultLockTTL bounds how long a crashed replica can hold a conversation.
const DefaultLockTTL = 30 * time.Second

// Engine runs one turn over a session. *railchat.Engine satisfies it.
type Engine interface {
	Turn(ctx context.Context, sess *domain.Session, ex domain.Extraction) (*domain.TurnResult, error)
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store  ports.SessionStore
	engine Engine

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks (default DefaultLockTTL).
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager that runs turns on engine and keeps accumulators in store.
func NewManager(store ports.SessionStore, engine Engine, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		engine:  engine,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewID returns a fresh conversation ID.
func NewID() string {
	return uuid.NewString()
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Start creates and stores a new, empty conversation.
func (m *Manager) Start(ctx context.Context) (*domain.Session, error) {
	sess := domain.NewSession(NewID())
	err := m.WithLock(ctx, sess.ID, func(ctx context.Context) error {
		return m.store.Save(ctx, sess.ID, sess)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}
	return sess, nil
}

// Handle runs one turn for the conversation, creating it on first use.
//
// A turn that fails inside the engine is logged and answered with Apology; the stored
// accumulator keeps its previous value and the returned result carries the failure
// in Error. Storage failures are returned as errors.
func (m *Manager) Handle(ctx context.Context, sessionID string, ex domain.Extraction) (*domain.TurnResult, error) {
	var res *domain.TurnResult
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		sess, err := m.store.Load(ctx, sessionID)
		if errors.Is(err, domain.ErrSessionNotFound) {
			sess, err = domain.NewSession(sessionID), nil
		}
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}

		res, err = m.engine.Turn(ctx, sess, ex)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			m.logger.Error("turn failed, session kept", "session_id", sessionID, "err", err)
			res = &domain.TurnResult{
				SessionID: sessionID,
				Messages:  []domain.Message{{Type: domain.MessageText, Text: Apology}},
				Error:     err.Error(),
			}
			return nil
		}

		if err := m.store.Save(ctx, sessionID, sess); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return nil
	})
	return res, err
}

// Reset runs a reset turn, which clears the accumulator and asks for an intent again.
func (m *Manager) Reset(ctx context.Context, sessionID string) (*domain.TurnResult, error) {
	return m.Handle(ctx, sessionID, domain.Extraction{Reset: true})
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	var sess *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		sess, err = m.store.Load(ctx, sessionID)
		return err
	})
	return sess, err
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
