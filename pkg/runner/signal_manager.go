package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// SignalManager ties a conversation to SIGINT and SIGTERM.
type SignalManager struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSignalManager derives a context from parent that is cancelled on Ctrl+C or SIGTERM.
func NewSignalManager(parent context.Context) *SignalManager {
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	return &SignalManager{ctx: ctx, cancel: cancel}
}

// Context returns the signal context.
func (sm *SignalManager) Context() context.Context {
	return sm.ctx
}

// Stop stops listening for signals and cancels the context.
func (sm *SignalManager) Stop() {
	sm.cancel()
}

// CheckRace waits briefly for a signal that may follow a read error. On some
// terminals Ctrl+C surfaces as EOF on stdin slightly before the signal arrives.
func (sm *SignalManager) CheckRace() {
	if sm.ctx.Err() != nil {
		return
	}
	select {
	case <-sm.ctx.Done():
	case <-time.After(100 * time.Millisecond):
	}
}

// Interrupted reports whether a signal ended the conversation.
func (sm *SignalManager) Interrupted() bool {
	return sm.ctx.Err() != nil
}
