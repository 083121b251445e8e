package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTurnStart EventType = "turn_start"
	EventTurnEnd   EventType = "turn_end"
	EventRuleFire  EventType = "rule_fire"
	EventLookup    EventType = "lookup"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// TurnEvent marks the start or end of an execution loop run.
type TurnEvent struct {
	EventBase
	Firings int   `json:"firings,omitempty"`
	Err     error `json:"-"`
}

// RuleEvent represents one rule firing.
type RuleEvent struct {
	EventBase
	Rule     string `json:"rule"`
	Salience int    `json:"salience"`
	Changed  bool   `json:"changed"`
}

// LookupEvent represents a collaborator call made by a rule.
type LookupEvent struct {
	EventBase
	Service  string        `json:"service"`
	Duration time.Duration `json:"duration"`
	IsError  bool          `json:"is_error,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability. Nil hooks are skipped.
type LifecycleHooks struct {
	OnTurnStart func(context.Context, *TurnEvent)
	OnTurnEnd   func(context.Context, *TurnEvent)
	OnRuleFire  func(context.Context, *RuleEvent)
	OnLookup    func(context.Context, *LookupEvent)
}

// sessionIDKey carries the conversation id into hooks.
type sessionIDKey struct{}

// ContextWithSessionID attaches a session id to ctx.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

// SessionIDFrom returns the session id attached to ctx, if any.
func SessionIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey{}).(string)
	return id
}
