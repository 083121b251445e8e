package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrStationNotFound is returned by a station directory for unknown names.
var ErrStationNotFound = errors.New("station not found")

// ErrUnknownTopic is returned by a help source for unknown topics.
var ErrUnknownTopic = errors.New("unknown help topic")

// ErrIterationLimit is returned when a turn exceeds its firing budget.
var ErrIterationLimit = errors.New("rule firing limit reached")

// LookupError reports that a collaborator answered but could not satisfy the query,
// e.g. no route between the stations or a date outside the booking window.
// The dialog shows Reason to the user. Other collaborator errors abort the turn.
type LookupError struct {
	Service string
	Reason  string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s: %s", e.Service, e.Reason)
}

// PanicError carries a panic recovered while running a turn.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("turn panicked: %v", e.Value)
}

// RuleError wraps a failure raised by a rule action.
type RuleError struct {
	Rule string
	Err  error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %q: %v", e.Rule, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}
