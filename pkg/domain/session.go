package domain

import (
	"maps"
	"time"
)

// Slot keys stored in a Session.
const (
	SlotIntent       = "intent"
	SlotFromStation  = "from_station"
	SlotFromCode     = "from_crs"
	SlotToStation    = "to_station"
	SlotToCode       = "to_crs"
	SlotDelayMinutes = "delay_minutes"
	SlotOutwardDate  = "outward_date"
	SlotOutwardTime  = "outward_time"
	SlotReturnFlag   = "return_flag"
	SlotReturnDate   = "return_date"
	SlotReturnTime   = "return_time"
	SlotConfirmed    = "booking_confirmed"
	SlotHelpTopic    = "help_topic"
	SlotHelpAnswered = "help_answered"
)

// NotApplicable fills the return date and time of a single journey.
const NotApplicable = "n/a"

// Slots maps slot keys to validated values.
type Slots map[string]string

// Clone returns an independent copy. A nil receiver yields an empty map.
func (s Slots) Clone() Slots {
	out := make(Slots, len(s))
	maps.Copy(out, s)
	return out
}

// Session is the durable per-conversation accumulator. It outlives the working memory
// of a single turn and is the only state kept between turns.
type Session struct {
	ID        string    `json:"id"`
	Slots     Slots     `json:"slots"`
	Turns     int       `json:"turns"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates an empty session.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		Slots:     make(Slots),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy safe for mutation.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	next := *s
	next.Slots = s.Slots.Clone()
	return &next
}
