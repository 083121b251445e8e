package domain

import (
	"sort"
	"strings"
)

// Kind identifies the type of a fact. The presence or absence of a kind in working
// memory encodes dialog progress.
type Kind string

const (
	KindQueryType      Kind = "queryType"
	KindDeparture      Kind = "departureLocation"
	KindArrival        Kind = "arrivalLocation"
	KindDelayTime      Kind = "delayTime"
	KindDepartureDate  Kind = "departureDate"
	KindLeavingTime    Kind = "leavingTime"
	KindReturnFlag     Kind = "returnFlag"
	KindReturnDate     Kind = "returnDate"
	KindReturnTime     Kind = "returnTime"
	KindCorrectBooking Kind = "correctBooking"
	KindHelpType       Kind = "helpType"
	KindHelpAnswered   Kind = "helpAnswered"

	// KindFarewell is never seeded from a session. It marks a conversation that ended
	// during the current turn so the dialog does not restart until the next one.
	KindFarewell Kind = "farewell"
)

// Attribute names shared by rules and seeding.
const (
	AttrValue   = "value"
	AttrName    = "name"
	AttrCode    = "code"
	AttrDate    = "date"
	AttrTime    = "time"
	AttrMinutes = "minutes"
	AttrTopic   = "topic"
)

// Fact is an assertion in working memory.
type Fact struct {
	Kind  Kind              `json:"kind"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

// NewFact builds a fact from alternating attribute name/value pairs.
// A trailing name without a value is ignored.
func NewFact(kind Kind, pairs ...string) Fact {
	f := Fact{Kind: kind, Attrs: make(map[string]string, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		f.Attrs[pairs[i]] = pairs[i+1]
	}
	return f
}

// Get returns an attribute value.
func (f Fact) Get(attr string) string {
	return f.Attrs[attr]
}

// Equal reports whether two facts have the same kind and attributes.
func (f Fact) Equal(o Fact) bool {
	if f.Kind != o.Kind || len(f.Attrs) != len(o.Attrs) {
		return false
	}
	for k, v := range f.Attrs {
		if ov, ok := o.Attrs[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// String renders the fact as kind(attr=value, ...) with attributes in name order.
func (f Fact) String() string {
	keys := make([]string, 0, len(f.Attrs))
	for k := range f.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(string(f.Kind))
	sb.WriteString("(")
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(f.Attrs[k])
	}
	sb.WriteString(")")
	return sb.String()
}
