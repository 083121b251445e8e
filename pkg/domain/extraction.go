package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Intent values understood by the dialog.
const (
	IntentTicket = "ticket"
	IntentDelay  = "delay"
	IntentHelp   = "help"
	IntentCancel = "cancel"
	IntentChange = "change"
)

// ValidIntent reports whether s is one of the supported intents.
func ValidIntent(s string) bool {
	switch s {
	case IntentTicket, IntentDelay, IntentHelp, IntentCancel, IntentChange:
		return true
	}
	return false
}

// TriState is a yes/no answer that may be absent.
type TriState int8

const (
	Unset TriState = iota
	Yes
	No
)

// TriStateOf converts a boolean to Yes or No.
func TriStateOf(b bool) TriState {
	if b {
		return Yes
	}
	return No
}

func (t TriState) String() string {
	switch t {
	case Yes:
		return "true"
	case No:
		return "false"
	}
	return ""
}

// MarshalJSON encodes Yes/No as booleans and Unset as an empty string.
func (t TriState) MarshalJSON() ([]byte, error) {
	switch t {
	case Yes:
		return []byte("true"), nil
	case No:
		return []byte("false"), nil
	}
	return []byte(`""`), nil
}

// UnmarshalJSON accepts true, false, null, "" and the strings "true"/"false"/"yes"/"no".
func (t *TriState) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseTriState(raw)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseTriState converts a loosely typed value into a TriState.
func ParseTriState(v any) (TriState, error) {
	switch x := v.(type) {
	case nil:
		return Unset, nil
	case TriState:
		return x, nil
	case bool:
		return TriStateOf(x), nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "":
			return Unset, nil
		case "true", "yes", "y":
			return Yes, nil
		case "false", "no", "n":
			return No, nil
		}
	}
	return Unset, fmt.Errorf("invalid confirmation value %v", v)
}

// TokenKind classifies an uncategorized token.
type TokenKind string

const (
	TokenDate TokenKind = "date"
	TokenTime TokenKind = "time"
	TokenText TokenKind = "text"
)

// Token is a piece of the message the extractor could not assign to a slot.
// Dates use the 2006-01-02 layout and times 15:04.
type Token struct {
	Kind  TokenKind `json:"kind" mapstructure:"kind"`
	Value string    `json:"value" mapstructure:"value"`
}

// Suggestion is a fuzzy-match candidate offered when a station could not be resolved.
// Exactly one of Station or Location is set.
type Suggestion struct {
	Station  string `json:"station,omitempty" mapstructure:"station"`
	Location string `json:"location,omitempty" mapstructure:"location"`
}

// Extraction is the structured reading of one user message. Dates use the 2006-01-02
// layout and times 15:04. It is read-only for the engine.
type Extraction struct {
	Intent        string       `json:"intent" mapstructure:"intent"`
	Reset         bool         `json:"reset" mapstructure:"reset"`
	Greeting      bool         `json:"includes_greeting" mapstructure:"includes_greeting"`
	FromStation   string       `json:"from_station" mapstructure:"from_station"`
	FromCode      string       `json:"from_crs" mapstructure:"from_crs"`
	ToStation     string       `json:"to_station" mapstructure:"to_station"`
	ToCode        string       `json:"to_crs" mapstructure:"to_crs"`
	OutwardDate   string       `json:"outward_date" mapstructure:"outward_date"`
	OutwardTime   string       `json:"outward_time" mapstructure:"outward_time"`
	ReturnDate    string       `json:"return_date" mapstructure:"return_date"`
	ReturnTime    string       `json:"return_time" mapstructure:"return_time"`
	Confirmation  TriState     `json:"confirmation" mapstructure:"confirmation"`
	Uncategorized []Token      `json:"no_category" mapstructure:"no_category"`
	Suggestions   []Suggestion `json:"suggestion" mapstructure:"suggestion"`
	Sanitized     string       `json:"sanitized_message" mapstructure:"sanitized_message"`
	Raw           string       `json:"raw_message" mapstructure:"raw_message"`
}

// Text returns the sanitized message, falling back to the raw one.
func (e Extraction) Text() string {
	if e.Sanitized != "" {
		return e.Sanitized
	}
	return e.Raw
}
