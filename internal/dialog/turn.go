// Package dialog holds the slot transition rules of the railchat conversation and the
// per-turn environment they act on.
//
// A turn starts from the session slots, which Begin replays into a fresh fact store.
// Rules then read the extraction of the current message, validate whatever it offers
// for the next missing slot and either assert that slot or ask for it. Every assertion
// is mirrored into Turn.Slots; the caller persists those slots once the turn succeeds.
package dialog

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/railchat/internal/facts"
	"github.com/aretw0/railchat/pkg/domain"
	"github.com/aretw0/railchat/pkg/ports"
)

// Collaborators are the services rules call out to. Nil Fares or Delays make the
// corresponding lookup report that it is unavailable.
type Collaborators struct {
	Stations ports.StationDirectory
	Fares    ports.FareFinder
	Delays   ports.DelayPredictor
	Help     ports.HelpSource
}

// Turn is the environment of one execution loop run.
type Turn struct {
	Extraction domain.Extraction
	Slots      domain.Slots
	Sink       ports.MessageSink
	Now        time.Time
	Deps       Collaborators
	Hooks      domain.LifecycleHooks

	seeded map[domain.Kind]uint64
	taken  map[string]bool
	tokens []bool
	used   bool
	ended  bool
}

// NewTurn prepares a turn over a copy of slots.
func NewTurn(ex domain.Extraction, slots domain.Slots, sink ports.MessageSink, now time.Time, deps Collaborators) *Turn {
	return &Turn{
		Extraction: ex,
		Slots:      slots.Clone(),
		Sink:       sink,
		Now:        now,
		Deps:       deps,
		seeded:     make(map[domain.Kind]uint64),
		taken:      make(map[string]bool),
		tokens:     make([]bool, len(ex.Uncategorized)),
	}
}

// Ended reports whether the conversation was closed during this turn.
func (t *Turn) Ended() bool {
	return t.ended
}

// Today returns the current date in 2006-01-02 form.
func (t *Turn) Today() string {
	return t.Now.Format(DateLayout)
}

func (t *Turn) say(ctx context.Context, text string) error {
	return t.Sink.SendMessage(ctx, text)
}

func (t *Turn) sayf(ctx context.Context, format string, args ...any) error {
	return t.Sink.SendMessage(ctx, fmt.Sprintf(format, args...))
}

func (t *Turn) choose(ctx context.Context, prompt string, options []string) error {
	return t.Sink.SendChoiceList(ctx, prompt, options)
}

// awaited reports whether every kind still holds the fact it was seeded with, which
// means the question that follows them was asked on an earlier turn.
func (t *Turn) awaited(store *facts.Store, kinds ...domain.Kind) bool {
	for _, k := range kinds {
		stamp, ok := t.seeded[k]
		if !ok || store.Stamp(k) != stamp {
			return false
		}
	}
	return true
}

// take returns an extraction field the first time it is asked for and "" afterwards.
func (t *Turn) take(field, value string) string {
	if value == "" || t.taken[field] {
		return ""
	}
	t.taken[field] = true
	t.used = true
	return value
}

// peek returns an extraction field without consuming it.
func (t *Turn) peek(field, value string) string {
	if t.taken[field] {
		return ""
	}
	return value
}

// confirmation hands out the yes/no answer of the message once per turn.
func (t *Turn) confirmation() domain.TriState {
	c := t.Extraction.Confirmation
	if c == domain.Unset || t.taken["confirmation"] {
		return domain.Unset
	}
	t.taken["confirmation"] = true
	t.used = true
	return c
}

// token pops the first unused uncategorized token of the given kind that accept
// approves.
func (t *Turn) token(kind domain.TokenKind, accept func(string) bool) (string, bool) {
	for i, tok := range t.Extraction.Uncategorized {
		if t.tokens[i] || tok.Kind != kind {
			continue
		}
		if accept != nil && !accept(tok.Value) {
			continue
		}
		t.tokens[i] = true
		t.used = true
		return tok.Value, true
	}
	return "", false
}

func (t *Turn) suggestions() []domain.Suggestion {
	if t.taken["suggestions"] || len(t.Extraction.Suggestions) == 0 {
		return nil
	}
	t.taken["suggestions"] = true
	t.used = true
	return t.Extraction.Suggestions
}

// lookup times a collaborator call and reports it to the hooks.
func (t *Turn) lookup(ctx context.Context, service string, call func() error) error {
	start := time.Now()
	err := call()
	if t.Hooks.OnLookup != nil {
		t.Hooks.OnLookup(ctx, &domain.LookupEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventLookup, SessionID: domain.SessionIDFrom(ctx)},
			Service:   service,
			Duration:  time.Since(start),
			IsError:   err != nil,
		})
	}
	return err
}

// Begin replays the slots into a new fact store and applies the reset guard.
func Begin(ctx context.Context, t *Turn) (*facts.Store, error) {
	if t.Extraction.Reset {
		t.Slots = make(domain.Slots)
		t.used = true
		if err := t.say(ctx, msgReset); err != nil {
			return nil, err
		}
	}
	store := facts.New(Seed(t.Slots)...)
	for _, f := range store.Facts() {
		t.seeded[f.Kind] = store.Stamp(f.Kind)
	}
	return store, nil
}
