// Package facts implements the working memory of the rule engine.
//
// A Store holds at most one fact per kind. Positive patterns match facts by kind and
// attribute constraints and bind variables across patterns, so the same variable in two
// patterns must take the same value in both facts. Stores are not safe for concurrent
// use; a store lives inside a single turn.
package facts

import (
	"github.com/aretw0/railchat/pkg/domain"
)

// Store is a kind-indexed fact collection that remembers insertion order.
type Store struct {
	byKind    map[domain.Kind]domain.Fact
	order     []domain.Kind
	stamps    map[domain.Kind]uint64
	retracted map[domain.Kind]uint64
	revision  uint64
}

// New creates an empty store preloaded with the given facts.
func New(seed ...domain.Fact) *Store {
	s := &Store{
		byKind:    make(map[domain.Kind]domain.Fact),
		stamps:    make(map[domain.Kind]uint64),
		retracted: make(map[domain.Kind]uint64),
	}
	for _, f := range seed {
		s.Assert(f)
	}
	return s
}

// Assert adds f, replacing any fact of the same kind. It reports whether the store
// changed; asserting a fact identical to the stored one is a no-op.
func (s *Store) Assert(f domain.Fact) bool {
	f = clone(f)
	if cur, ok := s.byKind[f.Kind]; ok {
		if cur.Equal(f) {
			return false
		}
		s.byKind[f.Kind] = f
		s.revision++
		s.stamps[f.Kind] = s.revision
		return true
	}
	s.byKind[f.Kind] = f
	s.order = append(s.order, f.Kind)
	s.revision++
	s.stamps[f.Kind] = s.revision
	return true
}

// Retract removes the fact of the given kind. It reports whether a fact was removed.
func (s *Store) Retract(kind domain.Kind) bool {
	if _, ok := s.byKind[kind]; !ok {
		return false
	}
	delete(s.byKind, kind)
	delete(s.stamps, kind)
	s.retracted[kind]++
	for i, k := range s.order {
		if k == kind {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.revision++
	return true
}

// Clear removes every fact.
func (s *Store) Clear() {
	if len(s.order) == 0 {
		return
	}
	for _, k := range s.order {
		s.retracted[k]++
	}
	s.byKind = make(map[domain.Kind]domain.Fact)
	s.stamps = make(map[domain.Kind]uint64)
	s.order = nil
	s.revision++
}

// Get returns the fact of the given kind.
func (s *Store) Get(kind domain.Kind) (domain.Fact, bool) {
	f, ok := s.byKind[kind]
	if !ok {
		return domain.Fact{}, false
	}
	return clone(f), true
}

// Has reports whether a fact of the given kind exists and carries every attribute value
// in filter.
func (s *Store) Has(kind domain.Kind, filter map[string]string) bool {
	f, ok := s.byKind[kind]
	if !ok {
		return false
	}
	for k, v := range filter {
		if f.Attrs[k] != v {
			return false
		}
	}
	return true
}

// Len returns the number of facts.
func (s *Store) Len() int {
	return len(s.order)
}

// Revision increases on every change to the store.
func (s *Store) Revision() uint64 {
	return s.revision
}

// Stamp identifies the current version of the fact of the given kind. It changes
// whenever that fact is replaced and is zero when no such fact exists.
func (s *Store) Stamp(kind domain.Kind) uint64 {
	return s.stamps[kind]
}

// Retractions counts how many times a fact of the given kind has been removed.
func (s *Store) Retractions(kind domain.Kind) uint64 {
	return s.retracted[kind]
}

// Facts returns a copy of all facts in insertion order.
func (s *Store) Facts() []domain.Fact {
	out := make([]domain.Fact, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, clone(s.byKind[k]))
	}
	return out
}

func clone(f domain.Fact) domain.Fact {
	out := domain.Fact{Kind: f.Kind, Attrs: make(map[string]string, len(f.Attrs))}
	for k, v := range f.Attrs {
		out.Attrs[k] = v
	}
	return out
}
