package facts

import (
	"slices"
	"sort"
	"strings"

	"github.com/aretw0/railchat/pkg/domain"
)

// Term constrains one attribute of a pattern. A term with Var set binds the attribute
// to a variable; a term with Values requires the attribute to equal one of them.
// Both may be set.
type Term struct {
	Var    string
	Values []string
}

// Var binds an attribute to a named variable.
func Var(name string) Term {
	return Term{Var: name}
}

// Is requires an attribute to take one of the given values.
func Is(values ...string) Term {
	return Term{Values: values}
}

// Bind combines a variable with a value constraint.
func (t Term) Bind(name string) Term {
	t.Var = name
	return t
}

// Pattern selects facts of one kind.
type Pattern struct {
	Kind  domain.Kind
	Attrs map[string]Term
}

// P is shorthand for a pattern without attribute constraints.
func P(kind domain.Kind) Pattern {
	return Pattern{Kind: kind}
}

// Where adds an attribute constraint.
func (p Pattern) Where(attr string, t Term) Pattern {
	attrs := make(map[string]Term, len(p.Attrs)+1)
	for k, v := range p.Attrs {
		attrs[k] = v
	}
	attrs[attr] = t
	p.Attrs = attrs
	return p
}

// Bindings maps variable names to values.
type Bindings map[string]string

// Key renders the bindings deterministically.
func (b Bindings) Key() string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(b[k])
		sb.WriteByte(';')
	}
	return sb.String()
}

// Match returns every consistent set of bindings for the patterns. An empty pattern list
// matches once with no bindings. With one fact per kind the result holds at most one
// element, but the join is written for the general case.
func (s *Store) Match(patterns []Pattern) []Bindings {
	results := []Bindings{{}}
	for _, p := range patterns {
		var next []Bindings
		for _, b := range results {
			for _, f := range s.candidates(p.Kind) {
				if nb, ok := unify(p, f, b); ok {
					next = append(next, nb)
				}
			}
		}
		if len(next) == 0 {
			return nil
		}
		results = next
	}
	return results
}

func (s *Store) candidates(kind domain.Kind) []domain.Fact {
	f, ok := s.byKind[kind]
	if !ok {
		return nil
	}
	return []domain.Fact{f}
}

func unify(p Pattern, f domain.Fact, b Bindings) (Bindings, bool) {
	out := b
	copied := false
	for attr, t := range p.Attrs {
		v, ok := f.Attrs[attr]
		if !ok {
			return nil, false
		}
		if len(t.Values) > 0 && !slices.Contains(t.Values, v) {
			return nil, false
		}
		if t.Var == "" {
			continue
		}
		if bound, ok := out[t.Var]; ok {
			if bound != v {
				return nil, false
			}
			continue
		}
		if !copied {
			out = make(Bindings, len(b)+len(p.Attrs))
			for k, bv := range b {
				out[k] = bv
			}
			copied = true
		}
		out[t.Var] = v
	}
	return out, true
}
