// Package runtime runs a catalog of production rules against a fact store until no rule
// can fire.
//
// Rules are generic over the environment E an action receives, so the engine knows
// nothing about dialogs. On every cycle the agenda is rebuilt; the activation with the
// highest salience fires, ties going to the rule declared first in the catalog.
// An activation that already fired does not fire again until one of the facts it
// matched is replaced, or a kind it requires to be absent is removed again.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/railchat/internal/facts"
	"github.com/aretw0/railchat/internal/logging"
	"github.com/aretw0/railchat/pkg/domain"
)

// DefaultMaxFirings bounds a single Run.
const DefaultMaxFirings = 64

// Action is the right-hand side of a rule.
type Action[E any] func(ctx context.Context, rc *Context[E]) error

// Rule is a production: when every Match pattern matches and no fact of an Absent kind
// exists, Action may fire.
type Rule[E any] struct {
	Name     string
	Salience int
	Match    []facts.Pattern
	Absent   []domain.Kind
	Action   Action[E]
}

// Context is handed to a firing action.
type Context[E any] struct {
	Rule     string
	Bindings facts.Bindings
	Facts    *facts.Store
	Env      E
}

// Result summarises a Run.
type Result struct {
	Fired []string
}

// Engine evaluates a fixed rule catalog.
type Engine[E any] struct {
	rules      []Rule[E]
	maxFirings int
	logger     *slog.Logger
	hooks      domain.LifecycleHooks
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	maxFirings int
	logger     *slog.Logger
	hooks      domain.LifecycleHooks
}

// WithMaxFirings overrides DefaultMaxFirings. Values below one are ignored.
func WithMaxFirings(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxFirings = n
		}
	}
}

// WithLogger sets the logger used for rule tracing.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(o *options) {
		o.hooks = h
	}
}

// NewEngine validates the catalog and builds an engine.
func NewEngine[E any](rules []Rule[E], opts ...Option) (*Engine[E], error) {
	o := options{maxFirings: DefaultMaxFirings, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	seen := make(map[string]struct{}, len(rules))
	for i, r := range rules {
		if r.Name == "" {
			return nil, fmt.Errorf("rule %d has no name", i)
		}
		if _, dup := seen[r.Name]; dup {
			return nil, fmt.Errorf("duplicate rule name %q", r.Name)
		}
		if r.Action == nil {
			return nil, fmt.Errorf("rule %q has no action", r.Name)
		}
		seen[r.Name] = struct{}{}
	}

	return &Engine[E]{
		rules:      append([]Rule[E](nil), rules...),
		maxFirings: o.maxFirings,
		logger:     o.logger,
		hooks:      o.hooks,
	}, nil
}

// RuleInfo describes a catalog entry without its action.
type RuleInfo struct {
	Name     string   `json:"name"`
	Salience int      `json:"salience"`
	Match    []string `json:"match,omitempty"`
	Absent   []string `json:"absent,omitempty"`
}

// Rules lists the catalog in declaration order.
func (e *Engine[E]) Rules() []RuleInfo {
	out := make([]RuleInfo, len(e.rules))
	for i, r := range e.rules {
		info := RuleInfo{Name: r.Name, Salience: r.Salience}
		for _, p := range r.Match {
			info.Match = append(info.Match, describe(p))
		}
		for _, k := range r.Absent {
			info.Absent = append(info.Absent, string(k))
		}
		out[i] = info
	}
	return out
}

func describe(p facts.Pattern) string {
	if len(p.Attrs) == 0 {
		return string(p.Kind)
	}
	attrs := make([]string, 0, len(p.Attrs))
	for name, t := range p.Attrs {
		switch {
		case t.Var != "" && len(t.Values) > 0:
			attrs = append(attrs, name+"=?"+t.Var+" in "+strings.Join(t.Values, "|"))
		case t.Var != "":
			attrs = append(attrs, name+"=?"+t.Var)
		default:
			attrs = append(attrs, name+" in "+strings.Join(t.Values, "|"))
		}
	}
	sort.Strings(attrs)
	return string(p.Kind) + "(" + strings.Join(attrs, ", ") + ")"
}

type activation struct {
	rule     int
	bindings facts.Bindings
	key      string
}

// Run fires rules until the agenda is empty. It fails with domain.ErrIterationLimit when
// the firing budget is exhausted, with a *domain.RuleError when an action fails, and
// with the context error when ctx is done.
func (e *Engine[E]) Run(ctx context.Context, store *facts.Store, env E) (Result, error) {
	var res Result
	fired := make(map[string]struct{})

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		next, ok := e.selectActivation(store, fired)
		if !ok {
			return res, nil
		}
		if len(res.Fired) >= e.maxFirings {
			return res, fmt.Errorf("%w after %d firings (next: %s)", domain.ErrIterationLimit, len(res.Fired), e.rules[next.rule].Name)
		}

		rule := e.rules[next.rule]
		fired[next.key] = struct{}{}
		before := store.Revision()

		rc := &Context[E]{Rule: rule.Name, Bindings: next.bindings, Facts: store, Env: env}
		err := rule.Action(ctx, rc)
		res.Fired = append(res.Fired, rule.Name)

		changed := store.Revision() != before
		e.logger.Debug("rule fired", "rule", rule.Name, "salience", rule.Salience, "changed", changed)
		if e.hooks.OnRuleFire != nil {
			e.hooks.OnRuleFire(ctx, &domain.RuleEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRuleFire, SessionID: domain.SessionIDFrom(ctx)},
				Rule:      rule.Name,
				Salience:  rule.Salience,
				Changed:   changed,
			})
		}

		if err != nil {
			var re *domain.RuleError
			if errors.As(err, &re) {
				return res, err
			}
			return res, &domain.RuleError{Rule: rule.Name, Err: err}
		}
	}
}

func (e *Engine[E]) selectActivation(store *facts.Store, fired map[string]struct{}) (activation, bool) {
	var (
		best  activation
		found bool
	)
	for i, r := range e.rules {
		if found && r.Salience <= e.rules[best.rule].Salience {
			continue
		}
		if !absent(store, r.Absent) {
			continue
		}
		for _, b := range store.Match(r.Match) {
			key := activationKey(store, i, r, b)
			if _, done := fired[key]; done {
				continue
			}
			best = activation{rule: i, bindings: b, key: key}
			found = true
			break
		}
	}
	return best, found
}

func absent(store *facts.Store, kinds []domain.Kind) bool {
	for _, k := range kinds {
		if _, ok := store.Get(k); ok {
			return false
		}
	}
	return true
}

// activationKey identifies a rule instance by the versions of the facts it matched and
// by how often its absent kinds have been removed.
func activationKey[E any](store *facts.Store, idx int, r Rule[E], b facts.Bindings) string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(idx))
	sb.WriteByte('|')
	for _, p := range r.Match {
		sb.WriteString(strconv.FormatUint(store.Stamp(p.Kind), 10))
		sb.WriteByte(',')
	}
	sb.WriteByte('|')
	for _, k := range r.Absent {
		sb.WriteString(strconv.FormatUint(store.Retractions(k), 10))
		sb.WriteByte(',')
	}
	sb.WriteByte('|')
	sb.WriteString(b.Key())
	return sb.String()
}
