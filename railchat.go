package railchat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/railchat/internal/dialog"
	"github.com/aretw0/railchat/internal/logging"
	"github.com/aretw0/railchat/internal/runtime"
	"github.com/aretw0/railchat/pkg/adapters/memory"
	"github.com/aretw0/railchat/pkg/domain"
	"github.com/aretw0/railchat/pkg/ports"
)

// RuleInfo describes one entry of the rule catalog.
type RuleInfo = runtime.RuleInfo

// Engine is the high-level entry point of the railchat library. It owns the rule
// catalog and the collaborators, and runs one conversational turn at a time. An
// Engine holds no conversation state and is safe for concurrent use as long as the
// collaborators are.
type Engine struct {
	rules      *runtime.Engine[*dialog.Turn]
	deps       dialog.Collaborators
	clock      func() time.Time
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	maxFirings int
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock replaces time.Now, which decides what "today" means for date validation.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithStations sets the station directory (default: memory.SampleStations).
func WithStations(dir ports.StationDirectory) Option {
	return func(e *Engine) {
		e.deps.Stations = dir
	}
}

// WithFares sets the fare service. Without one, confirmed bookings report that fares
// are unavailable.
func WithFares(f ports.FareFinder) Option {
	return func(e *Engine) {
		e.deps.Fares = f
	}
}

// WithDelays sets the delay predictor.
func WithDelays(p ports.DelayPredictor) Option {
	return func(e *Engine) {
		e.deps.Delays = p
	}
}

// WithHelp sets the help source (default: memory.DefaultHelp).
func WithHelp(h ports.HelpSource) Option {
	return func(e *Engine) {
		e.deps.Help = h
	}
}

// WithMaxFirings bounds the rule firings of a single turn.
func WithMaxFirings(n int) Option {
	return func(e *Engine) {
		e.maxFirings = n
	}
}

// New builds an Engine over the dialog rule catalog.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{clock: time.Now}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.deps.Stations == nil {
		eng.deps.Stations = memory.NewDirectory(memory.SampleStations...)
	}
	if eng.deps.Help == nil {
		eng.deps.Help = memory.NewHelp(memory.DefaultHelp)
	}

	rules, err := runtime.NewEngine(dialog.Catalog(),
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithMaxFirings(eng.maxFirings),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid rule catalog: %w", err)
	}
	eng.rules = rules
	return eng, nil
}

// Rules lists the rule catalog in declaration order.
func (e *Engine) Rules() []RuleInfo {
	return e.rules.Rules()
}

// Turn runs the execution loop once for the given message. On success the session
// slots are replaced by the slots the rules settled and the session turn counter
// advances. On failure the session is left untouched; panics inside rules or
// collaborators are returned as *domain.PanicError.
func (e *Engine) Turn(ctx context.Context, sess *domain.Session, ex domain.Extraction) (res *domain.TurnResult, err error) {
	if sess == nil {
		return nil, errors.New("nil session")
	}
	ctx = domain.ContextWithSessionID(ctx, sess.ID)
	logger := e.logger.With("session_id", sess.ID)

	if e.hooks.OnTurnStart != nil {
		e.hooks.OnTurnStart(ctx, &domain.TurnEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventTurnStart, SessionID: sess.ID},
		})
	}

	var fired int
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, &domain.PanicError{Value: r}
		}
		if err != nil {
			logger.Error("turn failed", "error", err, "firings", fired)
		}
		if e.hooks.OnTurnEnd != nil {
			e.hooks.OnTurnEnd(ctx, &domain.TurnEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventTurnEnd, SessionID: sess.ID},
				Firings:   fired,
				Err:       err,
			})
		}
	}()

	var out domain.Outbox
	turn := dialog.NewTurn(ex, sess.Slots, &out, e.clock(), e.deps)
	turn.Hooks = e.hooks

	store, err := dialog.Begin(ctx, turn)
	if err != nil {
		return nil, err
	}
	result, err := e.rules.Run(ctx, store, turn)
	fired = len(result.Fired)
	if err != nil {
		return nil, fmt.Errorf("turn %d: %w", sess.Turns+1, err)
	}

	sess.Slots = turn.Slots
	sess.Turns++
	sess.UpdatedAt = time.Now().UTC()

	logger.Info("turn complete", "firings", fired, "messages", len(out.Messages))
	return &domain.TurnResult{
		SessionID: sess.ID,
		Messages:  out.Messages,
		Fired:     result.Fired,
		Facts:     store.Facts(),
		Ended:     turn.Ended(),
	}, nil
}
