package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/railchat/pkg/domain"
)

// Combine merges hook sets. Each callback runs the non-nil callbacks of every set in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnTurnStart = chain(out.OnTurnStart, h.OnTurnStart)
		out.OnTurnEnd = chain(out.OnTurnEnd, h.OnTurnEnd)
		out.OnRuleFire = chain(out.OnRuleFire, h.OnRuleFire)
		out.OnLookup = chain(out.OnLookup, h.OnLookup)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}

// DebugHooks logs every engine event at debug level.
func DebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurnStart: func(ctx context.Context, e *domain.TurnEvent) {
			logger.Debug("turn start", "session_id", e.SessionID)
		},
		OnTurnEnd: func(ctx context.Context, e *domain.TurnEvent) {
			if e.Err != nil {
				logger.Debug("turn end (error)", "session_id", e.SessionID, "firings", e.Firings, "err", e.Err)
				return
			}
			logger.Debug("turn end", "session_id", e.SessionID, "firings", e.Firings)
		},
		OnRuleFire: func(ctx context.Context, e *domain.RuleEvent) {
			logger.Debug("rule fired", "session_id", e.SessionID, "rule", e.Rule, "salience", e.Salience, "changed", e.Changed)
		},
		OnLookup: func(ctx context.Context, e *domain.LookupEvent) {
			logger.Debug("lookup", "session_id", e.SessionID, "service", e.Service, "duration", e.Duration, "is_error", e.IsError)
		},
	}
}
