package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/railchat"
	"github.com/aretw0/railchat/pkg/domain"
	"github.com/aretw0/railchat/pkg/observability"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	h := m.Hooks()
	ctx := context.Background()

	h.OnTurnEnd(ctx, &domain.TurnEvent{})
	h.OnTurnEnd(ctx, &domain.TurnEvent{Err: errors.New("boom")})
	h.OnRuleFire(ctx, &domain.RuleEvent{Rule: "ask-departure"})
	h.OnRuleFire(ctx, &domain.RuleEvent{Rule: "ask-departure"})
	h.OnLookup(ctx, &domain.LookupEvent{Service: "fares", Duration: 20 * time.Millisecond, IsError: true})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Turns.WithLabelValues(observability.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Turns.WithLabelValues(observability.OutcomeError)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Firings.WithLabelValues("ask-departure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Failures.WithLabelValues("fares")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Lookups))
}

func TestMetrics_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)
}

func TestMetrics_WithEngine(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	eng, err := railchat.New(railchat.WithLifecycleHooks(m.Hooks()))
	require.NoError(t, err)

	sess := domain.NewSession("metrics")
	_, err = eng.Turn(context.Background(), sess, domain.Extraction{Raw: "book a ticket", Intent: domain.IntentTicket})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Turns.WithLabelValues(observability.OutcomeOK)))
	assert.Greater(t, testutil.CollectAndCount(m.Firings), 0)
}

func TestCombine(t *testing.T) {
	var order []string
	a := domain.LifecycleHooks{
		OnRuleFire: func(context.Context, *domain.RuleEvent) { order = append(order, "a") },
	}
	b := domain.LifecycleHooks{
		OnRuleFire:  func(context.Context, *domain.RuleEvent) { order = append(order, "b") },
		OnTurnStart: func(context.Context, *domain.TurnEvent) { order = append(order, "start") },
	}

	h := observability.Combine(a, domain.LifecycleHooks{}, b)
	h.OnRuleFire(context.Background(), &domain.RuleEvent{})
	h.OnTurnStart(context.Background(), &domain.TurnEvent{})

	assert.Equal(t, []string{"a", "b", "start"}, order)
	assert.Nil(t, h.OnLookup)
}

func TestDebugHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := observability.DebugHooks(logger)

	h.OnRuleFire(context.Background(), &domain.RuleEvent{Rule: "greet"})
	h.OnTurnEnd(context.Background(), &domain.TurnEvent{Err: errors.New("boom")})

	assert.Contains(t, buf.String(), "rule=greet")
	assert.Contains(t, buf.String(), "err=boom")
}
