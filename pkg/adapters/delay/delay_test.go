package delay_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/railchat/pkg/adapters/delay"
	"github.com/aretw0/railchat/pkg/domain"
	"github.com/aretw0/railchat/pkg/ports"
)

var _ ports.DelayPredictor = (*delay.Predictor)(nil)

func at(hour, minute int) func() time.Time {
	return func() time.Time { return time.Date(2021, 9, 1, hour, minute, 0, 0, time.UTC) }
}

func TestNetwork_Path(t *testing.T) {
	n := delay.GreaterAnglia()
	assert.Equal(t, "ga_intercity", n.Name)

	legs, ok := n.Path("NRCH", "LIVST")
	require.True(t, ok)
	require.Len(t, legs, 12)
	assert.Equal(t, "NRCH", legs[0].From)
	assert.Equal(t, "LIVST", legs[11].To)

	back, ok := n.Path("LIVST", "DISS")
	require.True(t, ok)
	assert.Len(t, back, 11)

	_, ok = n.Path("NRCH", "NOWHERE")
	assert.False(t, ok)

	tpl, ok := n.Tiploc("nrw")
	require.True(t, ok)
	assert.Equal(t, "NRCH", tpl)
}

func TestLeg_Peak(t *testing.T) {
	legs, ok := delay.GreaterAnglia().Path("LIVST", "STFD")
	require.True(t, ok)
	require.Len(t, legs, 1)

	assert.True(t, legs[0].Peak("0800"))
	assert.False(t, legs[0].Peak("1200"))
	assert.True(t, legs[0].Peak("1700"), "evening peak")
}

func TestPredictor_Predict(t *testing.T) {
	ctx := context.Background()
	n := delay.GreaterAnglia()

	offPeak := delay.NewPredictor(n, delay.WithClock(at(12, 0)))
	got, err := offPeak.Predict(ctx, "NRW", "DIS", 20)
	require.NoError(t, err)
	assert.Equal(t, 19, got)

	peak := delay.NewPredictor(n, delay.WithClock(at(7, 0)))
	got, err = peak.Predict(ctx, "NRW", "DIS", 20)
	require.NoError(t, err)
	assert.Equal(t, 21, got)

	// NRCH-DISS uses the default model, DISS-STWMRKT its own.
	got, err = offPeak.Predict(ctx, "NRW", "SMK", 20)
	require.NoError(t, err)
	assert.Equal(t, 18, got)

	got, err = offPeak.Predict(ctx, "NRW", "NRW", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestPredictor_UnknownStation(t *testing.T) {
	p := delay.NewPredictor(delay.GreaterAnglia())
	_, err := p.Predict(context.Background(), "NRW", "KGX", 10)
	var le *domain.LookupError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "delays", le.Service)
	assert.Contains(t, le.Reason, "KGX")
}

const oneWay = `
name: branch
codes: {AAA: AAA, BBB: BBB}
lines:
  - stations: [AAA, BBB]
    peaks:
      - from: ["0700", "0700"]
        to: ["0900", "0900"]
models:
  - {from: AAA, to: BBB, intercept: 2, factor: 1}
`

func TestPredictor_NoRoute(t *testing.T) {
	n, err := delay.Load(strings.NewReader(oneWay))
	require.NoError(t, err)
	p := delay.NewPredictor(n, delay.WithClock(at(12, 0)))

	got, err := p.Predict(context.Background(), "AAA", "BBB", 5)
	require.NoError(t, err)
	assert.Equal(t, 7, got)

	_, err = p.Predict(context.Background(), "BBB", "AAA", 5)
	var le *domain.LookupError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, le.Reason, "no route")
}

func TestLoad_Rejects(t *testing.T) {
	for name, doc := range map[string]string{
		"no name":         "lines: []",
		"short line":      "name: x\nlines:\n  - stations: [A]\n",
		"peak mismatch":   "name: x\nlines:\n  - stations: [A, B]\n    peaks:\n      - {from: [\"0700\"], to: [\"0900\", \"0900\"]}\n",
		"model off graph": "name: x\nlines:\n  - stations: [A, B]\nmodels:\n  - {from: B, to: A, factor: 1}\n",
	} {
		_, err := delay.Load(strings.NewReader(doc))
		assert.Error(t, err, name)
	}
}
