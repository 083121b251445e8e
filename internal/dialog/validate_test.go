package dialog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDelay(t *testing.T) {
	cases := map[string]int{
		"about 20 minutes":     20,
		"15 mins late":         15,
		"delayed by 1 hour":    60,
		"2hrs behind schedule": 120,
		"running 5m behind":    5,
	}
	for text, want := range cases {
		got, ok := parseDelay(text)
		assert.True(t, ok, text)
		assert.Equal(t, want, got, text)
	}

	_, ok := parseDelay("the 12:00 train")
	assert.False(t, ok)
}

func TestNormalizeTime(t *testing.T) {
	got, ok := normalizeTime("9:05")
	assert.True(t, ok)
	assert.Equal(t, "09:05", got)

	got, ok = normalizeTime("09:05:30")
	assert.True(t, ok)
	assert.Equal(t, "09:05", got)

	_, ok = normalizeTime("25:00")
	assert.False(t, ok)

	got, ok = normalizeTime("3pm")
	assert.True(t, ok)
	assert.Equal(t, "15:00", got)
}

func TestLastBookable(t *testing.T) {
	now := time.Date(2021, 9, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "2021-11-17", lastBookable(now))
}
