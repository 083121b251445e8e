package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner(t *testing.T) {
	var out bytes.Buffer
	PrintBanner(&out, "v1.2.3")
	assert.Contains(t, out.String(), "railchat v1.2.3")
}

func TestNewRenderer(t *testing.T) {
	render := NewRenderer(80)
	out, err := render("Your fare is **£10.00**")
	require.NoError(t, err)
	assert.Contains(t, out, "£10.00")
}
