package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders message markdown using glamour, detecting
// a light or dark background. If glamour cannot be set up, text is returned unchanged.
func NewRenderer(width int) func(string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return func(s string) (string, error) { return s, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
