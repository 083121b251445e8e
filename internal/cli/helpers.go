package cli

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/aretw0/railchat/internal/config"
	"github.com/aretw0/railchat/internal/logging"
)

// NewLogger builds the application logger from the log section. Debug forces the
// debug level.
func NewLogger(cfg config.LogConfig, w io.Writer, debug bool) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if debug {
		level = slog.LevelDebug
	}
	return logging.NewWriter(w, level, cfg.Format), nil
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of f, or fallback when it is not a terminal.
func TerminalWidth(f *os.File, fallback int) int {
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
		return w
	}
	return fallback
}
