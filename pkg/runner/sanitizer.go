package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxInputSize is 4KB, far above any sensible chat message.
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize is the environment variable to override the default.
	EnvMaxInputSize = "RAILCHAT_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeInput enforces the size limit, validates UTF-8 and strips control
// characters other than newline, tab and carriage return.
func SanitizeInput(input string) (string, error) {
	limit := getMaxInputSize()
	if len(input) > limit {
		// Rejected, never truncated.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}

	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	return strings.Map(dropControl, input), nil
}

// dropControl keeps printable runes and the whitespace controls. strings.Map returns
// the input itself when nothing is dropped.
func dropControl(r rune) rune {
	if unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r' {
		return -1
	}
	return r
}

// getMaxInputSize reads RAILCHAT_MAX_INPUT_SIZE, ignoring values that are not positive.
func getMaxInputSize() int {
	if v := os.Getenv(EnvMaxInputSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultMaxInputSize
}
