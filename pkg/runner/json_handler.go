package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/railchat/pkg/domain"
)

// JSONHandler implements the IOHandler interface for JSON-lines communication.
//
// Each input line is a JSON string, an object with a "text" field, or plain text.
// Each turn is written as one line holding the array of messages.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(ctx context.Context, msgs []domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	return h.Encoder.Encode(msgs)
}

func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	text = strings.TrimSpace(text)

	var s string
	if err := json.Unmarshal([]byte(text), &s); err == nil {
		return SanitizeInput(s)
	}
	var obj struct {
		Text string `json:"text"`
	}
	if strings.HasPrefix(text, "{") {
		if err := json.Unmarshal([]byte(text), &obj); err == nil {
			return SanitizeInput(obj.Text)
		}
	}
	return SanitizeInput(text)
}

// SystemOutput writes {"system": msg}.
func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(map[string]string{"system": msg})
}
