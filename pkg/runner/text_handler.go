package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/railchat/pkg/domain"
)

// TextHandler implements interactive terminal IO. Choice lists are printed as numbered
// options and a bare number typed in reply is read as the option it names.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer
	Prompt   string

	mu      sync.Mutex
	options []string

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithPrompt sets the input prompt. The default is "> ".
func WithPrompt(prompt string) TextHandlerOption {
	return func(h *TextHandler) {
		h.Prompt = prompt
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
		Prompt: "> ",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump reads lines in the background so Input can honour ctx while a read blocks.
func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.inputChan <- inputResult{err: err}
			}
			close(h.inputChan)
			return
		}
	}
}

// Output prints text messages through the renderer and choice lists as numbered options.
func (h *TextHandler) Output(ctx context.Context, msgs []domain.Message) error {
	for _, msg := range msgs {
		if err := h.print(msg.Text); err != nil {
			return err
		}
		if msg.Type != domain.MessageChoice {
			continue
		}
		for i, opt := range msg.Options {
			if _, err := fmt.Fprintf(h.Writer, "  %d. %s\n", i+1, opt); err != nil {
				return err
			}
		}
		h.mu.Lock()
		h.options = append([]string(nil), msg.Options...)
		h.mu.Unlock()
	}
	return nil
}

func (h *TextHandler) print(text string) error {
	output := text
	if h.Renderer != nil {
		if rendered, err := h.Renderer(text); err == nil {
			output = rendered
		}
	}
	_, err := fmt.Fprintln(h.Writer, strings.TrimSpace(output))
	return err
}

// Input reads and sanitizes the next line. Invalid input is reported and read again.
func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, h.Prompt)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return h.choice(clean), nil
		}
	}
}

// choice maps "2" to the second option of the last choice list. The list is consumed
// by the next input either way.
func (h *TextHandler) choice(text string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	options := h.options
	h.options = nil
	n, err := strconv.Atoi(text)
	if err != nil || n < 1 || n > len(options) {
		return text
	}
	return options[n-1]
}

// SystemOutput prints a bracketed meta-message.
func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "[System] %s\n", msg)
	return err
}
