package domain

import "context"

// MessageType distinguishes plain replies from choice menus.
type MessageType string

const (
	MessageText   MessageType = "text"
	MessageChoice MessageType = "choice"
)

// Message is one outbound reply of a turn.
type Message struct {
	Type    MessageType `json:"type"`
	Text    string      `json:"text"`
	Options []string    `json:"options,omitempty"`
}

// Outbox collects the messages of a turn. It satisfies ports.MessageSink.
type Outbox struct {
	Messages []Message
}

// SendMessage appends a plain message.
func (o *Outbox) SendMessage(_ context.Context, text string) error {
	o.Messages = append(o.Messages, Message{Type: MessageText, Text: text})
	return nil
}

// SendChoiceList appends a choice menu.
func (o *Outbox) SendChoiceList(_ context.Context, prompt string, options []string) error {
	o.Messages = append(o.Messages, Message{
		Type:    MessageChoice,
		Text:    prompt,
		Options: append([]string(nil), options...),
	})
	return nil
}

// TurnResult summarises one execution loop run.
type TurnResult struct {
	SessionID string    `json:"session_id"`
	Messages  []Message `json:"messages"`
	Fired     []string  `json:"fired"`
	Facts     []Fact    `json:"facts"`
	Ended     bool      `json:"ended"`

	// Error is set when the turn failed and Messages holds an apology instead.
	Error string `json:"error,omitempty"`
}
