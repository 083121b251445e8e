package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/aretw0/railchat/pkg/domain"
)

// Help implements ports.HelpSource over a topic to answer map.
type Help struct {
	answers map[string]string
}

// NewHelp creates a help source. Topic names are matched case-insensitively.
func NewHelp(answers map[string]string) *Help {
	h := &Help{answers: make(map[string]string, len(answers))}
	for topic, answer := range answers {
		h.answers[strings.ToLower(topic)] = answer
	}
	return h
}

// Answer returns the text for a topic.
func (h *Help) Answer(_ context.Context, topic string) (string, error) {
	answer, ok := h.answers[strings.ToLower(strings.TrimSpace(topic))]
	if !ok {
		return "", domain.ErrUnknownTopic
	}
	return answer, nil
}

// Topics lists the known topics in lexical order.
func (h *Help) Topics(_ context.Context) ([]string, error) {
	topics := make([]string, 0, len(h.answers))
	for t := range h.answers {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics, nil
}

// DefaultHelp answers the booking, cancel and change topics.
var DefaultHelp = map[string]string{
	"booking": "Tell me where you are travelling from and to, and when. I will find the cheapest fare and give you a link to book it.",
	"cancel":  "Tickets bought online can be refunded from the retailer you booked with. Unused advance tickets are usually not refundable.",
	"change":  "Most tickets can be changed before travel for an admin fee. Contact the retailer you booked with to change your journey.",
}
