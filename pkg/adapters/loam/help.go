// Package loam serves help topics from a loam repository of markdown documents.
//
// Each document answers one topic. The frontmatter names the topic and optional
// aliases; the body is the answer:
//
//	---
//	topic: cancel
//	aliases: [refund, refunds]
//	---
//	Tickets bought online can be refunded from the retailer you booked with.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"

	"github.com/aretw0/railchat/pkg/domain"
)

// TopicMetadata is the frontmatter of a help document.
type TopicMetadata struct {
	Topic   string   `json:"topic" mapstructure:"topic"`
	Aliases []string `json:"aliases" mapstructure:"aliases"`
}

// Help implements ports.HelpSource.
type Help struct {
	Repo *loam.TypedRepository[TopicMetadata]
}

// New creates a help source over a typed repository.
func New(repo *loam.TypedRepository[TopicMetadata]) *Help {
	return &Help{Repo: repo}
}

// Open initialises the repository at dir, without versioning.
func Open(dir string) (*Help, error) {
	repo, err := loam.Init(dir, loam.WithVersioning(false))
	if err != nil {
		return nil, fmt.Errorf("loam init failed for %s: %w", dir, err)
	}
	return New(loam.NewTypedRepository[TopicMetadata](repo)), nil
}

type entry struct {
	topic   string
	aliases []string
	answer  string
}

func (h *Help) entries(ctx context.Context) ([]entry, error) {
	docs, err := h.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}
	// List only carries IDs; the frontmatter and body come from Get.
	out := make([]entry, 0, len(docs))
	for _, ref := range docs {
		doc, err := h.Repo.Get(ctx, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("loam get failed for %s: %w", ref.ID, err)
		}
		topic := doc.Data.Topic
		if topic == "" {
			topic = trimExtension(doc.ID)
		}
		out = append(out, entry{
			topic:   strings.ToLower(topic),
			aliases: doc.Data.Aliases,
			answer:  strings.TrimSpace(doc.Content),
		})
	}
	return out, nil
}

// Answer returns the body of the document whose topic or alias matches, ignoring case.
func (h *Help) Answer(ctx context.Context, topic string) (string, error) {
	want := strings.ToLower(strings.TrimSpace(topic))
	entries, err := h.entries(ctx)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.topic == want {
			return e.answer, nil
		}
	}
	for _, e := range entries {
		for _, a := range e.aliases {
			if strings.EqualFold(a, want) {
				return e.answer, nil
			}
		}
	}
	return "", domain.ErrUnknownTopic
}

// Topics lists the topic names in lexical order.
func (h *Help) Topics(ctx context.Context) ([]string, error) {
	entries, err := h.entries(ctx)
	if err != nil {
		return nil, err
	}
	topics := make([]string, 0, len(entries))
	for _, e := range entries {
		topics = append(topics, e.topic)
	}
	sort.Strings(topics)
	return topics, nil
}

// Seed writes one document per topic, e.g. to start a repository from memory.DefaultHelp.
func Seed(ctx context.Context, repo core.Repository, answers map[string]string) error {
	topics := make([]string, 0, len(answers))
	for t := range answers {
		topics = append(topics, t)
	}
	sort.Strings(topics)

	for _, topic := range topics {
		doc := core.Document{
			ID:      topic + ".md",
			Content: "---\ntopic: " + topic + "\n---\n" + answers[topic] + "\n",
		}
		if err := repo.Save(ctx, doc); err != nil {
			return fmt.Errorf("saving help topic %s: %w", topic, err)
		}
	}
	return nil
}

func trimExtension(id string) string {
	return filepath.ToSlash(strings.TrimSuffix(id, filepath.Ext(id)))
}
