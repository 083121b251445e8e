package loam_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/railchat/internal/testutils"
	helpsrc "github.com/aretw0/railchat/pkg/adapters/loam"
	"github.com/aretw0/railchat/pkg/adapters/memory"
	"github.com/aretw0/railchat/pkg/domain"
	"github.com/aretw0/railchat/pkg/ports"
)

var _ ports.HelpSource = (*helpsrc.Help)(nil)

func TestHelp_SeededDefaults(t *testing.T) {
	_, repo := testutils.SetupTestRepo(t, loam.WithVersioning(false))
	ctx := context.Background()
	require.NoError(t, helpsrc.Seed(ctx, repo, memory.DefaultHelp))

	help := helpsrc.New(loam.NewTypedRepository[helpsrc.TopicMetadata](repo))

	topics, err := help.Topics(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"booking", "cancel", "change"}, topics)

	answer, err := help.Answer(ctx, "Cancel")
	require.NoError(t, err)
	assert.Equal(t, memory.DefaultHelp["cancel"], answer)
}

func TestHelp_AliasesAndFileNames(t *testing.T) {
	_, repo := testutils.SetupTestRepo(t, loam.WithVersioning(false))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, core.Document{
		ID: "refunds.md",
		Content: `---
topic: cancel
aliases: [refund, money back]
---
Ask the retailer for a refund.`,
	}))
	require.NoError(t, repo.Save(ctx, core.Document{
		ID:      "railcards.md",
		Content: "Railcards save a third on most fares.",
	}))

	help := helpsrc.New(loam.NewTypedRepository[helpsrc.TopicMetadata](repo))

	answer, err := help.Answer(ctx, "refund")
	require.NoError(t, err)
	assert.Equal(t, "Ask the retailer for a refund.", answer)

	answer, err = help.Answer(ctx, "railcards")
	require.NoError(t, err)
	assert.Contains(t, answer, "a third")

	_, err = help.Answer(ctx, "lost property")
	assert.ErrorIs(t, err, domain.ErrUnknownTopic)
}

func TestHelp_Open(t *testing.T) {
	help, err := helpsrc.Open(t.TempDir())
	require.NoError(t, err)

	topics, err := help.Topics(context.Background())
	require.NoError(t, err)
	assert.Empty(t, topics)
}

func TestHelp_OpenReadsFrontmatterFromDisk(t *testing.T) {
	dir := t.TempDir()
	body := "---\ntopic: luggage\naliases: [bags]\n---\nTwo large bags per person.\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "baggage.md"), []byte(body), 0644))

	help, err := helpsrc.Open(dir)
	require.NoError(t, err)
	ctx := context.Background()

	topics, err := help.Topics(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"luggage"}, topics)

	answer, err := help.Answer(ctx, "bags")
	require.NoError(t, err)
	assert.Equal(t, "Two large bags per person.", answer)
}
