package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/railchat/pkg/adapters/memory"
	"github.com/aretw0/railchat/pkg/domain"
	"github.com/aretw0/railchat/pkg/ports"
	contract "github.com/aretw0/railchat/pkg/ports/tests"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSessionStoreContract(t, store)
}

func TestMemoryDirectory_Contract(t *testing.T) {
	dir := memory.NewDirectory(memory.SampleStations...)
	contract.StationDirectoryContractTest(t, dir)
	contract.StationCoderContractTest(t, dir)
}

func TestMemoryDirectory_SearchOrder(t *testing.T) {
	dir := memory.NewDirectory(memory.SampleStations...)
	got, err := dir.Search(context.Background(), "liverpool", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Liverpool Lime Street", got[0].Name)
	assert.Equal(t, "London Liverpool Street", got[1].Name)
}

func TestMemoryHelp(t *testing.T) {
	help := memory.NewHelp(memory.DefaultHelp)
	ctx := context.Background()

	answer, err := help.Answer(ctx, "Booking")
	require.NoError(t, err)
	assert.Contains(t, answer, "cheapest fare")

	_, err = help.Answer(ctx, "lost property")
	assert.ErrorIs(t, err, domain.ErrUnknownTopic)

	topics, err := help.Topics(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"booking", "cancel", "change"}, topics)
}
