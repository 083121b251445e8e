package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/railchat/pkg/adapters/memory"
	"github.com/aretw0/railchat/pkg/domain"
	"github.com/aretw0/railchat/pkg/persistence/middleware"
	"github.com/aretw0/railchat/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, middleware.KeySize)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func sealed(t *testing.T, store ports.SessionStore, cfg middleware.EncryptionConfig) ports.SessionStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return mw(store)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, sealed(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	store := sealed(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()

	original := domain.NewSession("trip-1")
	original.Slots[domain.SlotFromStation] = "Norwich"
	original.Turns = 2
	require.NoError(t, store.Save(ctx, "trip-1", original))

	raw, err := underlying.Load(ctx, "trip-1")
	require.NoError(t, err)
	assert.NotContains(t, raw.Slots, domain.SlotFromStation)
	assert.Contains(t, raw.Slots, "__encrypted__")
	assert.Equal(t, 2, raw.Turns, "envelope keeps the turn count readable")

	loaded, err := store.Load(ctx, "trip-1")
	require.NoError(t, err)
	assert.Equal(t, "Norwich", loaded.Slots[domain.SlotFromStation])
	assert.Equal(t, original.CreatedAt.Unix(), loaded.CreatedAt.Unix())
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	oldStore := sealed(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey})
	s := domain.NewSession("rotation")
	s.Slots[domain.SlotToStation] = "Diss"
	require.NoError(t, oldStore.Save(ctx, "rotation", s))

	newStore := sealed(t, underlying, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	loaded, err := newStore.Load(ctx, "rotation")
	require.NoError(t, err)
	assert.Equal(t, "Diss", loaded.Slots[domain.SlotToStation])

	require.NoError(t, newStore.Save(ctx, "rotation", loaded))
	_, err = oldStore.Load(ctx, "rotation")
	assert.Error(t, err, "old key alone cannot read data sealed with the new key")
}

func TestEncryptionMiddleware_PlainSession(t *testing.T) {
	underlying := memory.NewStore()
	require.NoError(t, underlying.Save(context.Background(), "plain", domain.NewSession("plain")))

	store := sealed(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	_, err := store.Load(context.Background(), "plain")
	assert.ErrorIs(t, err, middleware.ErrNotSealed)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.ErrorContains(t, err, "32 bytes")

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.ErrorContains(t, err, "fallback key 0")
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)
	got, err := middleware.ParseKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = middleware.ParseKey("not base64!")
	assert.Error(t, err)

	_, err = middleware.ParseKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorContains(t, err, "got 5")
}

func TestChain(t *testing.T) {
	var order []string
	tag := func(name string) middleware.Middleware {
		return func(next ports.SessionStore) ports.SessionStore {
			order = append(order, name)
			return next
		}
	}
	middleware.Chain(memory.NewStore(), tag("outer"), tag("inner"))
	assert.Equal(t, []string{"inner", "outer"}, order)
}
