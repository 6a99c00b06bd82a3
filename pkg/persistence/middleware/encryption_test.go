package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/aretw0/bookflow/pkg/adapters/memory"
	"github.com/aretw0/bookflow/pkg/domain"
	"github.com/aretw0/bookflow/pkg/persistence/middleware"
	"github.com/aretw0/bookflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, middleware.KeySize)
	_, err := rand.Read(k)
	require.NoError(t, err)
	return k
}

func secure(t *testing.T, next ports.StateStore, cfg middleware.EncryptionConfig) ports.StateStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return mw(next)
}

func customerSnapshot(id string) *domain.Snapshot {
	snap := domain.NewSnapshot(id, domain.StepCustomer)
	snap.Fields[domain.FieldCustomerEmail] = domain.FieldState{Value: "ada@example.com", Touched: true}
	snap.Fields[domain.FieldServiceAddress] = domain.FieldState{Value: "1 Analytical Way", Touched: true}
	return snap
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, secure(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	store := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", customerSnapshot("s1")))

	stored, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, stored.Fields, "field values must not be stored in clear")
	assert.NotEmpty(t, stored.Sealed)
	assert.Equal(t, domain.StepCustomer, stored.CurrentStep, "the envelope keeps the step for monitoring")

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, loaded.Sealed)
	assert.Equal(t, "ada@example.com", loaded.Fields[domain.FieldCustomerEmail].Value)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	oldStore := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, oldStore.Save(ctx, "s1", customerSnapshot("s1")))

	newStore := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}})
	loaded, err := newStore.Load(ctx, "s1")
	require.NoError(t, err, "fallback keys decrypt old data")

	require.NoError(t, newStore.Save(ctx, "s1", loaded))
	_, err = oldStore.Load(ctx, "s1")
	assert.Error(t, err, "data written with the new key is unreadable with the old one")
}

func TestEncryptionMiddleware_BoundToSession(t *testing.T) {
	underlying := memory.NewStore()
	store := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", customerSnapshot("s1")))
	envelope, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, underlying.Save(ctx, "s2", envelope))

	_, err = store.Load(ctx, "s2")
	assert.Error(t, err, "a sealed snapshot cannot be replayed under another session")
}

func TestEncryptionMiddleware_RejectsPlainSnapshots(t *testing.T) {
	underlying := memory.NewStore()
	store := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()

	require.NoError(t, underlying.Save(ctx, "plain", customerSnapshot("plain")))
	_, err := store.Load(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrNotSealed)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.Error(t, err)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.Error(t, err)
}

func TestParseKey(t *testing.T) {
	raw := generateKey(t)
	key, err := middleware.ParseKey(base64.StdEncoding.EncodeToString(raw), "acme")
	require.NoError(t, err)
	assert.Equal(t, raw, key)

	derived, err := middleware.ParseKey("correct horse battery staple", "acme")
	require.NoError(t, err)
	assert.Len(t, derived, middleware.KeySize)

	again, err := middleware.DeriveKey("correct horse battery staple", "acme")
	require.NoError(t, err)
	assert.Equal(t, derived, again, "derivation is deterministic per salt")

	other, err := middleware.DeriveKey("correct horse battery staple", "globex")
	require.NoError(t, err)
	assert.NotEqual(t, derived, other)

	_, err = middleware.DeriveKey("", "acme")
	assert.Error(t, err)
}
