package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewSessionStore(rdb, time.Hour), mr
}

func TestSessionStore_CreateAndGet(t *testing.T) {
	store, mr := newSessionStore(t)
	ctx := context.Background()
	adminID := uuid.New()

	token, err := store.Create(ctx, adminID)
	require.NoError(t, err)
	assert.Len(t, token, 43) // 32 bytes, unpadded base64url

	got, ok, err := store.Get(ctx, token)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, adminID, got)

	assert.Equal(t, time.Hour, mr.TTL(AdminSessionKeyPrefix+token))
	members, err := mr.SMembers(AdminSessionsKeyPrefix + adminID.String())
	require.NoError(t, err)
	assert.Equal(t, []string{token}, members)
}

func TestSessionStore_TokensAreUnique(t *testing.T) {
	store, _ := newSessionStore(t)
	adminID := uuid.New()

	a, err := store.Create(context.Background(), adminID)
	require.NoError(t, err)
	b, err := store.Create(context.Background(), adminID)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSessionStore_GetUnknownAndEmpty(t *testing.T) {
	store, _ := newSessionStore(t)

	_, ok, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = store.Get(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionStore_Expiry(t *testing.T) {
	store, mr := newSessionStore(t)
	token, err := store.Create(context.Background(), uuid.New())
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	_, ok, err := store.Get(context.Background(), token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionStore_CorruptEntry(t *testing.T) {
	store, mr := newSessionStore(t)
	require.NoError(t, mr.Set(AdminSessionKeyPrefix+"bad", "not-a-uuid"))

	_, ok, err := store.Get(context.Background(), "bad")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists(AdminSessionKeyPrefix+"bad"))
}

func TestSessionStore_DestroyIsIdempotent(t *testing.T) {
	store, _ := newSessionStore(t)
	ctx := context.Background()
	token, err := store.Create(ctx, uuid.New())
	require.NoError(t, err)

	require.NoError(t, store.Destroy(ctx, token))
	require.NoError(t, store.Destroy(ctx, token))
	require.NoError(t, store.Destroy(ctx, ""))

	_, ok, err := store.Get(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionStore_DestroyAllExcept(t *testing.T) {
	store, _ := newSessionStore(t)
	ctx := context.Background()
	adminID := uuid.New()

	keep, err := store.Create(ctx, adminID)
	require.NoError(t, err)
	other1, err := store.Create(ctx, adminID)
	require.NoError(t, err)
	other2, err := store.Create(ctx, adminID)
	require.NoError(t, err)

	require.NoError(t, store.DestroyAllExcept(ctx, adminID, keep))

	_, ok, _ := store.Get(ctx, keep)
	assert.True(t, ok)
	for _, token := range []string{other1, other2} {
		_, ok, _ := store.Get(ctx, token)
		assert.False(t, ok)
	}
}

func TestSessionStore_DestroyAllExcept_NoSessions(t *testing.T) {
	store, _ := newSessionStore(t)
	assert.NoError(t, store.DestroyAllExcept(context.Background(), uuid.New(), ""))
}
