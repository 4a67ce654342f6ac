package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisConversationStore_TrimsToMaxLines(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := NewRedisConversationStore(rdb, 4)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, store.Append(ctx, "s1", fmt.Sprintf("User: %d", i), fmt.Sprintf("AI: %d", i)))
	}

	lines, err := store.History(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"User: 2", "AI: 2", "User: 3", "AI: 3"}, lines)
	assert.True(t, mr.TTL(conversationKeyPrefix+"s1") > 0)
}

func TestRedisConversationStore_SessionsAreIsolated(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := NewRedisConversationStore(rdb, 10)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "a", "User: hi"))
	lines, err := store.History(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestRedisConversationStore_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	mr.Close()

	store := NewRedisConversationStore(rdb, 10)
	_, err := store.History(context.Background(), "s1")
	assert.Error(t, err)
}

func TestMemoryConversationStore(t *testing.T) {
	store := NewMemoryConversationStore(3)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", "a", "b"))
	require.NoError(t, store.Append(ctx, "s1", "c", "d"))

	lines, err := store.History(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "d"}, lines)

	// callers cannot mutate the stored transcript
	lines[0] = "x"
	again, _ := store.History(ctx, "s1")
	assert.Equal(t, "b", again[0])
}

func TestMemoryConversationStore_EvictsIdleSessions(t *testing.T) {
	store := NewMemoryConversationStore(10)
	clock := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		require.NoError(t, store.Append(ctx, fmt.Sprintf("idle-%d", i), "user: hi"))
	}
	assert.Len(t, store.sessions, 100)

	clock = clock.Add(conversationTTL - time.Hour)
	require.NoError(t, store.Append(ctx, "active", "user: still here"))
	assert.Len(t, store.sessions, 101)

	clock = clock.Add(2 * time.Hour)
	lines, err := store.History(ctx, "idle-0")
	require.NoError(t, err)
	assert.Empty(t, lines)

	require.NoError(t, store.Append(ctx, "fresh", "user: hello"))
	assert.Len(t, store.sessions, 2)
	active, err := store.History(ctx, "active")
	require.NoError(t, err)
	assert.Equal(t, []string{"user: still here"}, active)
}
