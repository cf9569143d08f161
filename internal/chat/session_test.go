package chat

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elifsite/internal/model"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return &RedisStore{Client: client, TTL: ttl}, mr
}

func testStores(t *testing.T) map[string]TranscriptStore {
	redisStore, _ := newRedisStore(t, time.Minute)
	return map[string]TranscriptStore{
		"memory": NewMemoryStore(),
		"redis":  redisStore,
	}
}

func TestStoresAppendLoadDelete(t *testing.T) {
	at := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			turns, err := store.Load(ctx, "s1")
			require.NoError(t, err)
			assert.Empty(t, turns)

			require.NoError(t, store.Append(ctx, "s1", model.Turn{Speaker: model.SpeakerUser, Text: "hi", At: at}))
			require.NoError(t, store.Append(ctx, "s1", model.Turn{Speaker: model.SpeakerAssistant, Text: "hello", At: at}))
			require.NoError(t, store.Append(ctx, "s2", model.Turn{Speaker: model.SpeakerUser, Text: "other", At: at}))

			turns, err = store.Load(ctx, "s1")
			require.NoError(t, err)
			require.Len(t, turns, 2)
			assert.Equal(t, model.SpeakerUser, turns[0].Speaker)
			assert.Equal(t, "hi", turns[0].Text)
			assert.True(t, at.Equal(turns[0].At))
			assert.Equal(t, model.SpeakerAssistant, turns[1].Speaker)

			require.NoError(t, store.Delete(ctx, "s1"))
			turns, err = store.Load(ctx, "s1")
			require.NoError(t, err)
			assert.Empty(t, turns)

			turns, err = store.Load(ctx, "s2")
			require.NoError(t, err)
			assert.Len(t, turns, 1)
		})
	}
}

func TestMemoryStoreLoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Append(ctx, "s", model.Turn{Speaker: model.SpeakerUser, Text: "a"}))

	turns, _ := store.Load(ctx, "s")
	turns[0].Text = "changed"

	again, _ := store.Load(ctx, "s")
	assert.Equal(t, "a", again[0].Text)
}

func TestRedisStoreRefreshesTTL(t *testing.T) {
	store, mr := newRedisStore(t, 10*time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s", model.Turn{Speaker: model.SpeakerUser, Text: "a"}))
	assert.Equal(t, 10*time.Minute, mr.TTL(transcriptKeyPrefix+"s"))

	mr.FastForward(9 * time.Minute)
	require.NoError(t, store.Append(ctx, "s", model.Turn{Speaker: model.SpeakerAssistant, Text: "b"}))
	assert.Equal(t, 10*time.Minute, mr.TTL(transcriptKeyPrefix+"s"))

	mr.FastForward(11 * time.Minute)
	turns, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestRedisStoreRejectsCorruptTurn(t *testing.T) {
	store, mr := newRedisStore(t, 0)
	_, err := mr.RPush(transcriptKeyPrefix+"s", "{not json")
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "s")
	assert.Error(t, err)
}
