package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"elifsite/internal/model"
)

// TranscriptStore keeps the append-only transcript of each session.
type TranscriptStore interface {
	Append(ctx context.Context, sessionID string, turn model.Turn) error
	Load(ctx context.Context, sessionID string) ([]model.Turn, error)
	Delete(ctx context.Context, sessionID string) error
}

const transcriptKeyPrefix = "chat:transcript:"

// RedisStore keeps each transcript as a redis list of JSON turns. The TTL
// is refreshed on every append so idle sessions expire.
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func (s *RedisStore) key(sessionID string) string {
	return transcriptKeyPrefix + sessionID
}

func (s *RedisStore) Append(ctx context.Context, sessionID string, turn model.Turn) error {
	b, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("encode turn: %w", err)
	}

	key := s.key(sessionID)
	pipe := s.Client.TxPipeline()
	pipe.RPush(ctx, key, b)
	if s.TTL > 0 {
		pipe.Expire(ctx, key, s.TTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append turn to %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) ([]model.Turn, error) {
	vals, err := s.Client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load transcript %s: %w", sessionID, err)
	}

	turns := make([]model.Turn, 0, len(vals))
	for _, v := range vals {
		var t model.Turn
		if err := json.Unmarshal([]byte(v), &t); err != nil {
			return nil, fmt.Errorf("decode turn of %s: %w", sessionID, err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.Client.Del(ctx, s.key(sessionID)).Err()
}

// MemoryStore is the in-process TranscriptStore used without redis.
type MemoryStore struct {
	mu    sync.RWMutex
	turns map[string][]model.Turn
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{turns: make(map[string][]model.Turn)}
}

func (s *MemoryStore) Append(_ context.Context, sessionID string, turn model.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[sessionID] = append(s.turns[sessionID], turn)
	return nil
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) ([]model.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.turns[sessionID]
	out := make([]model.Turn, len(src))
	copy(out, src)
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.turns, sessionID)
	return nil
}
