package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/IANDYI/eldercare-service/internal/core/ports"
	"github.com/redis/go-redis/v9"
)

const conversationKeyPrefix = "assistant:session:"

// conversationTTL drops idle sessions
const conversationTTL = 24 * time.Hour

var (
	_ ports.ConversationStore = (*RedisConversationStore)(nil)
	_ ports.ConversationStore = (*MemoryConversationStore)(nil)
)

// RedisConversationStore keeps each session as a capped Redis list so that
// every API replica sees the same transcript
type RedisConversationStore struct {
	rdb      *redis.Client
	maxLines int
}

// NewRedisConversationStore creates a Redis backed transcript store keeping at most maxLines per session
func NewRedisConversationStore(rdb *redis.Client, maxLines int) *RedisConversationStore {
	if maxLines < 1 {
		maxLines = 1
	}
	return &RedisConversationStore{rdb: rdb, maxLines: maxLines}
}

func (s *RedisConversationStore) History(ctx context.Context, sessionID string) ([]string, error) {
	lines, err := s.rdb.LRange(ctx, conversationKeyPrefix+sessionID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}
	return lines, nil
}

func (s *RedisConversationStore) Append(ctx context.Context, sessionID string, lines ...string) error {
	if len(lines) == 0 {
		return nil
	}
	key := conversationKeyPrefix + sessionID
	values := make([]interface{}, len(lines))
	for i, l := range lines {
		values[i] = l
	}
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		pipe.LTrim(ctx, key, int64(-s.maxLines), -1)
		pipe.Expire(ctx, key, conversationTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis append: %w", err)
	}
	return nil
}

// conversationSweepInterval bounds how often Append scans for idle sessions
const conversationSweepInterval = time.Minute

type memorySession struct {
	lines   []string
	touched time.Time
}

// MemoryConversationStore is the single-replica fallback. Sessions idle for
// conversationTTL are dropped, as the Redis store expires its keys.
type MemoryConversationStore struct {
	mu        sync.Mutex
	sessions  map[string]*memorySession
	maxLines  int
	lastSweep time.Time
	now       func() time.Time
}

// NewMemoryConversationStore creates an in-process transcript store keeping at most maxLines per session
func NewMemoryConversationStore(maxLines int) *MemoryConversationStore {
	if maxLines < 1 {
		maxLines = 1
	}
	return &MemoryConversationStore{
		sessions: make(map[string]*memorySession),
		maxLines: maxLines,
		now:      time.Now,
	}
}

func (s *MemoryConversationStore) History(_ context.Context, sessionID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok || s.expired(sess, s.now()) {
		return []string{}, nil
	}
	out := make([]string, len(sess.lines))
	copy(out, sess.lines)
	return out, nil
}

func (s *MemoryConversationStore) Append(_ context.Context, sessionID string, lines ...string) error {
	if len(lines) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= conversationSweepInterval {
		s.evictIdle(now)
		s.lastSweep = now
	}

	sess, ok := s.sessions[sessionID]
	if !ok || s.expired(sess, now) {
		sess = &memorySession{}
		s.sessions[sessionID] = sess
	}
	all := append(sess.lines, lines...)
	if len(all) > s.maxLines {
		all = append([]string(nil), all[len(all)-s.maxLines:]...)
	}
	sess.lines = all
	sess.touched = now
	return nil
}

func (s *MemoryConversationStore) expired(sess *memorySession, now time.Time) bool {
	return now.Sub(sess.touched) >= conversationTTL
}

// evictIdle must be called with mu held
func (s *MemoryConversationStore) evictIdle(now time.Time) {
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
		}
	}
}
