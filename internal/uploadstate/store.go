package uploadstate

import (
	"context"
	"sync"
	"time"

	"coinpal/internal/redis"
)

// Store persists the upload URL per session.
type Store interface {
	// Load returns "" when the session has no value yet.
	Load(ctx context.Context, sessionID string) (string, error)
	Save(ctx context.Context, sessionID, url string) error
}

// MemoryStore keeps values for the life of the process.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Load(_ context.Context, sessionID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[sessionID], nil
}

func (m *MemoryStore) Save(_ context.Context, sessionID, url string) error {
	m.mu.Lock()
	m.values[sessionID] = url
	m.mu.Unlock()
	return nil
}

// RedisStore shares values between dashboard processes of one session.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(sessionID string) string {
	return "coinpal:session:" + sessionID + ":upload_url"
}

func (r *RedisStore) Load(ctx context.Context, sessionID string) (string, error) {
	val, err := r.client.Get(ctx, redisKey(sessionID))
	if redis.IsMiss(err) {
		return "", nil
	}
	return val, err
}

func (r *RedisStore) Save(ctx context.Context, sessionID, url string) error {
	return r.client.Set(ctx, redisKey(sessionID), url, r.ttl)
}
