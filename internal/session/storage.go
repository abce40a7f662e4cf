package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// StorageKey is the fixed key under which the bearer token is persisted.
const StorageKey = "br_token"

// RedisStorage persists one visitor's token in Redis.
type RedisStorage struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStorage scopes the token key to visitorID.
func NewRedisStorage(client *redis.Client, visitorID string, ttl time.Duration) *RedisStorage {
	return &RedisStorage{client: client, key: StorageKey + ":" + visitorID, ttl: ttl}
}

// Load returns the stored token, or "" when absent.
func (r *RedisStorage) Load(ctx context.Context) (string, error) {
	token, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return token, err
}

// Save stores the token.
func (r *RedisStorage) Save(ctx context.Context, token string) error {
	return r.client.Set(ctx, r.key, token, r.ttl).Err()
}

// Clear removes the token.
func (r *RedisStorage) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// MemoryStorage keeps the token in process memory.
type MemoryStorage struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStorage returns a storage pre-loaded with token.
func NewMemoryStorage(token string) *MemoryStorage {
	return &MemoryStorage{token: token}
}

func (m *MemoryStorage) Load(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryStorage) Save(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStorage) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
