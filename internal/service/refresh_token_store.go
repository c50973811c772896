package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRefreshTokenUnknown indica un jti que nunca se guardó, ya se usó o expiró.
var ErrRefreshTokenUnknown = errors.New("refresh token unknown")

// RefreshTokenStore guarda el dueño de cada refresh token vivo. Consume es de
// un solo uso: el segundo intento con el mismo jti devuelve ErrRefreshTokenUnknown.
type RefreshTokenStore interface {
	Save(ctx context.Context, jti, userID string, ttl time.Duration) error
	Consume(ctx context.Context, jti string) (string, error)
	Revoke(ctx context.Context, jti string) error
}

const (
	defaultRefreshTTL   = 30 * 24 * time.Hour
	refreshStoreTimeout = 500 * time.Millisecond
)

type refreshEntry struct {
	userID  string
	expires time.Time
}

type memoryRefreshTokenStore struct {
	mu    sync.Mutex
	items map[string]refreshEntry
	now   func() time.Time
}

func NewMemoryRefreshTokenStore() RefreshTokenStore {
	return &memoryRefreshTokenStore{
		items: make(map[string]refreshEntry),
		now:   time.Now,
	}
}

func (s *memoryRefreshTokenStore) Save(_ context.Context, jti, userID string, ttl time.Duration) error {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultRefreshTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[jti] = refreshEntry{userID: userID, expires: s.now().UTC().Add(ttl)}
	return nil
}

func (s *memoryRefreshTokenStore) Consume(_ context.Context, jti string) (string, error) {
	jti = strings.TrimSpace(jti)
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[jti]
	if !ok {
		return "", ErrRefreshTokenUnknown
	}
	delete(s.items, jti)
	if s.now().UTC().After(entry.expires) {
		return "", ErrRefreshTokenUnknown
	}
	return entry.userID, nil
}

func (s *memoryRefreshTokenStore) Revoke(_ context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, strings.TrimSpace(jti))
	return nil
}

type redisKVClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// redisRefreshTokenStore usa GETDEL para que dos refresh concurrentes con el
// mismo token no puedan rotarlo ambos. Requiere Redis 6.2 o superior.
type redisRefreshTokenStore struct {
	client redisKVClient
	prefix string
}

func NewRedisRefreshTokenStore(client *redis.Client) RefreshTokenStore {
	if client == nil {
		return nil
	}
	return &redisRefreshTokenStore{
		client: client,
		prefix: "youtrait:refresh:",
	}
}

func (s *redisRefreshTokenStore) Save(ctx context.Context, jti, userID string, ttl time.Duration) error {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultRefreshTTL
	}
	ctx, cancel := context.WithTimeout(ctx, refreshStoreTimeout)
	defer cancel()
	return s.client.Set(ctx, s.prefix+jti, userID, ttl).Err()
}

func (s *redisRefreshTokenStore) Consume(ctx context.Context, jti string) (string, error) {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return "", ErrRefreshTokenUnknown
	}
	ctx, cancel := context.WithTimeout(ctx, refreshStoreTimeout)
	defer cancel()
	userID, err := s.client.GetDel(ctx, s.prefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrRefreshTokenUnknown
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

func (s *redisRefreshTokenStore) Revoke(ctx context.Context, jti string) error {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, refreshStoreTimeout)
	defer cancel()
	return s.client.Del(ctx, s.prefix+jti).Err()
}
