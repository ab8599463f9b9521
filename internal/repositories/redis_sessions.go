package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/inkcircle/backend/internal/auth"
)

// sessionKeyPrefix namespaces session records in the shared Redis keyspace.
const sessionKeyPrefix = "inkcircle:session:"

// RedisSessionStore persists issued tokens to Redis, letting key expiry do
// the TTL housekeeping the SQL store leaves to a cleanup job.
type RedisSessionStore struct {
	client *redis.Client
}

// ConnectRedisSessionStore dials Redis and verifies the connection.
func ConnectRedisSessionStore(ctx context.Context, addr string, dbIndex int) (*RedisSessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIndex,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}

	return &RedisSessionStore{client: client}, nil
}

// NewRedisSessionStore wraps an existing client; the caller retains ownership.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

type redisSession struct {
	UserID    string           `json:"user_id"`
	Kind      auth.SessionKind `json:"kind"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// Save stores the session with a TTL matching its expiry.
func (s *RedisSessionStore) Save(ctx context.Context, session auth.Session) error {
	payload, err := json.Marshal(redisSession{
		UserID:    session.UserID,
		Kind:      session.Kind,
		ExpiresAt: session.ExpiresAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := s.client.Set(ctx, sessionKeyPrefix+session.Token, payload, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	return nil
}

// Find retrieves a session by token. Keys Redis has already expired surface
// as not found.
func (s *RedisSessionStore) Find(ctx context.Context, token string) (auth.Session, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return auth.Session{}, auth.ErrSessionNotFound
		}
		return auth.Session{}, fmt.Errorf("load session: %w", err)
	}

	var stored redisSession
	if err := json.Unmarshal(raw, &stored); err != nil {
		return auth.Session{}, fmt.Errorf("decode session: %w", err)
	}

	return auth.Session{
		Token:     token,
		UserID:    stored.UserID,
		Kind:      stored.Kind,
		ExpiresAt: stored.ExpiresAt,
	}, nil
}

// Delete removes the session for the token.
func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	removed, err := s.client.Del(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if removed == 0 {
		return auth.ErrSessionNotFound
	}
	return nil
}

// Close releases the underlying client connection.
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}

var _ auth.SessionStore = (*RedisSessionStore)(nil)
