package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// AdminSessionKeyPrefix is the Redis key prefix for session token -> admin id.
	AdminSessionKeyPrefix = "admin_session:"
	// AdminSessionsKeyPrefix is the Redis key prefix for the set of tokens an admin holds.
	AdminSessionsKeyPrefix = "admin_sessions:"
)

// SessionStore keeps admin sessions in Redis so they survive restarts and are
// shared by every server process.
type SessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl}
}

// Create issues a new opaque session token bound to adminID.
func (s *SessionStore) Create(ctx context.Context, adminID uuid.UUID) (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(tokenBytes)

	setKey := AdminSessionsKeyPrefix + adminID.String()
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, AdminSessionKeyPrefix+token, adminID.String(), s.ttl)
	pipe.SAdd(ctx, setKey, token)
	pipe.Expire(ctx, setKey, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}
	return token, nil
}

// Get resolves a token to its admin id. A missing or expired token reports false
// with a nil error.
func (s *SessionStore) Get(ctx context.Context, token string) (uuid.UUID, bool, error) {
	if token == "" {
		return uuid.Nil, false, nil
	}

	raw, err := s.rdb.Get(ctx, AdminSessionKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}

	adminID, err := uuid.Parse(raw)
	if err != nil {
		// Corrupt entry, treat as signed out.
		_ = s.rdb.Del(ctx, AdminSessionKeyPrefix+token).Err()
		return uuid.Nil, false, nil
	}
	return adminID, true, nil
}

// Destroy removes a single session. Unknown tokens are a no-op.
func (s *SessionStore) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	sessionKey := AdminSessionKeyPrefix + token
	raw, err := s.rdb.Get(ctx, sessionKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if raw != "" {
		_ = s.rdb.SRem(ctx, AdminSessionsKeyPrefix+raw, token).Err()
	}
	return s.rdb.Del(ctx, sessionKey).Err()
}

// DestroyAllExcept signs the admin out everywhere except the session identified
// by keep, which may be empty to revoke everything.
func (s *SessionStore) DestroyAllExcept(ctx context.Context, adminID uuid.UUID, keep string) error {
	setKey := AdminSessionsKeyPrefix + adminID.String()
	tokens, err := s.rdb.SMembers(ctx, setKey).Result()
	if err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	revoked := 0
	for _, token := range tokens {
		if token == keep {
			continue
		}
		pipe.Del(ctx, AdminSessionKeyPrefix+token)
		pipe.SRem(ctx, setKey, token)
		revoked++
	}
	if revoked == 0 {
		return nil
	}
	_, err = pipe.Exec(ctx)
	return err
}
