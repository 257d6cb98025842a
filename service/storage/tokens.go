package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/Meizuno/Chat/tools/errs"
)

// TokenStore tracks issued credentials by fingerprint so logout can revoke
// the current session and reset links are single-use.
type TokenStore interface {
	// SaveSession records the user's current access token fingerprint.
	SaveSession(ctx context.Context, userID, tokenHash string, ttl time.Duration) error
	// CheckSession reports whether the fingerprint is the user's live one.
	CheckSession(ctx context.Context, userID, tokenHash string) (bool, error)
	// RevokeSession drops the user's live session.
	RevokeSession(ctx context.Context, userID string) error

	// SaveReset records a password-reset token fingerprint.
	SaveReset(ctx context.Context, tokenHash, userID string, ttl time.Duration) error
	// ConsumeReset redeems a reset fingerprint exactly once.
	ConsumeReset(ctx context.Context, tokenHash string) (string, error)
}

const (
	sessionKeyPrefix = "chat:session:"
	resetKeyPrefix   = "chat:reset:"
)

type RedisTokenStore struct {
	rdb *redis.Client
}

func NewRedisTokenStore(rdb *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{rdb: rdb}
}

func (s *RedisTokenStore) SaveSession(ctx context.Context, userID, tokenHash string, ttl time.Duration) error {
	return errors.WithStack(s.rdb.Set(ctx, sessionKeyPrefix+userID, tokenHash, ttl).Err())
}

func (s *RedisTokenStore) CheckSession(ctx context.Context, userID, tokenHash string) (bool, error) {
	v, err := s.rdb.Get(ctx, sessionKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, errors.WithStack(err)
	}
	return v == tokenHash, nil
}

func (s *RedisTokenStore) RevokeSession(ctx context.Context, userID string) error {
	return errors.WithStack(s.rdb.Del(ctx, sessionKeyPrefix+userID).Err())
}

func (s *RedisTokenStore) SaveReset(ctx context.Context, tokenHash, userID string, ttl time.Duration) error {
	return errors.WithStack(s.rdb.Set(ctx, resetKeyPrefix+tokenHash, userID, ttl).Err())
}

func (s *RedisTokenStore) ConsumeReset(ctx context.Context, tokenHash string) (string, error) {
	userID, err := s.rdb.GetDel(ctx, resetKeyPrefix+tokenHash).Result()
	if errors.Is(err, redis.Nil) {
		return "", errs.ErrTokenInvalid.Wrap()
	}
	if err != nil {
		return "", errors.WithStack(err)
	}
	return userID, nil
}
