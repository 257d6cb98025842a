package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/Meizuno/Chat/tools/errs"
)

// UserRecord is the stored account. Field tags double as redis hash keys and
// as the decode shape; timestamps are stored as RFC3339 strings.
type UserRecord struct {
	ID           string `redis:"id"`
	FirstName    string `redis:"firstName"`
	LastName     string `redis:"lastName"`
	Email        string `redis:"email"`
	PasswordHash string `redis:"passwordHash"`
	IsActive     bool   `redis:"isActive"`
	CreatedAt    string `redis:"createdAt"`
	UpdatedAt    string `redis:"updatedAt"`
}

func (u *UserRecord) Touch(now time.Time) {
	ts := now.UTC().Format(time.RFC3339Nano)
	if u.CreatedAt == "" {
		u.CreatedAt = ts
	}
	u.UpdatedAt = ts
}

// UserStore holds accounts, keyed by ID with a unique email index.
type UserStore interface {
	Create(ctx context.Context, u *UserRecord) error
	ByID(ctx context.Context, id string) (*UserRecord, error)
	ByEmail(ctx context.Context, email string) (*UserRecord, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// ===== redis implementation =====

const (
	userKeyPrefix  = "chat:user:"
	emailKeyPrefix = "chat:email:"
)

type RedisUserStore struct {
	rdb *redis.Client
}

func NewRedisUserStore(rdb *redis.Client) *RedisUserStore {
	return &RedisUserStore{rdb: rdb}
}

func (s *RedisUserStore) Create(ctx context.Context, u *UserRecord) error {
	// Claim the email index first; SETNX makes duplicate registration lose.
	ok, err := s.rdb.SetNX(ctx, emailKeyPrefix+u.Email, u.ID, 0).Result()
	if err != nil {
		return errors.WithStack(err)
	}
	if !ok {
		return errs.ErrEmailTaken.Wrap()
	}
	if err := s.rdb.HSet(ctx, userKeyPrefix+u.ID, u).Err(); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (s *RedisUserStore) ByID(ctx context.Context, id string) (*UserRecord, error) {
	res := s.rdb.HGetAll(ctx, userKeyPrefix+id)
	if err := res.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	if len(res.Val()) == 0 {
		return nil, errs.ErrUserNotFound.Wrap()
	}
	var u UserRecord
	if err := res.Scan(&u); err != nil {
		return nil, errors.WithStack(err)
	}
	return &u, nil
}

func (s *RedisUserStore) ByEmail(ctx context.Context, email string) (*UserRecord, error) {
	id, err := s.rdb.Get(ctx, emailKeyPrefix+email).Result()
	if errors.Is(err, redis.Nil) {
		return nil, errs.ErrUserNotFound.Wrap()
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return s.ByID(ctx, id)
}

func (s *RedisUserStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	u, err := s.ByID(ctx, id)
	if err != nil {
		return err
	}
	u.PasswordHash = passwordHash
	u.Touch(time.Now())
	if err := s.rdb.HSet(ctx, userKeyPrefix+id, u).Err(); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
