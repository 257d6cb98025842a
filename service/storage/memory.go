package storage

import (
	"context"
	"sync"
	"time"

	"github.com/Meizuno/Chat/tools/errs"
)

// In-memory implementations of UserStore and TokenStore. Used by tests and
// by processes booted without CHAT_REDIS_ADDR; nothing survives a restart.

type MemoryUserStore struct {
	mu      sync.RWMutex
	byID    map[string]UserRecord
	byEmail map[string]string
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:    make(map[string]UserRecord),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryUserStore) Create(_ context.Context, u *UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[u.Email]; exists {
		return errs.ErrEmailTaken.Wrap()
	}
	s.byEmail[u.Email] = u.ID
	s.byID[u.ID] = *u
	return nil
}

func (s *MemoryUserStore) ByID(_ context.Context, id string) (*UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, errs.ErrUserNotFound.Wrap()
	}
	return &u, nil
}

func (s *MemoryUserStore) ByEmail(_ context.Context, email string) (*UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, errs.ErrUserNotFound.Wrap()
	}
	u := s.byID[id]
	return &u, nil
}

func (s *MemoryUserStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return errs.ErrUserNotFound.Wrap()
	}
	u.PasswordHash = passwordHash
	u.Touch(time.Now())
	s.byID[id] = u
	return nil
}

type memoryEntry struct {
	value    string
	expireAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

type MemoryTokenStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	resets   map[string]memoryEntry
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		sessions: make(map[string]memoryEntry),
		resets:   make(map[string]memoryEntry),
	}
}

func (s *MemoryTokenStore) SaveSession(_ context.Context, userID, tokenHash string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = memoryEntry{value: tokenHash, expireAt: expiry(ttl)}
	return nil
}

func (s *MemoryTokenStore) CheckSession(_ context.Context, userID, tokenHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[userID]
	if !ok || e.expired(time.Now()) {
		return false, nil
	}
	return e.value == tokenHash, nil
}

func (s *MemoryTokenStore) RevokeSession(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

func (s *MemoryTokenStore) SaveReset(_ context.Context, tokenHash, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets[tokenHash] = memoryEntry{value: userID, expireAt: expiry(ttl)}
	return nil
}

func (s *MemoryTokenStore) ConsumeReset(_ context.Context, tokenHash string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.resets[tokenHash]
	if !ok || e.expired(time.Now()) {
		return "", errs.ErrTokenInvalid.Wrap()
	}
	delete(s.resets, tokenHash)
	return e.value, nil
}

func expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}
