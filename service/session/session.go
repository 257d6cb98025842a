package session

import (
	"sync"
	"time"
)

// Profile is the authenticated identity as the API reports it. JSON tags
// follow the wire shape (camelCase), so the same struct decodes API payloads.
type Profile struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Session is the single process-wide authentication state: an opaque bearer
// token plus the profile it belongs to. The two are set and cleared together
// under one lock, so no reader ever observes a token without a profile.
// All mutation goes through Set/Clear; callers get copies, never the
// internal pointer.
type Session struct {
	mu      sync.RWMutex
	token   string
	profile *Profile
}

func New() *Session {
	return &Session{}
}

// Set replaces token and profile atomically. A call that would break the
// invariant (token without profile, or the reverse) degrades to Clear.
func (s *Session) Set(token string, p *Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == "" || p == nil {
		s.token = ""
		s.profile = nil
		return
	}
	cp := *p
	s.token = token
	s.profile = &cp
}

// Clear wipes the credential and the identity in one critical section.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.profile = nil
}

// Token returns the current bearer credential, "" when unauthenticated.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Profile returns a copy of the current identity, nil when unauthenticated.
func (s *Session) Profile() *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	cp := *s.profile
	return &cp
}

// Snapshot reads token and profile under one lock acquisition.
func (s *Session) Snapshot() (string, *Profile) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return s.token, nil
	}
	cp := *s.profile
	return s.token, &cp
}

// Authenticated reports whether a credential is currently held.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}
