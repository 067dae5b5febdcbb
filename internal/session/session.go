// Package session holds the terminal's authenticated backend session: the
// bearer token and the user it belongs to. The token is issued and verified
// by the remote backend; the terminal only reads its expiry claim to detect
// stale sessions before wasting a round trip.
package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"convpos/terminal/internal/domain"
)

type Session struct {
	mu        sync.RWMutex
	token     string
	user      domain.User
	expiresAt time.Time
}

func New() *Session {
	return &Session{}
}

// Establish stores a fresh token and user, replacing any previous session.
// The expiry claim is read without verifying the signature; verification is
// the backend's job.
func (s *Session) Establish(token string, user domain.User) {
	var expiresAt time.Time
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err == nil && claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = user
	s.expiresAt = expiresAt
}

// Clear drops the session. Called on logout and on any 401 from the backend.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = domain.User{}
	s.expiresAt = time.Time{}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) User() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.token != ""
}

func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Expired reports whether the token carried an exp claim that has passed.
// Tokens without an exp claim are treated as live until the backend says
// otherwise.
func (s *Session) Expired(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.expiresAt.IsZero() && now.After(s.expiresAt)
}

// Authenticated reports whether a live, unexpired session is present.
func (s *Session) Authenticated(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return false
	}
	return s.expiresAt.IsZero() || now.Before(s.expiresAt)
}
