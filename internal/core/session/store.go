// Package session holds the authenticated identity of one application
// instance: user, optional educator profile and bearer token.
package session

import (
	"slices"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/coursehub/learner/internal/core/domain"
)

// Store is an in-memory session with change notification. The zero value is
// not usable; call New.
type Store struct {
	mu      sync.RWMutex
	state   domain.Session
	subs    map[uint64]func(domain.Session)
	nextSub uint64
}

func New() *Store {
	return &Store{subs: make(map[uint64]func(domain.Session))}
}

// SetUser replaces the current user.
func (s *Store) SetUser(u *domain.User) {
	s.mutate(func(st *domain.Session) bool {
		st.User = u.Clone()
		return true
	})
}

// SetEducator replaces the educator profile. Nil clears it.
func (s *Store) SetEducator(e *domain.Educator) {
	s.mutate(func(st *domain.Session) bool {
		st.Educator = e.Clone()
		return true
	})
}

func (s *Store) SetToken(token string) {
	s.mutate(func(st *domain.Session) bool {
		st.Token = token
		return true
	})
}

// SetAuth replaces user, token and educator in one mutation so observers never
// see a user without its token.
func (s *Store) SetAuth(u *domain.User, token string, e *domain.Educator) {
	s.mutate(func(st *domain.Session) bool {
		st.User = u.Clone()
		st.Token = token
		st.Educator = e.Clone()
		return true
	})
}

// UpdateUser merges patch into the current user. It reports false and leaves
// the store untouched when no user is set.
func (s *Store) UpdateUser(patch domain.UserPatch) bool {
	return s.mutate(func(st *domain.Session) bool {
		if st.User == nil {
			return false
		}
		patch.Apply(st.User)
		return true
	})
}

// AddEnrollment records courseID in the user's enrollments. Repeated calls
// keep a single entry. Reports whether the list changed.
func (s *Store) AddEnrollment(courseID string) bool {
	return s.mutate(func(st *domain.Session) bool {
		if st.User == nil || courseID == "" || st.User.IsEnrolled(courseID) {
			return false
		}
		st.User.Enrolls = append(st.User.Enrolls, courseID)
		return true
	})
}

// RemoveEnrollment drops every occurrence of courseID from the enrollments.
func (s *Store) RemoveEnrollment(courseID string) bool {
	return s.mutate(func(st *domain.Session) bool {
		if st.User == nil || !st.User.IsEnrolled(courseID) {
			return false
		}
		st.User.Enrolls = slices.DeleteFunc(st.User.Enrolls, func(id string) bool { return id == courseID })
		return true
	})
}

// ClearAuth resets user, educator and token.
func (s *Store) ClearAuth() {
	s.mutate(func(st *domain.Session) bool {
		*st = domain.Session{}
		return true
	})
}

// Snapshot returns a deep copy of the current session.
func (s *Store) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Authenticated()
}

// Token returns the bearer token or "".
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// TokenExpiry reads the exp claim of the current token without verifying its
// signature. ok is false when there is no token or it carries no expiry.
func (s *Store) TokenExpiry() (exp time.Time, ok bool) {
	token := s.Token()
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Subscribe registers fn to be called with the new session after every
// mutation. Calls happen outside the store lock, in mutation order per caller.
func (s *Store) Subscribe(fn func(domain.Session)) (cancel func()) {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// mutate applies fn under the write lock and notifies subscribers when fn
// reports a change.
func (s *Store) mutate(fn func(*domain.Session) bool) bool {
	s.mu.Lock()
	changed := fn(&s.state)
	if !changed {
		s.mu.Unlock()
		return false
	}
	snap := s.state.Clone()
	subs := make([]func(domain.Session), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
	return true
}
