// Package wishlist keeps the courses a learner saved for later.
package wishlist

import (
	"slices"
	"sync"

	"github.com/coursehub/learner/internal/core/domain"
)

// Store holds course snapshots by value in insertion order.
type Store struct {
	mu      sync.RWMutex
	items   []domain.Course
	subs    map[uint64]func([]domain.Course)
	nextSub uint64
}

func New() *Store {
	return &Store{subs: make(map[uint64]func([]domain.Course))}
}

// Add appends course without checking for an existing entry. Use Toggle for
// the save/unsave action.
func (s *Store) Add(course domain.Course) {
	s.mutate(func(items []domain.Course) ([]domain.Course, bool) {
		return append(items, course), true
	})
}

// Remove drops every entry with the given id.
func (s *Store) Remove(id string) bool {
	return s.mutate(func(items []domain.Course) ([]domain.Course, bool) {
		n := len(items)
		items = slices.DeleteFunc(items, func(c domain.Course) bool { return c.ID == id })
		return items, len(items) != n
	})
}

// Toggle saves course when absent and removes it when present. It returns
// whether the course is saved afterwards.
func (s *Store) Toggle(course domain.Course) (saved bool) {
	s.mutate(func(items []domain.Course) ([]domain.Course, bool) {
		if containsID(items, course.ID) {
			return slices.DeleteFunc(items, func(c domain.Course) bool { return c.ID == course.ID }), true
		}
		saved = true
		return append(items, course), true
	})
	return saved
}

func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return containsID(s.items, id)
}

// List returns a copy of the saved courses.
func (s *Store) List() []domain.Course {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Subscribe registers fn to receive the list after every change.
func (s *Store) Subscribe(fn func([]domain.Course)) (cancel func()) {
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

func (s *Store) mutate(fn func([]domain.Course) ([]domain.Course, bool)) bool {
	s.mu.Lock()
	items, changed := fn(s.items)
	if !changed {
		s.mu.Unlock()
		return false
	}
	s.items = items
	snap := slices.Clone(items)
	subs := make([]func([]domain.Course), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
	return true
}

func containsID(items []domain.Course, id string) bool {
	return slices.ContainsFunc(items, func(c domain.Course) bool { return c.ID == id })
}
