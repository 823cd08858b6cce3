// Package notify keeps the recent transient notifications of the runtime and
// fans them out to live subscribers.
package notify

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/coursehub/learner/internal/core/domain"
)

const defaultCapacity = 50

// Feed is a bounded, newest-last list of notifications. It implements
// ports.Notifier.
type Feed struct {
	mu       sync.Mutex
	items    []domain.Notification
	capacity int
	subs     map[uint64]func(domain.Notification)
	nextSub  uint64
	log      zerolog.Logger
	now      func() time.Time
}

func NewFeed(capacity int, log zerolog.Logger) *Feed {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Feed{
		capacity: capacity,
		subs:     make(map[uint64]func(domain.Notification)),
		log:      log,
		now:      time.Now,
	}
}

func (f *Feed) Success(title, detail string) {
	f.push(domain.NotificationSuccess, title, detail)
}

func (f *Feed) Error(title, detail string) {
	f.push(domain.NotificationError, title, detail)
}

// List returns the retained notifications, oldest first.
func (f *Feed) List() []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.items)
}

// Subscribe registers fn for every notification pushed from now on.
func (f *Feed) Subscribe(fn func(domain.Notification)) (cancel func()) {
	f.mu.Lock()
	f.nextSub++
	id := f.nextSub
	f.subs[id] = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

func (f *Feed) push(kind domain.NotificationKind, title, detail string) {
	n := domain.Notification{
		ID:     uuid.NewString(),
		Kind:   kind,
		Title:  title,
		Detail: detail,
		At:     f.now().UTC(),
	}

	f.mu.Lock()
	f.items = append(f.items, n)
	if over := len(f.items) - f.capacity; over > 0 {
		f.items = slices.Delete(f.items, 0, over)
	}
	subs := make([]func(domain.Notification), 0, len(f.subs))
	for _, s := range f.subs {
		subs = append(subs, s)
	}
	f.mu.Unlock()

	ev := f.log.Info()
	if kind == domain.NotificationError {
		ev = f.log.Warn()
	}
	ev.Str("kind", string(kind)).Str("title", title).Str("detail", detail).Msg("notification")

	for _, s := range subs {
		s(n)
	}
}
