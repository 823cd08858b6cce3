package query

import (
	"context"
	"time"
)

// Status is the per-key state machine: idle → loading → success | error,
// re-entering loading on every refetch.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// MarshalText renders the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Snapshot is a point-in-time view of one cache entry.
type Snapshot struct {
	Key       Key
	Status    Status
	Data      any
	Err       error
	UpdatedAt time.Time
	Fetching  bool
	Stale     bool
	Observers int
	Waiters   int
}

// IsLoading reports whether a fetch is running and no result is held yet.
func (s Snapshot) IsLoading() bool {
	return s.Status == StatusLoading && s.Data == nil
}

// FetchFunc performs the remote read for a key.
type FetchFunc func(ctx context.Context) (any, error)

// Options tune a single Fetch call.
type Options struct {
	Enabled    bool
	StaleTime  time.Duration
	Retry      int
	RetryDelay time.Duration
}

// Option mutates Options.
type Option func(*Options)

// Enabled turns the fetch off when v is false; the cached state is returned as is.
func Enabled(v bool) Option {
	return func(o *Options) { o.Enabled = v }
}

// WithStaleTime serves a successful result without refetching while younger than d.
func WithStaleTime(d time.Duration) Option {
	return func(o *Options) { o.StaleTime = d }
}

// WithRetry retries a failed fetch n more times, waiting delay between attempts.
func WithRetry(n int, delay time.Duration) Option {
	return func(o *Options) {
		o.Retry = n
		o.RetryDelay = delay
	}
}

// Scheduler runs background refetch jobs.
type Scheduler interface {
	Schedule(key Key, job func(ctx context.Context))
}

// Broadcaster propagates invalidations to other instances.
type Broadcaster interface {
	Publish(ctx context.Context, keys []Key) error
}

type goScheduler struct{}

func (goScheduler) Schedule(_ Key, job func(ctx context.Context)) {
	go job(context.Background())
}
