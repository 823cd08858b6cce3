package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/coursehub/learner/internal/core/domain"
	"github.com/coursehub/learner/internal/core/query"
	"github.com/coursehub/learner/internal/core/wishlist"
	"github.com/coursehub/learner/internal/infrastructure/notify"
)

// syncRecorder is a flushable ResponseWriter safe to read while the
// stream is still writing.
type syncRecorder struct {
	mu     sync.Mutex
	header http.Header
	body   bytes.Buffer
	code   int
}

func (r *syncRecorder) Header() http.Header { return r.header }

func (r *syncRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.Write(p)
}

func (r *syncRecorder) WriteHeader(code int) {
	r.mu.Lock()
	r.code = code
	r.mu.Unlock()
}

func (r *syncRecorder) Flush() {}

func (r *syncRecorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.String()
}

type staticSessionStream struct{ sess domain.Session }

func (s staticSessionStream) Snapshot() domain.Session { return s.sess }

func (s staticSessionStream) Subscribe(func(domain.Session)) func() { return func() {} }

func newCache() *query.Cache {
	return query.New(query.Config{Logger: zerolog.Nop()})
}

func waitFor(t *testing.T, rec *syncRecorder, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(rec.String(), want) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q, got:\n%s", want, rec.String())
}

func TestStreamHandler_PushesInitialStateAndChanges(t *testing.T) {
	store := wishlist.New()
	store.Add(domain.Course{ID: "c1", Title: "Go"})
	feed := notify.NewFeed(10, zerolog.Nop())
	h := NewStreamHandler(staticSessionStream{}, store, feed, newCache(), time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/v1/stream", nil).WithContext(ctx)
	rec := &syncRecorder{header: http.Header{}}
	c := echo.New().NewContext(req, rec)

	done := make(chan error, 1)
	go func() { done <- h.Stream(c) }()

	waitFor(t, rec, "event: session\ndata: {\"authenticated\":false")
	waitFor(t, rec, "event: wishlist\ndata: {\"total\":1")

	feed.Success("Course enrolled successfully", "")
	waitFor(t, rec, "event: notification")
	store.Toggle(domain.Course{ID: "c1"})
	waitFor(t, rec, "event: wishlist\ndata: {\"total\":0")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("stream returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("stream did not stop after the client left")
	}
	if got := rec.header.Get(echo.HeaderContentType); got != "text/event-stream" {
		t.Fatalf("unexpected content type %q", got)
	}
}

func TestStreamHandler_Heartbeat(t *testing.T) {
	h := NewStreamHandler(staticSessionStream{}, wishlist.New(), notify.NewFeed(1, zerolog.Nop()), newCache(), 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/v1/stream", nil).WithContext(ctx)
	rec := &syncRecorder{header: http.Header{}}
	c := echo.New().NewContext(req, rec)

	done := make(chan struct{})
	go func() {
		_ = h.Stream(c)
		close(done)
	}()
	waitFor(t, rec, ": ping\n\n")
	cancel()
	<-done
}

func TestStreamHandler_WatchedQueryRefetchesAfterInvalidation(t *testing.T) {
	cache := newCache()
	key := query.NewKey("course-reviews", "c1")
	var calls atomic.Int32
	fetch := func(context.Context) (*domain.ReviewList, error) {
		n := int(calls.Add(1))
		return &domain.ReviewList{Total: n}, nil
	}
	if _, err := query.Get(context.Background(), cache, key, fetch); err != nil {
		t.Fatalf("Get: %v", err)
	}
	h := NewStreamHandler(staticSessionStream{}, wishlist.New(), notify.NewFeed(1, zerolog.Nop()), cache, time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/v1/stream?watch=course-reviews/c1", nil).WithContext(ctx)
	rec := &syncRecorder{header: http.Header{}}
	c := echo.New().NewContext(req, rec)
	done := make(chan struct{})
	go func() {
		_ = h.Stream(c)
		close(done)
	}()

	waitFor(t, rec, `"data":{"data":null,"total":1}`)
	if n := cache.Invalidate(context.Background(), query.NewKey("course-reviews")); n != 1 {
		t.Fatalf("expected 1 invalidated entry, got %d", n)
	}
	waitFor(t, rec, `"data":{"data":null,"total":2}`)
	if n := calls.Load(); n != 2 {
		t.Fatalf("expected one background refetch, got %d fetches", n)
	}

	cancel()
	<-done
	if snap, _ := cache.Peek(key); snap.Observers != 0 {
		t.Fatalf("stream should stop observing on exit, got %d observers", snap.Observers)
	}
}

func TestStreamHandler_RejectsBadWatchKey(t *testing.T) {
	h := NewStreamHandler(staticSessionStream{}, wishlist.New(), notify.NewFeed(1, zerolog.Nop()), newCache(), time.Hour, zerolog.Nop())
	c, _ := newContext(http.MethodGet, "/v1/stream?watch=", "")
	var he *echo.HTTPError
	if err := h.Stream(c); !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}
