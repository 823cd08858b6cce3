// Package query implements the keyed query cache shared by every screen:
// request deduplication per key, last-known data/error state, manual refetch,
// observer notification, declared invalidation and idle-entry collection.
package query

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/coursehub/learner/internal/pkg/metrics"
)

var (
	// ErrUnknownQuery is returned by Refetch for keys that were never fetched.
	ErrUnknownQuery = errors.New("query: no fetch registered for key")
	// ErrDisabled is returned by Get when the query is disabled and holds no data.
	ErrDisabled = errors.New("query: disabled")

	errFlightGone = errors.New("query: flight already finished")
)

// Config holds the cache-wide policy.
type Config struct {
	// StaleTime is the default freshness window. Zero refetches on every Fetch.
	StaleTime time.Duration
	// GCTime is how long an unobserved entry is kept after its last use.
	GCTime time.Duration
	// FetchTimeout bounds a single remote fetch including retries.
	FetchTimeout time.Duration
	Retry        int
	RetryDelay   time.Duration
	// ShouldRetry filters which errors are retried. Nil retries everything.
	ShouldRetry func(error) bool

	Scheduler   Scheduler
	Broadcaster Broadcaster
	Logger      zerolog.Logger
	Now         func() time.Time
}

type observer struct {
	id uint64
	fn func(Snapshot)
}

type entry struct {
	key       Key
	status    Status
	data      any
	err       error
	updatedAt time.Time
	stale     bool

	fetch FetchFunc
	opts  Options

	started   uint64 // generation of the most recently started flight
	current   uint64 // generation new callers join, 0 when none
	committed uint64 // generation of the last committed result
	flights   map[uint64]context.CancelFunc

	waiters   int
	observers []observer
	lastUsed  time.Time
}

// Cache is safe for concurrent use.
type Cache struct {
	cfg   Config
	log   zerolog.Logger
	group singleflight.Group

	mu           sync.Mutex
	entries      map[string]*entry
	nextObserver uint64
}

// New builds a cache. Zero durations fall back to sane defaults.
func New(cfg Config) *Cache {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.GCTime <= 0 {
		cfg.GCTime = 5 * time.Minute
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 15 * time.Second
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = goScheduler{}
	}
	return &Cache{
		cfg:     cfg,
		log:     cfg.Logger,
		entries: make(map[string]*entry),
	}
}

// Fetch returns the state for key, performing the remote read with fn unless
// the query is disabled or holds fresh data. Concurrent callers for the same
// key attach to the one in-flight request and receive the same result.
//
// The returned error is only the caller's own context error; fetch failures
// are reported in Snapshot.Err.
func (c *Cache) Fetch(ctx context.Context, key Key, fn FetchFunc, opts ...Option) (Snapshot, error) {
	o := c.options(opts)
	resource := key.Resource()

	c.mu.Lock()
	e := c.entryLocked(key)
	e.fetch, e.opts = fn, o
	e.lastUsed = c.cfg.Now()

	if !o.Enabled {
		snap := e.snapshot()
		c.mu.Unlock()
		metrics.QueryRequestsTotal.WithLabelValues(resource, "disabled").Inc()
		return snap, nil
	}
	if e.fresh(c.cfg.Now()) {
		snap := e.snapshot()
		c.mu.Unlock()
		metrics.QueryRequestsTotal.WithLabelValues(resource, "fresh").Inc()
		return snap, nil
	}

	e.waiters++
	var (
		ch     <-chan singleflight.Result
		notify []observer
		snap   Snapshot
	)
	if e.current != 0 {
		ch = c.group.DoChan(flightKey(e.key, e.current), func() (any, error) { return nil, errFlightGone })
		metrics.QueryRequestsTotal.WithLabelValues(resource, "joined").Inc()
	} else {
		ch = c.startLocked(ctx, e)
		notify, snap = e.observersCopy(), e.snapshot()
		metrics.QueryRequestsTotal.WithLabelValues(resource, "started").Inc()
	}
	c.mu.Unlock()

	emit(notify, snap)
	return c.await(ctx, e, ch)
}

// Refetch forces a new fetch for key with the last registered fetch function,
// regardless of freshness. Callers arriving afterwards join the new flight and
// the result of any older flight still running is discarded.
func (c *Cache) Refetch(ctx context.Context, key Key) (Snapshot, error) {
	c.mu.Lock()
	e, ok := c.entries[key.String()]
	if !ok || e.fetch == nil {
		c.mu.Unlock()
		return Snapshot{}, fmt.Errorf("%w: %s", ErrUnknownQuery, key)
	}
	e.waiters++
	e.lastUsed = c.cfg.Now()
	ch := c.startLocked(ctx, e)
	notify, snap := e.observersCopy(), e.snapshot()
	c.mu.Unlock()

	metrics.QueryRequestsTotal.WithLabelValues(key.Resource(), "started").Inc()
	emit(notify, snap)
	return c.await(ctx, e, ch)
}

// Peek returns the cached state for key without fetching.
func (c *Cache) Peek(key Key) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok {
		return Snapshot{}, false
	}
	return e.snapshot(), true
}

// Watch registers fn to receive every state transition of key, starting with
// the current state. An observed entry is never collected. The returned
// function unregisters fn; once the last observer and waiter are gone any
// running fetch for the key is cancelled.
func (c *Cache) Watch(key Key, fn func(Snapshot)) (cancel func()) {
	c.mu.Lock()
	e := c.entryLocked(key)
	c.nextObserver++
	id := c.nextObserver
	e.observers = append(e.observers, observer{id: id, fn: fn})
	snap := e.snapshot()
	c.mu.Unlock()

	fn(snap)

	var once sync.Once
	return func() {
		once.Do(func() { c.unwatch(e, id) })
	}
}

// Invalidate marks every entry matching one of the key prefixes as stale,
// refetches the observed ones in the background and publishes the keys to the
// Broadcaster when one is configured. It returns the number of entries hit.
func (c *Cache) Invalidate(ctx context.Context, keys ...Key) int {
	n := c.invalidate("local", keys)
	if c.cfg.Broadcaster != nil && len(keys) > 0 {
		if err := c.cfg.Broadcaster.Publish(ctx, keys); err != nil {
			c.log.Warn().Err(err).Int("keys", len(keys)).Msg("failed to publish invalidation")
		}
	}
	return n
}

// InvalidateLocal is Invalidate without broadcasting. Used for invalidations
// received from other instances.
func (c *Cache) InvalidateLocal(keys ...Key) int {
	return c.invalidate("remote", keys)
}

// Remove drops the entry for key and cancels its running fetches.
func (c *Cache) Remove(key Key) bool {
	c.mu.Lock()
	e, ok := c.entries[key.String()]
	var cancels []context.CancelFunc
	if ok {
		cancels = c.dropLocked(e)
	}
	c.mu.Unlock()
	runAll(cancels)
	return ok
}

// Clear drops every entry and cancels every running fetch.
func (c *Cache) Clear() {
	c.mu.Lock()
	var cancels []context.CancelFunc
	for _, e := range c.entries {
		cancels = append(cancels, c.dropLocked(e)...)
	}
	c.mu.Unlock()
	runAll(cancels)
}

// Collect removes entries that have no observers, no waiters, no running fetch
// and were last used at least GCTime before now.
func (c *Cache) Collect(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if len(e.observers) > 0 || e.waiters > 0 || len(e.flights) > 0 {
			continue
		}
		if now.Sub(e.lastUsed) < c.cfg.GCTime {
			continue
		}
		c.dropLocked(e)
		n++
	}
	return n
}

// Run collects idle entries periodically until ctx is done.
func (c *Cache) Run(ctx context.Context) {
	interval := c.cfg.GCTime / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.Clear()
			return
		case <-ticker.C:
			if n := c.Collect(c.cfg.Now()); n > 0 {
				c.log.Debug().Int("collected", n).Msg("query cache collected idle entries")
			}
		}
	}
}

// Entries returns snapshots of every entry ordered by key.
func (c *Cache) Entries() []Snapshot {
	c.mu.Lock()
	out := make([]Snapshot, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.snapshot())
	}
	c.mu.Unlock()
	slices.SortFunc(out, func(a, b Snapshot) int {
		return strings.Compare(a.Key.String(), b.Key.String())
	})
	return out
}

// --- internals ---

func (c *Cache) options(opts []Option) Options {
	o := Options{
		Enabled:    true,
		StaleTime:  c.cfg.StaleTime,
		Retry:      c.cfg.Retry,
		RetryDelay: c.cfg.RetryDelay,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (c *Cache) entryLocked(key Key) *entry {
	id := key.String()
	if e, ok := c.entries[id]; ok {
		return e
	}
	e := &entry{
		key:      slices.Clone(key),
		flights:  make(map[uint64]context.CancelFunc),
		lastUsed: c.cfg.Now(),
	}
	c.entries[id] = e
	metrics.QueryEntries.Set(float64(len(c.entries)))
	return e
}

func (c *Cache) dropLocked(e *entry) []context.CancelFunc {
	cancels := make([]context.CancelFunc, 0, len(e.flights))
	for _, cancel := range e.flights {
		cancels = append(cancels, cancel)
	}
	e.current = 0
	delete(c.entries, e.key.String())
	metrics.QueryEntries.Set(float64(len(c.entries)))
	return cancels
}

// startLocked begins a new generation for e. The fetch context is detached
// from the caller so one caller leaving does not fail the others.
func (c *Cache) startLocked(ctx context.Context, e *entry) <-chan singleflight.Result {
	e.started++
	gen := e.started
	e.current = gen
	e.status = StatusLoading

	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.FetchTimeout)
	e.flights[gen] = cancel

	fn, opts := e.fetch, e.opts
	return c.group.DoChan(flightKey(e.key, gen), func() (any, error) {
		began := time.Now()
		data, err := c.run(fctx, fn, opts)
		metrics.QueryFetchDuration.WithLabelValues(e.key.Resource()).Observe(time.Since(began).Seconds())
		c.commit(e, gen, fctx, data, err)
		return data, err
	})
}

func (c *Cache) run(ctx context.Context, fn FetchFunc, o Options) (any, error) {
	for attempt := 0; ; attempt++ {
		data, err := fn(ctx)
		if err == nil {
			return data, nil
		}
		if attempt >= o.Retry || ctx.Err() != nil {
			return nil, err
		}
		if c.cfg.ShouldRetry != nil && !c.cfg.ShouldRetry(err) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(o.RetryDelay):
		}
	}
}

// commit stores a finished flight's outcome unless the entry was dropped, the
// flight was cancelled by the cache, or a newer flight already committed.
func (c *Cache) commit(e *entry, gen uint64, fctx context.Context, data any, err error) {
	resource := e.key.Resource()

	c.mu.Lock()
	cancel := e.flights[gen]
	delete(e.flights, gen)
	if e.current == gen {
		e.current = 0
	}

	result := "success"
	switch {
	case c.entries[e.key.String()] != e:
		result = "cancelled"
	case err != nil && errors.Is(fctx.Err(), context.Canceled):
		result = "cancelled"
		e.stale = true
		if len(e.flights) == 0 {
			e.settleLocked()
		}
	case gen <= e.committed:
		metrics.QueryStaleDiscardsTotal.WithLabelValues(resource).Inc()
		c.log.Debug().Str("key", e.key.String()).Uint64("gen", gen).Uint64("committed", e.committed).Msg("discarded out-of-order result")
		result = "discarded"
		if len(e.flights) == 0 {
			e.settleLocked()
		}
	default:
		e.committed = gen
		e.updatedAt = c.cfg.Now()
		e.stale = false
		if err != nil {
			e.err = err
			e.status = StatusError
			result = "error"
		} else {
			e.data = data
			e.err = nil
			e.status = StatusSuccess
		}
		if len(e.flights) > 0 {
			e.status = StatusLoading
		}
	}
	notify, snap := e.observersCopy(), e.snapshot()
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if result != "discarded" {
		metrics.QueryFetchesTotal.WithLabelValues(resource, result).Inc()
	}
	if result == "error" {
		c.log.Warn().Err(err).Str("key", e.key.String()).Msg("query fetch failed")
	}
	emit(notify, snap)
}

func (c *Cache) await(ctx context.Context, e *entry, ch <-chan singleflight.Result) (Snapshot, error) {
	select {
	case r := <-ch:
		snap := c.release(e)
		snap.Data, snap.Err = r.Val, r.Err
		if r.Err != nil {
			snap.Status = StatusError
		} else {
			snap.Status = StatusSuccess
		}
		return snap, nil
	case <-ctx.Done():
		c.release(e)
		return Snapshot{}, ctx.Err()
	}
}

func (c *Cache) release(e *entry) Snapshot {
	c.mu.Lock()
	e.waiters--
	cancels := c.abandonLocked(e)
	snap := e.snapshot()
	c.mu.Unlock()
	runAll(cancels)
	return snap
}

func (c *Cache) unwatch(e *entry, id uint64) {
	c.mu.Lock()
	e.observers = slices.DeleteFunc(e.observers, func(o observer) bool { return o.id == id })
	e.lastUsed = c.cfg.Now()
	cancels := c.abandonLocked(e)
	c.mu.Unlock()
	runAll(cancels)
}

// abandonLocked cancels e's fetches when nobody waits for or observes them.
func (c *Cache) abandonLocked(e *entry) []context.CancelFunc {
	if e.waiters > 0 || len(e.observers) > 0 || len(e.flights) == 0 {
		return nil
	}
	cancels := make([]context.CancelFunc, 0, len(e.flights))
	for _, cancel := range e.flights {
		cancels = append(cancels, cancel)
	}
	e.current = 0
	return cancels
}

func (c *Cache) invalidate(origin string, keys []Key) int {
	c.mu.Lock()
	n := 0
	var refetch []Key
	for _, e := range c.entries {
		if !matchesAny(e.key, keys) {
			continue
		}
		e.stale = true
		n++
		if len(e.observers) > 0 && e.fetch != nil && e.opts.Enabled {
			refetch = append(refetch, e.key)
		}
	}
	c.mu.Unlock()

	if n > 0 {
		metrics.QueryInvalidationsTotal.WithLabelValues(origin).Add(float64(n))
	}
	for _, k := range refetch {
		c.cfg.Scheduler.Schedule(k, func(ctx context.Context) {
			if _, err := c.Refetch(ctx, k); err != nil && !errors.Is(err, ErrUnknownQuery) {
				c.log.Warn().Err(err).Str("key", k.String()).Msg("background refetch failed")
			}
		})
	}
	return n
}

func (e *entry) fresh(now time.Time) bool {
	return e.status == StatusSuccess && !e.stale && e.opts.StaleTime > 0 &&
		now.Sub(e.updatedAt) < e.opts.StaleTime
}

// settleLocked returns the entry to its last terminal state.
func (e *entry) settleLocked() {
	switch {
	case e.committed == 0:
		e.status = StatusIdle
	case e.err != nil:
		e.status = StatusError
	default:
		e.status = StatusSuccess
	}
}

func (e *entry) snapshot() Snapshot {
	return Snapshot{
		Key:       e.key,
		Status:    e.status,
		Data:      e.data,
		Err:       e.err,
		UpdatedAt: e.updatedAt,
		Fetching:  len(e.flights) > 0,
		Stale:     e.stale,
		Observers: len(e.observers),
		Waiters:   e.waiters,
	}
}

func (e *entry) observersCopy() []observer {
	return slices.Clone(e.observers)
}

func emit(obs []observer, snap Snapshot) {
	for _, o := range obs {
		o.fn(snap)
	}
}

func runAll(fns []context.CancelFunc) {
	for _, fn := range fns {
		fn()
	}
}

func flightKey(k Key, gen uint64) string {
	return k.String() + "#" + strconv.FormatUint(gen, 10)
}
