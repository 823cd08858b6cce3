// Package queue runs background cache refetches on a fixed pool of workers.
package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/coursehub/learner/internal/core/query"
	"github.com/coursehub/learner/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
)

type job struct {
	key query.Key
	run func(ctx context.Context)
}

// Dispatcher routes refetch jobs to workers by hashing the query key, so jobs
// for one key run in submission order. It implements query.Scheduler.
type Dispatcher struct {
	workers []chan job
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan job, numWorkers),
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan job, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Schedule queues fn for the worker owning key. A full worker queue drops the
// job; the entry stays stale and is fetched on its next read.
func (d *Dispatcher) Schedule(key query.Key, fn func(ctx context.Context)) {
	idx := d.shardIndex(key.String())
	select {
	case d.workers[idx] <- job{key: key, run: fn}:
		metrics.RefetchQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		d.log.Warn().Str("key", key.String()).Int("worker_id", idx).Msg("refetch queue full, dropping job")
	}
}

// shardIndex maps a key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan job) {
	defer d.wg.Done()
	depth := metrics.RefetchQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-ch:
			depth.Dec()
			d.log.Debug().Str("key", j.key.String()).Int("worker_id", id).Msg("running background refetch")
			j.run(ctx)
		}
	}
}
