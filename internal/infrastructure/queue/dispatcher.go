// Package queue delivers audit events to storage off the request path.
package queue

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/workboard/workboard-api/internal/core/domain"
	"github.com/workboard/workboard-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	defaultBuffer  = 256
	writeTimeout   = 5 * time.Second
)

// DropCounter is notified when an event is discarded because its shard is full.
type DropCounter interface {
	Inc()
}

// Dispatcher routes audit events to a fixed set of workers by hashing the
// actor ID, so one actor's events are stored in publish order.
type Dispatcher struct {
	workers []chan domain.AuditEvent
	repo    ports.AuditRepository
	dropped DropCounter
	log     zerolog.Logger

	mu      sync.RWMutex
	started bool
	closed  bool
	wg      sync.WaitGroup
}

var _ ports.AuditSink = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers shards of buffer events
// each. Non-positive values fall back to the defaults. dropped may be nil.
func NewDispatcher(numWorkers, buffer int, repo ports.AuditRepository, dropped DropCounter, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	d := &Dispatcher{
		workers: make([]chan domain.AuditEvent, numWorkers),
		repo:    repo,
		dropped: dropped,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuditEvent, buffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain their queue and exit
// once Close is called.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(i, ch)
	}
}

// Publish enqueues ev without blocking. When the shard is full the event is
// dropped and counted.
func (d *Dispatcher) Publish(ev domain.AuditEvent) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(ev, "dispatcher closed")
		return
	}

	select {
	case d.workers[d.shardIndex(ev.ActorID)] <- ev:
	default:
		d.drop(ev, "queue full")
	}
}

// Close stops accepting events and waits until queued events are written or
// ctx expires.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) drop(ev domain.AuditEvent, reason string) {
	if d.dropped != nil {
		d.dropped.Inc()
	}
	d.log.Warn().
		Str("action", string(ev.Action)).
		Str("actor_id", ev.ActorID).
		Str("reason", reason).
		Msg("audit event dropped")
}

// shardIndex maps an actor ID deterministically to a worker index.
func (d *Dispatcher) shardIndex(actorID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(actorID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(id int, ch <-chan domain.AuditEvent) {
	defer d.wg.Done()
	for ev := range ch {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := d.repo.Insert(ctx, &ev); err != nil {
			d.log.Error().Err(err).
				Str("action", string(ev.Action)).
				Int("worker_id", id).
				Msg("audit event write failed")
		}
		cancel()
	}
}
