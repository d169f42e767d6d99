package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/workboard/workboard-api/internal/core/domain"
)

type recordingRepo struct {
	mu     sync.Mutex
	events []domain.AuditEvent
	block  chan struct{}
}

func (r *recordingRepo) Insert(_ context.Context, ev *domain.AuditEvent) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *ev)
	return nil
}

func (r *recordingRepo) snapshot() []domain.AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuditEvent(nil), r.events...)
}

type counter struct{ n atomic.Int64 }

func (c *counter) Inc() { c.n.Add(1) }

func TestDispatcher_DeliversInOrderPerActor(t *testing.T) {
	repo := &recordingRepo{}
	d := NewDispatcher(4, 64, repo, nil, zerolog.Nop())
	d.Start()

	for i := 0; i < 10; i++ {
		d.Publish(domain.AuditEvent{ActorID: "alice", Action: domain.AuditLoginFailed, Resource: string(rune('a' + i))})
	}
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	events := repo.snapshot()
	if len(events) != 10 {
		t.Fatalf("expected 10 events, got %d", len(events))
	}
	for i, ev := range events {
		if ev.Resource != string(rune('a'+i)) {
			t.Fatalf("event %d out of order: %q", i, ev.Resource)
		}
		if ev.ID == "" || ev.OccurredAt.IsZero() {
			t.Fatalf("event %d missing id or timestamp: %+v", i, ev)
		}
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	repo := &recordingRepo{block: make(chan struct{})}
	dropped := &counter{}
	d := NewDispatcher(1, 1, repo, dropped, zerolog.Nop())
	d.Start()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			d.Publish(domain.AuditEvent{ActorID: "bob", Action: domain.AuditAccessDenied})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Publish blocked on a full queue")
	}
	if dropped.n.Load() == 0 {
		t.Fatalf("expected dropped events to be counted")
	}

	close(repo.block)
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}

func TestDispatcher_PublishAfterClose(t *testing.T) {
	dropped := &counter{}
	d := NewDispatcher(1, 1, &recordingRepo{}, dropped, zerolog.Nop())
	d.Start()
	_ = d.Close(context.Background())

	d.Publish(domain.AuditEvent{ActorID: "carol"})
	if dropped.n.Load() != 1 {
		t.Fatalf("expected publish after close to be dropped")
	}
}

func TestShardIndexStable(t *testing.T) {
	d := NewDispatcher(8, 1, &recordingRepo{}, nil, zerolog.Nop())
	first := d.shardIndex("user-42")
	for i := 0; i < 10; i++ {
		if d.shardIndex("user-42") != first {
			t.Fatalf("shard index must be deterministic")
		}
	}
}
