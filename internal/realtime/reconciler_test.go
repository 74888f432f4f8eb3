package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cardapio-pos/api/internal/service"
	"github.com/cardapio-pos/api/internal/ws"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fakeLoader struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeLoader) Snapshot(ctx context.Context, deliveryType string) (*service.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &service.Snapshot{OpenCount: f.calls, OpenTotal: decimal.NewFromInt(10)}, nil
}

func (f *fakeLoader) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeHub struct {
	mu     sync.Mutex
	topics []string
	events []ws.Event
}

func (f *fakeHub) Broadcast(topic string, event ws.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	f.events = append(f.events, event)
}

func (f *fakeHub) sent() []ws.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ws.Event(nil), f.events...)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []ChangeEvent
}

func (f *fakePublisher) Publish(ctx context.Context, ev ChangeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakePublisher) published() []ChangeEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ChangeEvent(nil), f.events...)
}

func renderCount(s *service.Snapshot) any {
	return map[string]int{"open_count": s.OpenCount}
}

func runReconciler(t *testing.T, r *Reconciler) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx) //nolint:errcheck
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestTrigger_Coalesces(t *testing.T) {
	loader := &fakeLoader{}
	hub := &fakeHub{}
	r := NewReconciler(loader, hub, renderCount)

	// Not running yet: three triggers collapse into one pending reload.
	r.Trigger()
	r.Trigger()
	r.Trigger()

	runReconciler(t, r)
	time.Sleep(20 * time.Millisecond)

	if n := loader.count(); n != 1 {
		t.Fatalf("expected 1 reload, got %d", n)
	}
	events := hub.sent()
	if len(events) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(events))
	}
	if hub.topics[0] != Topic {
		t.Errorf("topic = %q, want %q", hub.topics[0], Topic)
	}
	if events[0].Type != EventBoardSnapshot {
		t.Errorf("type = %q, want %q", events[0].Type, EventBoardSnapshot)
	}
	var payload map[string]int
	if err := json.Unmarshal(events[0].Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload["open_count"] != 1 {
		t.Errorf("open_count = %d, want 1", payload["open_count"])
	}
}

func TestTrigger_NeverBlocks(t *testing.T) {
	r := NewReconciler(&fakeLoader{}, &fakeHub{}, renderCount)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			r.Trigger()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Trigger blocked without a running reconciler")
	}
}

func TestReload_LoaderError(t *testing.T) {
	loader := &fakeLoader{err: errors.New("db down")}
	hub := &fakeHub{}
	r := NewReconciler(loader, hub, renderCount)
	runReconciler(t, r)

	r.Trigger()
	time.Sleep(20 * time.Millisecond)

	if loader.count() != 1 {
		t.Fatalf("expected 1 reload attempt, got %d", loader.count())
	}
	if len(hub.sent()) != 0 {
		t.Error("nothing should be broadcast when the reload fails")
	}
}

func TestHandleChange_PublishesAndReloads(t *testing.T) {
	loader := &fakeLoader{}
	hub := &fakeHub{}
	pub := &fakePublisher{}
	r := NewReconciler(loader, hub, renderCount).WithPublisher(pub)
	runReconciler(t, r)

	id := uuid.New()
	r.HandleChange(ChangeEvent{Op: OpResync})
	time.Sleep(20 * time.Millisecond)
	r.HandleChange(ChangeEvent{Op: "insert", OrderID: id})
	time.Sleep(20 * time.Millisecond)

	published := pub.published()
	if len(published) != 1 {
		t.Fatalf("expected 1 published event (resync is local only), got %d", len(published))
	}
	if published[0].OrderID != id || published[0].Op != "insert" {
		t.Errorf("published %+v", published[0])
	}
	if loader.count() != 2 {
		t.Errorf("expected 2 reloads, got %d", loader.count())
	}
}

func TestHandleChange_WithoutPublisher(t *testing.T) {
	loader := &fakeLoader{}
	r := NewReconciler(loader, &fakeHub{}, renderCount)
	runReconciler(t, r)

	r.HandleChange(ChangeEvent{Op: "update", OrderID: uuid.New()})
	time.Sleep(20 * time.Millisecond)

	if loader.count() != 1 {
		t.Errorf("expected 1 reload, got %d", loader.count())
	}
}
