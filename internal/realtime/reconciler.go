package realtime

import (
	"context"
	"encoding/json"
	"log"

	"github.com/cardapio-pos/api/internal/service"
	"github.com/cardapio-pos/api/internal/ws"
)

// Topic is the hub topic order boards subscribe to.
const Topic = "orders"

// EventBoardSnapshot carries a full board reload.
const EventBoardSnapshot = "board.snapshot"

// SnapshotLoader reloads the board. Satisfied by *service.BoardService.
type SnapshotLoader interface {
	Snapshot(ctx context.Context, deliveryType string) (*service.Snapshot, error)
}

// Broadcaster fans an event out to subscribers. Satisfied by *ws.Hub.
type Broadcaster interface {
	Broadcast(topic string, event ws.Event)
}

// Publisher forwards change events to external consumers.
type Publisher interface {
	Publish(ctx context.Context, ev ChangeEvent) error
}

// Reconciler reloads the board from the database and pushes it to every
// connected screen. Local mutations and database notifications both end up
// in Trigger, and pending triggers coalesce into a single reload.
type Reconciler struct {
	loader    SnapshotLoader
	hub       Broadcaster
	render    func(*service.Snapshot) any
	publisher Publisher

	pending chan struct{}
	events  chan ChangeEvent
}

// NewReconciler creates a Reconciler. render shapes the snapshot payload the
// same way the HTTP board endpoint does.
func NewReconciler(loader SnapshotLoader, hub Broadcaster, render func(*service.Snapshot) any) *Reconciler {
	return &Reconciler{
		loader:  loader,
		hub:     hub,
		render:  render,
		pending: make(chan struct{}, 1),
		events:  make(chan ChangeEvent, 64),
	}
}

// WithPublisher forwards every database change event to p.
func (r *Reconciler) WithPublisher(p Publisher) *Reconciler {
	r.publisher = p
	return r
}

// Trigger schedules a reload. It never blocks.
func (r *Reconciler) Trigger() {
	select {
	case r.pending <- struct{}{}:
	default:
	}
}

// HandleChange is the Listener callback: it forwards the event and schedules
// a reload.
func (r *Reconciler) HandleChange(ev ChangeEvent) {
	if r.publisher != nil && ev.Op != OpResync {
		select {
		case r.events <- ev:
		default:
			log.Printf("WARN: dropping %s event for order %s, publish queue full", ev.Op, ev.OrderID)
		}
	}
	r.Trigger()
}

// Run performs reloads until ctx is done.
func (r *Reconciler) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.pending:
			r.reload(ctx)
		case ev := <-r.events:
			if err := r.publisher.Publish(ctx, ev); err != nil {
				log.Printf("ERROR: publish order change %s: %v", ev.OrderID, err)
			}
		}
	}
}

func (r *Reconciler) reload(ctx context.Context) {
	snap, err := r.loader.Snapshot(ctx, "")
	if err != nil {
		log.Printf("ERROR: reload board: %v", err)
		return
	}

	payload, err := json.Marshal(r.render(snap))
	if err != nil {
		log.Printf("ERROR: encode board snapshot: %v", err)
		return
	}
	r.hub.Broadcast(Topic, ws.Event{Type: EventBoardSnapshot, Payload: payload})
}
