// Package realtime turns database change notifications into board reloads.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Channel is the PostgreSQL notification channel fed by the orders trigger.
const Channel = "orders_changes"

// OpResync is emitted after (re)connecting, since notifications sent while
// no listener was attached are lost.
const OpResync = "resync"

// ChangeEvent is one change on the orders table.
type ChangeEvent struct {
	Op      string    `json:"op"`
	OrderID uuid.UUID `json:"order_id"`
}

// notifConn is the part of *pgx.Conn the listener uses.
type notifConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
}

// Listener holds one pooled connection in LISTEN and hands every
// notification to handle.
type Listener struct {
	pool   *pgxpool.Pool
	handle func(ChangeEvent)
	retry  time.Duration
}

// NewListener creates a Listener. handle is called from the listener's
// goroutine and must not block.
func NewListener(pool *pgxpool.Pool, handle func(ChangeEvent)) *Listener {
	return &Listener{pool: pool, handle: handle, retry: 2 * time.Second}
}

// Run listens until ctx is done, reconnecting after connection failures.
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.runOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		log.Printf("WARN: orders listener: %v; reconnecting in %s", err, l.retry)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.retry):
		}
	}
}

func (l *Listener) runOnce(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire conn: %w", err)
	}
	defer conn.Release()
	return l.listen(ctx, conn.Conn())
}

var _ notifConn = (*pgx.Conn)(nil)

func (l *Listener) listen(ctx context.Context, conn notifConn) error {
	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	l.handle(ChangeEvent{Op: OpResync})

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		l.handle(parseNotification(n.Payload))
	}
}

// parseNotification decodes the trigger payload. A payload that cannot be
// decoded still yields an event; the reload does not depend on its content.
func parseNotification(payload string) ChangeEvent {
	var ev ChangeEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		log.Printf("WARN: malformed %s payload %q: %v", Channel, payload, err)
		return ChangeEvent{Op: OpResync}
	}
	return ev
}
