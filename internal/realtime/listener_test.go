package realtime

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeConn struct {
	execSQL       []string
	execErr       error
	notifications []string
	waitErr       error
}

func (f *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	return pgconn.CommandTag{}, f.execErr
}

func (f *fakeConn) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	if len(f.notifications) == 0 {
		return nil, f.waitErr
	}
	p := f.notifications[0]
	f.notifications = f.notifications[1:]
	return &pgconn.Notification{Channel: Channel, Payload: p}, nil
}

func TestListen_ForwardsNotifications(t *testing.T) {
	id := uuid.New()
	conn := &fakeConn{
		notifications: []string{
			`{"op":"insert","order_id":"` + id.String() + `"}`,
			`{"op":"update","order_id":"` + id.String() + `"}`,
		},
		waitErr: errors.New("conn closed"),
	}

	var got []ChangeEvent
	l := &Listener{handle: func(ev ChangeEvent) { got = append(got, ev) }}

	err := l.listen(context.Background(), conn)
	if err == nil {
		t.Fatal("expected error once the connection fails")
	}

	if len(conn.execSQL) != 1 || conn.execSQL[0] != "LISTEN orders_changes" {
		t.Fatalf("exec = %v, want LISTEN orders_changes", conn.execSQL)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	if got[0].Op != OpResync {
		t.Errorf("first event op = %q, want %q", got[0].Op, OpResync)
	}
	if got[1].Op != "insert" || got[1].OrderID != id {
		t.Errorf("event[1] = %+v", got[1])
	}
	if got[2].Op != "update" {
		t.Errorf("event[2].Op = %q, want update", got[2].Op)
	}
}

func TestListen_ExecFailure(t *testing.T) {
	conn := &fakeConn{execErr: errors.New("permission denied")}
	called := false
	l := &Listener{handle: func(ChangeEvent) { called = true }}

	if err := l.listen(context.Background(), conn); err == nil {
		t.Fatal("expected error")
	}
	if called {
		t.Error("handler should not run when LISTEN fails")
	}
}

func TestParseNotification(t *testing.T) {
	id := uuid.New()

	ev := parseNotification(`{"op":"delete","order_id":"` + id.String() + `"}`)
	if ev.Op != "delete" || ev.OrderID != id {
		t.Errorf("got %+v", ev)
	}

	ev = parseNotification(`not json`)
	if ev.Op != OpResync {
		t.Errorf("malformed payload op = %q, want %q", ev.Op, OpResync)
	}
}
