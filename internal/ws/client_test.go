package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestOriginAllowed(t *testing.T) {
	allowed := []string{"http://localhost:5173", "https://pdv.example.com"}

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:5173", true},
		{"HTTPS://PDV.EXAMPLE.COM", true},
		{"https://pdv.example.com/", true},
		{"http://pdv.example.com", false},
		{"https://evil.example.com", false},
		{"not a url", false},
	}

	for _, tt := range tests {
		if got := originAllowed(tt.origin, allowed); got != tt.want {
			t.Errorf("originAllowed(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}

	if !originAllowed("https://anything.example.com", []string{"*"}) {
		t.Error("wildcard should allow any origin")
	}
}

func startServer(t *testing.T, origins []string) (*Hub, string) {
	t.Helper()
	hub := startHub(t)
	srv := httptest.NewServer(NewHandler(hub, "orders", origins))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestHandler_DeliversBroadcasts(t *testing.T) {
	hub, url := startServer(t, []string{"http://localhost:5173"})

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for hub.Subscribers("orders") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Broadcast("orders", Event{Type: "board.snapshot", Payload: json.RawMessage(`{"open_count":1}`)})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Type != "board.snapshot" || string(ev.Payload) != `{"open_count":1}` {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestHandler_RejectsForeignOrigin(t *testing.T) {
	_, url := startServer(t, []string{"http://localhost:5173"})

	header := http.Header{}
	header.Set("Origin", "https://evil.example.com")
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("expected handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", resp)
	}
}
