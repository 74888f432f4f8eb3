package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, topic string) *Client {
	return &Client{
		hub:   hub,
		topic: topic,
		send:  make(chan []byte, sendBuffer),
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub()
	go hub.Run(ctx) //nolint:errcheck
	return hub
}

func TestHubRegistration(t *testing.T) {
	hub := startHub(t)
	client := mockClient(hub, "orders")

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.rooms["orders"] == nil {
		t.Fatal("topic room not created")
	}
	if !hub.rooms["orders"][client] {
		t.Fatal("client not registered in topic room")
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := startHub(t)
	client := mockClient(hub, "orders")

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	if n := hub.Subscribers("orders"); n != 0 {
		t.Fatalf("expected 0 subscribers, got %d", n)
	}

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	if hub.rooms["orders"] != nil {
		t.Fatal("topic room not cleaned up after last client unregistered")
	}
}

func TestBroadcastToSingleTopic(t *testing.T) {
	hub := startHub(t)

	board := mockClient(hub, "orders")
	other := mockClient(hub, "kitchen")

	hub.register <- board
	hub.register <- other
	time.Sleep(10 * time.Millisecond)

	testPayload := json.RawMessage(`{"open_count":2}`)
	hub.Broadcast("orders", Event{Type: "board.snapshot", Payload: testPayload})

	select {
	case msg := <-board.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		if received.Type != "board.snapshot" {
			t.Errorf("expected type 'board.snapshot', got '%s'", received.Type)
		}
		if string(received.Payload) != string(testPayload) {
			t.Errorf("expected payload '%s', got '%s'", testPayload, received.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("board client did not receive message")
	}

	select {
	case <-other.send:
		t.Fatal("client on another topic should not receive the message")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcastToMultipleClientsOnSameTopic(t *testing.T) {
	hub := startHub(t)

	clients := []*Client{
		mockClient(hub, "orders"),
		mockClient(hub, "orders"),
		mockClient(hub, "orders"),
	}
	for _, c := range clients {
		hub.register <- c
	}
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast("orders", Event{Type: "order.changed", Payload: json.RawMessage(`{"op":"update"}`)})

	for i, client := range clients {
		select {
		case msg := <-client.send:
			var received Event
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("client%d: failed to unmarshal: %v", i+1, err)
			}
			if received.Type != "order.changed" {
				t.Errorf("client%d: expected type 'order.changed', got '%s'", i+1, received.Type)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client%d did not receive message", i+1)
		}
	}
}

func TestLateSubscriberGetsLastMessage(t *testing.T) {
	hub := startHub(t)

	hub.Broadcast("orders", Event{Type: "board.snapshot", Payload: json.RawMessage(`{"v":1}`)})
	hub.Broadcast("orders", Event{Type: "board.snapshot", Payload: json.RawMessage(`{"v":2}`)})
	time.Sleep(10 * time.Millisecond)

	late := mockClient(hub, "orders")
	hub.register <- late

	select {
	case msg := <-late.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if string(received.Payload) != `{"v":2}` {
			t.Errorf("expected latest payload, got %s", received.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("late subscriber did not receive the last message")
	}

	select {
	case <-late.send:
		t.Fatal("late subscriber should receive only the last message")
	case <-time.After(30 * time.Millisecond):
	}
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := startHub(t)

	slow := &Client{hub: hub, topic: "orders", send: make(chan []byte)}
	hub.register <- slow
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast("orders", Event{Type: "board.snapshot", Payload: json.RawMessage(`{}`)})
	time.Sleep(10 * time.Millisecond)

	if n := hub.Subscribers("orders"); n != 0 {
		t.Fatalf("expected slow client to be dropped, got %d subscribers", n)
	}
	if _, ok := <-slow.send; ok {
		t.Fatal("slow client's send channel should be closed")
	}
}

func TestHubCleanupEmptyRoom(t *testing.T) {
	hub := startHub(t)

	client1 := mockClient(hub, "orders")
	client2 := mockClient(hub, "orders")

	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	if n := hub.Subscribers("orders"); n != 2 {
		t.Fatalf("expected 2 clients, got %d", n)
	}

	hub.unregister <- client1
	time.Sleep(10 * time.Millisecond)

	if n := hub.Subscribers("orders"); n != 1 {
		t.Fatalf("expected 1 client after first unregister, got %d", n)
	}

	hub.unregister <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	if hub.rooms["orders"] != nil {
		t.Fatal("room should be deleted when last client unregisters")
	}
}

func TestRunClosesClientsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()

	client := mockClient(hub, "orders")
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Run did not return after cancel")
	}

	if _, ok := <-client.send; ok {
		t.Fatal("client send channel should be closed on shutdown")
	}
}

func TestSubscribeAfterShutdownDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	stopped := make(chan error, 1)
	go func() { stopped <- hub.Run(ctx) }()
	cancel()
	<-stopped

	finished := make(chan bool, 1)
	go func() {
		client := mockClient(hub, "orders")
		ok := hub.subscribe(client)
		hub.unsubscribe(client)
		hub.unsubscribe(mockClient(hub, "orders"))
		for i := 0; i < 300; i++ {
			hub.Broadcast("orders", Event{Type: "board"})
		}
		finished <- ok
	}()

	select {
	case ok := <-finished:
		if ok {
			t.Error("subscribe after shutdown should report false")
		}
	case <-time.After(time.Second):
		t.Fatal("hub calls blocked after Run returned")
	}
}
