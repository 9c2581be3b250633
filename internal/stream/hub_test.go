package stream

import (
	"encoding/json"
	"testing"

	"github.com/mfelden/tripwatch-backend-go/internal/models"
)

func TestBroadcastReachesAllClients(t *testing.T) {
	h := NewHub()
	a := h.Register()
	b := h.Register()
	if h.ClientCount() != 2 {
		t.Fatalf("expected 2 clients, got %d", h.ClientCount())
	}

	h.Broadcast(models.Event{Type: models.EventTripStarted, Timestamp: 1})

	for _, client := range []*Client{a, b} {
		select {
		case raw := <-client.Send:
			var ev models.Event
			if err := json.Unmarshal(raw, &ev); err != nil {
				t.Fatalf("unmarshal broadcast: %v", err)
			}
			if ev.Type != models.EventTripStarted {
				t.Fatalf("unexpected event type %s", ev.Type)
			}
		default:
			t.Fatal("client did not receive the broadcast")
		}
	}
}

func TestSlowClientDoesNotBlockBroadcast(t *testing.T) {
	h := NewHub()
	slow := h.Register()

	// Fill the client's buffer and keep broadcasting; Broadcast must not stall
	for i := 0; i < 200; i++ {
		h.Broadcast(models.Event{Type: models.EventTripProgress, Timestamp: int64(i)})
	}
	if len(slow.Send) != cap(slow.Send) {
		t.Fatalf("expected a full send buffer, got %d", len(slow.Send))
	}
}

func TestUnregisterClosesChannel(t *testing.T) {
	h := NewHub()
	c := h.Register()
	h.Unregister(c)
	if _, open := <-c.Send; open {
		t.Fatal("send channel must be closed on unregister")
	}
	if h.ClientCount() != 0 {
		t.Fatalf("expected 0 clients, got %d", h.ClientCount())
	}
	// Double unregister is a no-op
	h.Unregister(c)
}
