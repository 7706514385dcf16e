package bus

import "testing"

func TestHubBroadcast(t *testing.T) {
	h := NewHub[int]()
	a, unsubA := h.Subscribe()
	b, unsubB := h.Subscribe()
	defer unsubB()

	h.Broadcast(1)
	if got := <-a; got != 1 {
		t.Errorf("a received %d, want 1", got)
	}
	if got := <-b; got != 1 {
		t.Errorf("b received %d, want 1", got)
	}

	unsubA()
	if h.Len() != 1 {
		t.Errorf("Len() = %d, want 1", h.Len())
	}
	h.Broadcast(2)
	select {
	case v := <-a:
		t.Errorf("unsubscribed channel received %d", v)
	default:
	}
}

func TestHubNeverBlocks(t *testing.T) {
	h := NewHub[int]()
	c, unsub := h.Subscribe()
	defer unsub()

	// Nobody reads; the second and third values are dropped.
	h.Broadcast(1)
	h.Broadcast(2)
	h.Broadcast(3)

	if got := <-c; got != 1 {
		t.Errorf("received %d, want the first undelivered value 1", got)
	}
	select {
	case v := <-c:
		t.Errorf("unexpected extra value %d", v)
	default:
	}
}
