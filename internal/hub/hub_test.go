package hub

import (
	"testing"
	"time"
)

func TestHubBroadcastDropDoesNotBlock(t *testing.T) {
	h := New[int]()
	cl := &Client[int]{Out: make(chan int, 4), Closed: make(chan struct{})}
	h.Add(cl)
	defer h.Remove(cl)

	start := time.Now()
	for i := 0; i < 1000; i++ {
		h.Broadcast(i)
	}
	elapsed := time.Since(start)
	if elapsed > time.Second {
		t.Fatalf("Broadcast took too long: %s", elapsed)
	}
	if len(cl.Out) != cap(cl.Out) {
		t.Fatalf("expected client buffer to be full, got len=%d cap=%d", len(cl.Out), cap(cl.Out))
	}
}

func TestHubBroadcastDropKeepsOthersFlowing(t *testing.T) {
	h := New[int]()
	slow := &Client[int]{Out: make(chan int, 1), Closed: make(chan struct{})}
	fast := &Client[int]{Out: make(chan int, 16), Closed: make(chan struct{})}
	h.Add(slow)
	h.Add(fast)
	defer h.Remove(slow)
	defer h.Remove(fast)

	h.Broadcast(1)
	for i := 0; i < 10; i++ {
		h.Broadcast(2)
	}

	got := 0
	timeout := time.After(200 * time.Millisecond)
loop:
	for {
		select {
		case <-fast.Out:
			got++
			if got >= 5 {
				break loop
			}
		case <-timeout:
			break loop
		}
	}
	if got == 0 {
		t.Fatal("fast client did not receive any values while slow was backpressured")
	}
}

func TestHubBroadcastKickClosesSlowClient(t *testing.T) {
	h := New[int]()
	h.Policy = PolicyKick
	cl := &Client[int]{Out: make(chan int, 1), Closed: make(chan struct{})}
	h.Add(cl)
	defer h.Remove(cl)

	h.Broadcast(1)
	h.Broadcast(2)

	select {
	case <-cl.Closed:
	default:
		t.Fatal("expected client to be closed under PolicyKick once its buffer filled")
	}
}
