// Package hub implements a generic fan-out broadcast: many subscribers,
// each with their own bounded buffer, receiving the same stream of values
// with per-subscriber backpressure handling. It is the same broadcast
// idiom the teacher uses to fan CAN frames out to TCP clients, generalized
// with a type parameter so it can carry whatever payload a caller needs —
// here, keepalive session-state events rather than bus frames.
package hub

import (
	"sync"

	"github.com/nullbound/obscura-client/internal/metrics"
)

type BackpressurePolicy int

const (
	PolicyDrop BackpressurePolicy = iota
	PolicyKick
)

// Client is one subscriber's view of a Hub[T]: a buffered channel it reads
// from, and a Closed signal the Hub uses to tell a kicked or removed
// client to stop.
type Client[T any] struct {
	Out       chan T
	Closed    chan struct{}
	closeOnce sync.Once
}

// Close signals the client is closed (idempotent).
func (c *Client[T]) Close() {
	c.closeOnce.Do(func() {
		close(c.Closed)
	})
}

// Hub fans out broadcast values to every currently registered Client.
type Hub[T any] struct {
	mu         sync.RWMutex
	clients    map[*Client[T]]struct{}
	OutBufSize int
	Policy     BackpressurePolicy
}

// New creates a Hub with default settings.
func New[T any]() *Hub[T] { return &Hub[T]{clients: make(map[*Client[T]]struct{})} }

// Add registers a client with the hub.
func (h *Hub[T]) Add(c *Client[T]) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	cur := len(h.clients)
	h.mu.Unlock()
	metrics.SetEventSubscribers(cur)
}

// Remove unregisters a client; safe to call multiple times.
func (h *Hub[T]) Remove(c *Client[T]) {
	h.mu.Lock()
	delete(h.clients, c)
	cur := len(h.clients)
	h.mu.Unlock()
	select {
	case <-c.Closed:
	default:
		c.Close()
	}
	metrics.SetEventSubscribers(cur)
}

// Broadcast sends v to every connected client, honoring the backpressure
// policy: PolicyDrop silently drops on a full buffer, PolicyKick closes the
// offending client instead so its owner can notice and unregister it.
func (h *Hub[T]) Broadcast(v T) {
	clients := h.Snapshot()
	for _, c := range clients {
		select {
		case c.Out <- v:
		default:
			if h.Policy == PolicyKick {
				c.Close()
			} else {
				metrics.IncEventDrop()
			}
		}
	}
}

// Snapshot returns a slice copy of current clients (read-only use).
func (h *Hub[T]) Snapshot() []*Client[T] {
	h.mu.RLock()
	clients := make([]*Client[T], 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	return clients
}

// Count returns the number of active clients.
func (h *Hub[T]) Count() int { h.mu.RLock(); n := len(h.clients); h.mu.RUnlock(); return n }
