package keepalive

import (
	"github.com/nullbound/obscura-client/internal/cache"
	"github.com/nullbound/obscura-client/internal/hub"
)

// EventKind identifies which session-lifecycle transition an Event carries.
type EventKind int

const (
	EventSessionUp EventKind = iota
	EventSessionDown
)

// Event is broadcast to every Subscribe-r whenever the current body's
// session comes up or goes down, so a caller that wants to react to
// connectivity changes doesn't have to poll Stats.
type Event struct {
	Kind EventKind
	Exit cache.ExitDescriptor
	Err  error // set on EventSessionDown, the reason runBody returned
}

// eventBufSize bounds each subscriber's event channel; events are
// low-frequency (one per session lifetime transition) so a small buffer is
// generous.
const eventBufSize = 8

// Subscribe registers a new listener for session-lifecycle events. Callers
// must eventually pass the returned Client to Unsubscribe to stop
// receiving and free the slot; closing the Client alone does not remove it
// from the hub.
func (k *Keepalive) Subscribe() *hub.Client[Event] {
	c := &hub.Client[Event]{Out: make(chan Event, eventBufSize), Closed: make(chan struct{})}
	k.events.Add(c)
	return c
}

// Unsubscribe removes a previously Subscribe-d client.
func (k *Keepalive) Unsubscribe(c *hub.Client[Event]) {
	k.events.Remove(c)
}
