package keepalive

import "errors"

var (
	// ErrNoExits is returned when the cache has no exits to choose from.
	ErrNoExits = errors.New("keepalive: no exits available")
	// ErrNoBridges is returned when bridge fallback is needed but the
	// chosen exit has no known bridges.
	ErrNoBridges = errors.New("keepalive: no bridges available")
	// ErrConnectTimeout is returned when no connection strategy (direct or
	// bridged) succeeds within the overall deadline.
	ErrConnectTimeout = errors.New("keepalive: connect timed out")
	// ErrAuthTimeout is returned when the post-connect authentication
	// exchange doesn't complete in time.
	ErrAuthTimeout = errors.New("keepalive: authentication timed out")
	// ErrAuthRejected is returned when the far end's auth reply byte
	// indicates failure.
	ErrAuthRejected = errors.New("keepalive: authentication rejected")
	// ErrWatchdogTimeout is the stop signal raised by the watchdog duty.
	ErrWatchdogTimeout = errors.New("keepalive: watchdog timed out")
	// ErrDispatchTimeout is the stop signal raised when a dispatched open
	// takes longer than its per-call deadline, which this implementation
	// treats as evidence the underlying session has gone stale.
	ErrDispatchTimeout = errors.New("keepalive: connection open timed out")
	// ErrClosed is returned by Connect/Stats after the Keepalive has been
	// shut down.
	ErrClosed = errors.New("keepalive: closed")
)
