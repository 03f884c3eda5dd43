// Package keepalive implements the Keepalive actor: the supervised loop
// that picks an exit, establishes and authenticates a session against it,
// and then services connection-open requests and periodic health probes
// for as long as that session stays healthy. Any failure — auth, watchdog,
// a stuck dispatch — tears the whole thing down and the supervisor starts
// over after a short delay.
package keepalive

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/nullbound/obscura-client/internal/cache"
	"github.com/nullbound/obscura-client/internal/hub"
	"github.com/nullbound/obscura-client/internal/logging"
	"github.com/nullbound/obscura-client/internal/metrics"
	"github.com/nullbound/obscura-client/internal/session"
	"github.com/nullbound/obscura-client/internal/stats"
)

// supervisorRestartDelay is how long the supervisor waits after a failed
// body run before trying again.
const supervisorRestartDelay = 1 * time.Second

// Config configures a Keepalive.
type Config struct {
	ExitServer string
	UseBridges bool
	Cache      cache.ClientCache
	Stats      *stats.Collector
	Logger     *slog.Logger

	dial dialFunc // test hook; defaults to defaultDial
}

type openRequest struct {
	hostport string
	reply    chan openResult
}

type openResult struct {
	conn net.Conn
	err  error
}

// Keepalive is the supervised actor described in package docs. Callers
// interact with it only through Connect, Stats, Subscribe/Unsubscribe and
// Shutdown; everything else is internal to the running body.
type Keepalive struct {
	cfg    Config
	logger *slog.Logger

	openReq chan openRequest
	statReq chan chan session.Stats
	events  *hub.Hub[Event]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Keepalive and starts its supervisor loop.
func New(ctx context.Context, cfg Config) *Keepalive {
	if cfg.Logger == nil {
		cfg.Logger = logging.L()
	}
	if cfg.dial == nil {
		cfg.dial = defaultDial
	}
	kctx, cancel := context.WithCancel(ctx)
	k := &Keepalive{
		cfg:     cfg,
		logger:  cfg.Logger,
		openReq: make(chan openRequest, 64),
		statReq: make(chan chan session.Stats),
		events:  hub.New[Event](),
		ctx:     kctx,
		cancel:  cancel,
	}
	k.wg.Add(1)
	go k.supervise()
	return k
}

// Connect is the single entry point front-ends (SOCKS5/HTTP/DNS, out of
// scope here) use to ask the current session to open a connection to
// hostport. The 15s per-call timeout is owned by the running body, not by
// the caller's ctx.
func (k *Keepalive) Connect(ctx context.Context, hostport string) (net.Conn, error) {
	req := openRequest{hostport: hostport, reply: make(chan openResult, 1)}
	select {
	case k.openReq <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-k.ctx.Done():
		return nil, ErrClosed
	}
	select {
	case res := <-req.reply:
		return res.conn, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-k.ctx.Done():
		return nil, ErrClosed
	}
}

// Stats returns the currently running session's statistics.
func (k *Keepalive) Stats(ctx context.Context) (session.Stats, error) {
	reply := make(chan session.Stats, 1)
	select {
	case k.statReq <- reply:
	case <-ctx.Done():
		return session.Stats{}, ctx.Err()
	case <-k.ctx.Done():
		return session.Stats{}, ErrClosed
	}
	select {
	case st := <-reply:
		return st, nil
	case <-ctx.Done():
		return session.Stats{}, ctx.Err()
	case <-k.ctx.Done():
		return session.Stats{}, ErrClosed
	}
}

// Shutdown stops the supervisor and waits for the current body run to
// exit.
func (k *Keepalive) Shutdown(ctx context.Context) error {
	k.cancel()
	done := make(chan struct{})
	go func() { k.wg.Wait(); close(done) }()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// supervise runs the body in a loop, restarting it after
// supervisorRestartDelay whenever it returns an error (which is every
// time, short of the Keepalive itself being shut down).
func (k *Keepalive) supervise() {
	defer k.wg.Done()
	for {
		if k.ctx.Err() != nil {
			return
		}
		err := runBody(k.ctx, k.cfg, k.openReq, k.statReq, k.events)
		if k.ctx.Err() != nil {
			return
		}
		metrics.IncSessionRestart()
		k.events.Broadcast(Event{Kind: EventSessionDown, Err: err})
		k.logger.Warn("keepalive_restarting", "error", err)
		select {
		case <-time.After(supervisorRestartDelay):
		case <-k.ctx.Done():
			return
		}
	}
}
