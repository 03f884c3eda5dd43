package keepalive

import (
	"context"
	"fmt"
	"time"

	"github.com/nullbound/obscura-client/internal/hub"
	"github.com/nullbound/obscura-client/internal/metrics"
	"github.com/nullbound/obscura-client/internal/mux"
	"github.com/nullbound/obscura-client/internal/session"
)

const (
	watchdogInterval = 200 * time.Second
	watchdogDeadline = 15 * time.Second
	dispatchDeadline = 15 * time.Second
)

// runBody runs exactly one lifetime of a connected session: pick an exit,
// connect, authenticate, then service requests until something goes wrong.
// It always returns a non-nil error (ctx cancellation included), which the
// supervisor uses purely as a restart signal and log line.
func runBody(ctx context.Context, cfg Config, openReq <-chan openRequest, statReq <-chan chan session.Stats, events *hub.Hub[Event]) error {
	cfg.Stats.SetExitDescriptor(nil)

	exits, err := cfg.Cache.GetExits(ctx)
	if err != nil {
		return fmt.Errorf("keepalive: fetching exits: %w", err)
	}
	exit, err := pickExit(exits, cfg.ExitServer)
	if err != nil {
		return err
	}

	sess, err := establishSession(ctx, cfg.dial, cfg.Cache, exit, cfg.UseBridges)
	if err != nil {
		return err
	}
	defer sess.Close()

	mx, err := mux.New(ctx, sess.Session)
	if err != nil {
		return fmt.Errorf("keepalive: wrapping session in multiplex: %w", err)
	}
	defer mx.Close()

	token, err := cfg.Cache.GetAuthToken(ctx)
	if err != nil {
		return fmt.Errorf("keepalive: fetching auth token: %w", err)
	}
	if err := authenticate(ctx, mx, token); err != nil {
		metrics.IncAuthFailure()
		return err
	}

	cfg.Stats.SetExitDescriptor(&exit)
	cfg.Logger.Info("keepalive_session_established", "exit", exit.Hostname, "use_bridges", cfg.UseBridges)
	events.Broadcast(Event{Kind: EventSessionUp, Exit: exit})

	stopCh := make(chan error, 3)
	bctx, bcancel := context.WithCancel(ctx)
	defer bcancel()

	go runWatchdog(bctx, mx, stopCh)
	go runDispatcher(bctx, mx, cfg, openReq, stopCh)
	go runStatsResponder(bctx, sess.Session, statReq, stopCh)

	select {
	case err := <-stopCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runWatchdog periodically confirms the session is still alive by opening
// a throwaway probe stream; a timeout means the session is presumed dead.
func runWatchdog(ctx context.Context, mx *mux.Multiplex, stopCh chan<- error) {
	ticker := time.NewTicker(watchdogInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, watchdogDeadline)
			conn, err := mx.OpenConn(pctx, "")
			cancel()
			if err != nil {
				metrics.IncWatchdogTrip()
				metrics.IncError(metrics.ErrWatchdog)
				select {
				case stopCh <- ErrWatchdogTimeout:
				default:
				}
				return
			}
			conn.Close()
		case <-ctx.Done():
			return
		}
	}
}

// runDispatcher services open-connection requests off openReq, each in its
// own goroutine so a slow or hung open never blocks the others.
func runDispatcher(ctx context.Context, mx *mux.Multiplex, cfg Config, openReq <-chan openRequest, stopCh chan<- error) {
	for {
		select {
		case req := <-openReq:
			go dispatchOne(ctx, mx, cfg, req, stopCh)
		case <-ctx.Done():
			return
		}
	}
}

func dispatchOne(ctx context.Context, mx *mux.Multiplex, cfg Config, req openRequest, stopCh chan<- error) {
	start := time.Now()
	octx, cancel := context.WithTimeout(ctx, dispatchDeadline)
	defer cancel()

	conn, err := mx.OpenConn(octx, req.hostport)
	if err != nil {
		metrics.IncError(metrics.ErrDispatchTimed)
		select {
		case stopCh <- ErrDispatchTimeout:
		default:
		}
		select {
		case req.reply <- openResult{err: ErrDispatchTimeout}:
		default:
		}
		return
	}
	cfg.Stats.SetLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	select {
	case req.reply <- openResult{conn: conn}:
	default:
		conn.Close()
	}
}

// runStatsResponder answers Stats() calls by querying the live session
// directly; it never itself signals a stop.
func runStatsResponder(ctx context.Context, sess *session.Session, statReq <-chan chan session.Stats, stopCh chan<- error) {
	for {
		select {
		case reply := <-statReq:
			st, err := sess.Stats(ctx)
			if err != nil {
				st = session.Stats{}
			}
			select {
			case reply <- st:
			default:
			}
		case <-ctx.Done():
			return
		}
	}
}
