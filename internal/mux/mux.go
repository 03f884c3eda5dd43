// Package mux implements the Multiplex facade: it wraps a session.Session
// and exposes reliable stream open/accept, backed by github.com/xtaci/smux
// running over an in-process pipe, plus an unreliable datagram channel that
// bypasses smux entirely. A single tag byte at the front of every payload
// the Session carries tells the pump which of the two a given payload
// belongs to.
package mux

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/nullbound/obscura-client/internal/logging"
	"github.com/nullbound/obscura-client/internal/session"
	"github.com/xtaci/smux"
)

// ErrClosed is returned by every Multiplex operation once the underlying
// pump has stopped, mirroring the "channel closed maps to connection reset"
// boundary rule.
var ErrClosed = errors.New("mux: multiplex closed")

// ErrSendUrelFull is returned by SendUrel when the unreliable send queue is
// full; the caller's datagram was dropped.
var ErrSendUrelFull = errors.New("mux: urel send queue full")

const (
	tagReliable   byte = 1
	tagUnreliable byte = 2
)

const (
	urelBufSize   = 10
	acceptBufSize = 100
	// openReqBufSize approximates "unbounded" closely enough for a
	// request queue that's never expected to hold more than a handful of
	// concurrent dial attempts.
	openReqBufSize = 1024
)

type openRequest struct {
	additional string
	reply      chan openResult
}

type openResult struct {
	conn net.Conn
	err  error
}

// Multiplex pumps one Session's byte stream through an smux.Session so
// callers get ordinary net.Conn-shaped reliable streams, while also
// offering a raw unreliable datagram channel for traffic that doesn't need
// retransmission or ordering.
type Multiplex struct {
	sess   *session.Session
	smux   *smux.Session
	logger *slog.Logger

	urelSend chan []byte
	urelRecv chan []byte
	connOpen chan openRequest
	accepted chan net.Conn

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	closeOnce sync.Once
}

// New wraps sess in a Multiplex and starts its background actor. The
// smux session underneath always takes the client role: on the real wire
// the obscura-client binary is always the dialing side, and the exit or
// bridge it talks to takes the server role on its own (out of scope here).
func New(ctx context.Context, sess *session.Session) (*Multiplex, error) {
	return newMultiplex(ctx, sess, false)
}

// NewServer is New with the smux session in server role instead of client.
// Nothing in the obscura-client binary itself uses it: it exists so tests
// can pair two Multiplexes directly without both sides picking the same
// stream IDs, which is what client role on both ends would do.
func NewServer(ctx context.Context, sess *session.Session) (*Multiplex, error) {
	return newMultiplex(ctx, sess, true)
}

func newMultiplex(ctx context.Context, sess *session.Session, asServer bool) (*Multiplex, error) {
	local, remote := net.Pipe()

	var smuxSess *smux.Session
	var err error
	if asServer {
		smuxSess, err = smux.Server(local, smux.DefaultConfig())
	} else {
		smuxSess, err = smux.Client(local, smux.DefaultConfig())
	}
	if err != nil {
		local.Close()
		remote.Close()
		return nil, fmt.Errorf("mux: starting smux session: %w", err)
	}

	mctx, cancel := context.WithCancel(ctx)
	m := &Multiplex{
		sess:     sess,
		smux:     smuxSess,
		logger:   logging.L(),
		urelSend: make(chan []byte, urelBufSize),
		urelRecv: make(chan []byte, urelBufSize),
		connOpen: make(chan openRequest, openReqBufSize),
		accepted: make(chan net.Conn, acceptBufSize),
		ctx:      mctx,
		cancel:   cancel,
	}

	m.wg.Add(5)
	go m.pumpOut(remote)
	go m.pumpIn(remote)
	go m.openLoop()
	go m.acceptLoop()
	go m.urelSendLoop()

	return m, nil
}

// Close tears down the smux session and stops the pump; it does not close
// the underlying Session, which the owner (Keepalive) manages separately.
func (m *Multiplex) Close() {
	m.closeOnce.Do(func() {
		m.cancel()
		_ = m.smux.Close()
		m.wg.Wait()
	})
}

// pumpOut reads raw smux-protocol bytes off the local pipe end and forwards
// them into the Session, tagged as reliable.
func (m *Multiplex) pumpOut(remote net.Conn) {
	defer m.wg.Done()
	buf := make([]byte, 4096)
	for {
		n, err := remote.Read(buf)
		if err != nil {
			return
		}
		payload := make([]byte, n+1)
		payload[0] = tagReliable
		copy(payload[1:], buf[:n])
		if err := m.sess.SendBytes(payload); err != nil {
			m.logger.Debug("mux_pump_out_drop", "error", err)
		}
	}
}

// pumpIn receives decoded application payloads from the Session and routes
// them by tag: reliable bytes are written back into the smux side of the
// pipe, unreliable ones are delivered to urelRecv.
func (m *Multiplex) pumpIn(remote net.Conn) {
	defer m.wg.Done()
	defer remote.Close()
	for {
		payload, err := m.sess.RecvBytes(m.ctx)
		if err != nil {
			return
		}
		if len(payload) == 0 {
			continue
		}
		tag, body := payload[0], payload[1:]
		switch tag {
		case tagReliable:
			if _, err := remote.Write(body); err != nil {
				return
			}
		case tagUnreliable:
			select {
			case m.urelRecv <- body:
			case <-m.ctx.Done():
				return
			default:
				m.logger.Debug("mux_urel_recv_drop")
			}
		default:
			m.logger.Debug("mux_unknown_tag", "tag", tag)
		}
	}
}

// SendUrel sends an unreliable, unordered datagram. It never blocks: if
// urelSend's own bounded queue is full the datagram is dropped, matching
// the spirit of "unreliable."
func (m *Multiplex) SendUrel(data []byte) error {
	select {
	case m.urelSend <- data:
		return nil
	case <-m.ctx.Done():
		return ErrClosed
	default:
		m.logger.Debug("mux_urel_send_drop")
		return ErrSendUrelFull
	}
}

// urelSendLoop drains urelSend and forwards each datagram into the Session,
// tagged as unreliable. Kept as its own goroutine (rather than tagging and
// calling sess.SendBytes directly from SendUrel) so the unreliable path has
// its own small bounded queue, distinct from the Session's own send buffer.
func (m *Multiplex) urelSendLoop() {
	defer m.wg.Done()
	for {
		select {
		case data := <-m.urelSend:
			payload := make([]byte, len(data)+1)
			payload[0] = tagUnreliable
			copy(payload[1:], data)
			if err := m.sess.SendBytes(payload); err != nil {
				m.logger.Debug("mux_urel_pump_drop", "error", err)
			}
		case <-m.ctx.Done():
			return
		}
	}
}

// RecvUrel blocks until the next unreliable datagram arrives or the
// Multiplex closes.
func (m *Multiplex) RecvUrel() ([]byte, error) {
	select {
	case b, ok := <-m.urelRecv:
		if !ok {
			return nil, ErrClosed
		}
		return b, nil
	case <-m.ctx.Done():
		return nil, ErrClosed
	}
}
