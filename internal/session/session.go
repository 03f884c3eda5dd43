// Package session implements the Session actor: an isolated conversation
// that deals only in already-decrypted DataFrames and knows nothing about
// sockets, encryption or key agreement. It owns FEC batching on the way
// out and FEC reassembly, replay filtering and loss estimation on the way
// in. Callers feed it DataFrames and bytes and poll it for bytes back;
// everything else (shard rebinding, handshakes) lives one layer up in
// package client.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nullbound/obscura-client/internal/metrics"
	"github.com/nullbound/obscura-client/internal/wire"
)

// ErrSendBufferFull is returned by SendBytes when the outbound queue is
// saturated; the caller's write is dropped rather than blocking, the same
// trade-off the teacher's async writers make against a slow backend.
var ErrSendBufferFull = errors.New("session: send buffer full")

// ErrClosed is returned by RecvBytes once the session has shut down.
var ErrClosed = errors.New("session: closed")

const (
	sendBufferSize  = 500
	recvBufferSize  = 500
	maxBatchItems   = 16
	recentSeqnosCap = 100000
)

// Config configures a Session.
type Config struct {
	// Latency is how long the send loop waits, after its first queued
	// write, for more writes to accumulate into the same FEC batch.
	Latency time.Duration
	// TargetLoss is the loss rate the FEC encoder aims to tolerate even
	// if live measurements say the link is currently better than that.
	TargetLoss float64
	// SendFrame transmits one outgoing shard. Errors are logged but do
	// not stop the session; a single lost shard is expected to happen.
	SendFrame func(wire.DataFrame) error
	// RecvFrame delivers incoming shards from the transport layer below.
	RecvFrame <-chan wire.DataFrame
	Logger    *slog.Logger
}

// Stats is a point-in-time snapshot of a Session's downstream health.
type Stats struct {
	DownTotal         uint64
	DownLoss          float64
	DownRecoveredLoss float64
	DownRedundant     float64
	RecentSeqnos      []SeqnoSample
}

// SeqnoSample pairs a received frame number with when it arrived.
type SeqnoSample struct {
	At      time.Time
	FrameNo uint64
}

// Session is a running send/recv actor pair over a channel-based DataFrame
// transport.
type Session struct {
	cfg    Config
	logger *slog.Logger

	toSend    chan []byte
	recvInput chan []byte
	statReq   chan chan Stats

	measuredLoss    atomic.Uint32
	highRecvFrameNo atomic.Uint64
	totalRecvFrames atomic.Uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Session and starts its send and receive loops. Callers
// must eventually call Close.
func New(ctx context.Context, cfg Config) *Session {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	sctx, cancel := context.WithCancel(ctx)
	s := &Session{
		cfg:       cfg,
		logger:    cfg.Logger,
		toSend:    make(chan []byte, sendBufferSize),
		recvInput: make(chan []byte, recvBufferSize),
		statReq:   make(chan chan Stats),
		ctx:       sctx,
		cancel:    cancel,
	}
	s.wg.Add(2)
	go s.sendLoop()
	go s.recvLoop()
	return s
}

// SendBytes enqueues a payload to be FEC-encoded and sent. It never
// blocks: if the buffer is full the write is dropped.
func (s *Session) SendBytes(b []byte) error {
	select {
	case s.toSend <- b:
		return nil
	default:
		metrics.IncSendBufferDropped()
		s.logger.Debug("session_send_buffer_overflow")
		return ErrSendBufferFull
	}
}

// RecvBytes blocks until the next application payload has been decoded by
// the session, or ctx is done, or the session itself closes.
func (s *Session) RecvBytes(ctx context.Context) ([]byte, error) {
	select {
	case b, ok := <-s.recvInput:
		if !ok {
			return nil, ErrClosed
		}
		return b, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.ctx.Done():
		return nil, ErrClosed
	}
}

// Stats requests a statistics snapshot from the receive loop.
func (s *Session) Stats(ctx context.Context) (Stats, error) {
	reply := make(chan Stats, 1)
	select {
	case s.statReq <- reply:
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	case <-s.ctx.Done():
		return Stats{}, ErrClosed
	}
	select {
	case st := <-reply:
		return st, nil
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	case <-s.ctx.Done():
		return Stats{}, ErrClosed
	}
}

// Close stops both loops and waits for them to exit.
func (s *Session) Close() {
	s.cancel()
	s.wg.Wait()
}
