package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/nullbound/obscura-client/internal/crypt"
	"github.com/nullbound/obscura-client/internal/logging"
	"github.com/nullbound/obscura-client/internal/metrics"
	"github.com/nullbound/obscura-client/internal/session"
	"github.com/nullbound/obscura-client/internal/wire"
)

// clientVersion is sent in every ClientHello so a server can reject
// incompatible clients up front instead of failing obscurely later.
const clientVersion uint8 = 1

// handshakeBaseTimeout is the read-deadline for attempt 0; each further
// attempt's await window grows as handshakeBaseTimeout * 2^attempt, per the
// handshake retry semantics.
const handshakeBaseTimeout = 1 * time.Second

// handshakeMaxTimeout caps the per-attempt await window so a late attempt
// doesn't wait for minutes on a server that simply isn't there.
const handshakeMaxTimeout = 48 * time.Second

// maxHandshakeAttempts caps the exponential backoff retry loop; past this
// Connect gives up and returns the last error seen.
const maxHandshakeAttempts = 6

// Session wraps a session.Session together with the backhaul shards
// feeding it, so that Close tears down both.
type Session struct {
	*session.Session
	shardCancel context.CancelFunc
}

// NewSession wraps an already-running session.Session with the cancel
// func for whatever feeds it, for callers that build a session without
// going through Connect (tests mainly, wiring a loopback session).
func NewSession(inner *session.Session, shardCancel context.CancelFunc) *Session {
	return &Session{Session: inner, shardCancel: shardCancel}
}

// Close stops the backhaul shards and the underlying session loops.
func (s *Session) Close() {
	s.shardCancel()
	s.Session.Close()
}

// Connect performs the full handshake against serverAddr, authenticating
// the server's long-term key against serverPubKey, and returns a running
// Session backed by shardCount independent UDP sockets.
func Connect(ctx context.Context, serverAddr *net.UDPAddr, serverPubKey [32]byte) (*Session, error) {
	return ConnectCustom(ctx, serverAddr, serverPubKey, defaultLaddrGen)
}

// ConnectCustom is Connect with a caller-supplied local address generator,
// used by tests and by callers that need to pin a source interface.
func ConnectCustom(ctx context.Context, serverAddr *net.UDPAddr, serverPubKey [32]byte, laddrGen LaddrGen) (*Session, error) {
	logger := logging.L()
	cookie := crypt.NewCookie(serverPubKey)

	var lastErr error
	for attempt := 0; attempt < maxHandshakeAttempts; attempt++ {
		readTimeout := handshakeBaseTimeout * time.Duration(1<<uint(attempt))
		if readTimeout > handshakeMaxTimeout {
			readTimeout = handshakeMaxTimeout
		}
		res, err := tryHandshake(ctx, serverAddr, serverPubKey, cookie, laddrGen, logger, readTimeout)
		if err == nil {
			return initSession(res, serverPubKey)
		}
		lastErr = err
		metrics.IncHandshakeFailure(metrics.ErrHandshake)
		logger.Debug("handshake_attempt_failed", "attempt", attempt, "error", err)
		if !errors.Is(err, ErrHandshakeTimeout) {
			return nil, err
		}

		backoff := time.Duration(1<<uint(attempt)) * time.Second
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return nil, fmt.Errorf("client: handshake failed after %d attempts: %w", maxHandshakeAttempts, lastErr)
}

// handshakeResult carries everything a successful handshake attempt learns,
// deferred into a Session by initSession once the caller commits to it.
type handshakeResult struct {
	myLong      crypt.Keypair
	myEph       crypt.Keypair
	serverEph   [32]byte
	resumeToken []byte
	remoteAddr  *net.UDPAddr
	laddrGen    LaddrGen
	logger      *slog.Logger
}

// tryHandshake runs a single hello/response exchange over a fresh socket
// bound via laddrGen, waiting up to readTimeout for a ServerHello. On
// success the returned handshakeResult's server key has already been
// verified against serverPubKey.
func tryHandshake(ctx context.Context, serverAddr *net.UDPAddr, serverPubKey [32]byte, cookie crypt.Cookie, laddrGen LaddrGen, logger *slog.Logger, readTimeout time.Duration) (*handshakeResult, error) {
	conn, err := bindUDP(laddrGen)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	myLong, err := crypt.GenerateKeypair()
	if err != nil {
		return nil, err
	}
	myEph, err := crypt.GenerateKeypair()
	if err != nil {
		return nil, err
	}

	helloFrame := wire.HandshakeFrame{ClientHello: &wire.ClientHello{
		LongPK:  myLong.Public,
		EphPK:   myEph.Public,
		Version: clientVersion,
	}}
	encoded, err := wire.EncodeHandshake(helloFrame)
	if err != nil {
		return nil, err
	}

	c2sAEAD, err := crypt.NewAEAD(cookie.GenerateC2S()[0])
	if err != nil {
		return nil, err
	}
	sealed, err := c2sAEAD.PadEncrypt(encoded, 200)
	if err != nil {
		return nil, err
	}

	metrics.IncHandshakeAttempt()
	if _, err := conn.WriteToUDP(sealed, serverAddr); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(readTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	buf := make([]byte, udpRecvBufSize)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				return nil, ErrHandshakeTimeout
			}
			return nil, err
		}
		sh, ok := decodeServerHello(buf[:n], cookie)
		if !ok {
			continue
		}
		if sh.LongPK != serverPubKey {
			return nil, ErrBadPubkey
		}
		return &handshakeResult{
			myLong:      myLong,
			myEph:       myEph,
			serverEph:   sh.EphPK,
			resumeToken: sh.ResumeToken,
			remoteAddr:  serverAddr,
			laddrGen:    laddrGen,
			logger:      logger,
		}, nil
	}
}

// decodeServerHello tries every server->client cookie candidate in turn,
// since the responder's epoch may have rolled over since our hello went
// out.
func decodeServerHello(datagram []byte, cookie crypt.Cookie) (*wire.ServerHello, bool) {
	for _, key := range cookie.GenerateS2C() {
		aead, err := crypt.NewAEAD(key)
		if err != nil {
			continue
		}
		plain, err := aead.PadDecrypt(datagram)
		if err != nil {
			continue
		}
		frame, err := wire.DecodeHandshake(plain)
		if err != nil || frame.ServerHello == nil {
			continue
		}
		return frame.ServerHello, true
	}
	return nil, false
}

// initSession derives the session keys, spins up shardCount backhaul
// goroutines sharing a pair of channels, and wires them into a new
// session.Session.
func initSession(h *handshakeResult, serverLongPK [32]byte) (*Session, error) {
	shared, err := crypt.TripleECDH(h.myLong.Private, h.myEph.Private, serverLongPK, h.serverEph)
	if err != nil {
		return nil, fmt.Errorf("client: deriving session secret: %w", err)
	}
	upKey, dnKey := crypt.DeriveSessionKeys(shared)
	cookie := crypt.NewCookie(serverLongPK)

	shardCtx, shardCancel := context.WithCancel(context.Background())

	outCh := make(chan wire.DataFrame, 1000)
	inCh := make(chan wire.DataFrame, 256)

	for i := uint8(0); i < shardCount; i++ {
		p := shardParams{
			ShardID:     i,
			Cookie:      cookie,
			ResumeToken: h.resumeToken,
			RemoteAddr:  h.remoteAddr,
			LaddrGen:    h.laddrGen,
			UpKey:       upKey,
			DnKey:       dnKey,
			Out:         outCh,
			In:          inCh,
			Logger:      h.logger,
		}
		go runBackhaulShard(shardCtx, p)
	}

	inner := session.New(shardCtx, session.Config{
		Latency:    1 * time.Millisecond,
		TargetLoss: 0.05,
		SendFrame: func(df wire.DataFrame) error {
			select {
			case outCh <- df:
				return nil
			case <-shardCtx.Done():
				return shardCtx.Err()
			}
		},
		RecvFrame: inCh,
		Logger:    h.logger,
	})

	return &Session{Session: inner, shardCancel: shardCancel}, nil
}
