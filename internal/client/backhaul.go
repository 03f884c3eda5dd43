package client

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/nullbound/obscura-client/internal/crypt"
	"github.com/nullbound/obscura-client/internal/metrics"
	"github.com/nullbound/obscura-client/internal/wire"
)

// shardCount is how many independent UDP 4-tuples a session's data plane
// is striped across. Running more than one lets the session survive a
// single path going dead (NAT rebinding, middlebox timeout) without
// losing the whole session.
const shardCount = 2

// resetInterval is how often a shard proactively rebinds to a fresh local
// port, resending its resume token, even with no evidence the old path
// has gone bad.
const resetInterval = 5 * time.Second

// rebindRetryDelay is how long a shard waits between failed attempts to
// bind a fresh local socket.
const rebindRetryDelay = 1 * time.Second

// shardParams are the pieces of session state a single backhaul shard
// needs, factored out of the handshake so that every shard can run
// independently off the same cookie/keys/resume token.
type shardParams struct {
	ShardID     uint8
	Cookie      crypt.Cookie
	ResumeToken []byte
	RemoteAddr  *net.UDPAddr
	LaddrGen    LaddrGen
	UpKey       [32]byte
	DnKey       [32]byte
	Out         <-chan wire.DataFrame
	In          chan<- wire.DataFrame
	Logger      *slog.Logger
}

// runBackhaulShard owns one UDP socket carrying a slice of a session's
// traffic. It periodically rebinds to a fresh local address, resuming the
// session on the new socket with a ClientResume handshake frame while
// draining the old socket for a few seconds in case in-flight replies
// still land on it.
func runBackhaulShard(ctx context.Context, p shardParams) {
	logger := p.Logger
	upAEAD, err := crypt.NewAEAD(p.UpKey)
	if err != nil {
		logger.Error("shard_aead_init_failed", "shard", p.ShardID, "error", err)
		return
	}
	dnAEAD, err := crypt.NewAEAD(p.DnKey)
	if err != nil {
		logger.Error("shard_aead_init_failed", "shard", p.ShardID, "error", err)
		return
	}

	conn, err := bindUDP(p.LaddrGen)
	if err != nil {
		logger.Error("shard_bind_failed", "shard", p.ShardID, "error", err)
		return
	}
	downCh := startReader(conn, dnAEAD, p.ShardID, logger)

	var lastResume time.Time
	resumed := false

	defer conn.Close()
	for {
		select {
		case <-ctx.Done():
			return

		case df, chOk := <-downCh:
			if !chOk {
				// The socket errored out from under us; let the caller
				// (the keepalive supervisor) notice the session has gone
				// quiet and restart it rather than trying to self-heal
				// here.
				return
			}
			select {
			case p.In <- df:
			case <-ctx.Done():
				return
			}

		case df, chOk := <-p.Out:
			if !chOk {
				return
			}
			if !resumed || time.Since(lastResume) > resetInterval {
				resumed = true
				lastResume = time.Now()
				metrics.IncShardRebind()

				oldConn := conn
				go drainOldSocket(oldConn, dnAEAD, p.In, p.ShardID)

				newConn, rerr := rebindWithRetry(ctx, p.LaddrGen)
				if rerr != nil {
					return
				}
				conn = newConn
				downCh = startReader(conn, dnAEAD, p.ShardID, logger)
				sendClientResume(conn, p)
			}

			encoded := wire.EncodeDataFrame(df)
			sealed, serr := upAEAD.PadEncrypt(encoded, 1000)
			if serr != nil {
				logger.Debug("shard_encode_error", "shard", p.ShardID, "error", serr)
				continue
			}
			if _, werr := conn.WriteToUDP(sealed, p.RemoteAddr); werr != nil {
				metrics.IncError(metrics.ErrShardSend)
			}
		}
	}
}

// rebindWithRetry keeps trying to bind a fresh local socket until it
// succeeds or ctx is cancelled, sleeping rebindRetryDelay between
// attempts.
func rebindWithRetry(ctx context.Context, laddrGen LaddrGen) (*net.UDPConn, error) {
	for {
		conn, err := bindUDP(laddrGen)
		if err == nil {
			return conn, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		sleepFn(rebindRetryDelay)
	}
}

func sendClientResume(conn *net.UDPConn, p shardParams) {
	frame := wire.HandshakeFrame{ClientResume: &wire.ClientResume{ResumeToken: p.ResumeToken, ShardID: p.ShardID}}
	enc, err := wire.EncodeHandshake(frame)
	if err != nil {
		return
	}
	cookieKey := p.Cookie.GenerateC2S()[0]
	aead, err := crypt.NewAEAD(cookieKey)
	if err != nil {
		return
	}
	sealed, err := aead.PadEncrypt(enc, 1000)
	if err != nil {
		return
	}
	_, _ = conn.WriteToUDP(sealed, p.RemoteAddr)
}
