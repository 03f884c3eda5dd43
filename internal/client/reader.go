package client

import (
	"log/slog"
	"net"
	"time"

	"github.com/nullbound/obscura-client/internal/crypt"
	"github.com/nullbound/obscura-client/internal/logging"
	"github.com/nullbound/obscura-client/internal/metrics"
	"github.com/nullbound/obscura-client/internal/wire"
)

const udpRecvBufSize = 2048

// startReader spawns a goroutine that continuously reads datagrams off
// conn, authenticates and unpads them with dnAEAD, decodes them as
// DataFrames, and forwards them on the returned channel. The channel is
// closed when the socket errors out (typically because it was closed by
// the caller during a rebind).
func startReader(conn *net.UDPConn, dnAEAD *crypt.AEAD, shardID uint8, logger *slog.Logger) <-chan wire.DataFrame {
	if logger == nil {
		logger = logging.L()
	}
	out := make(chan wire.DataFrame, 64)
	go func() {
		defer close(out)
		buf := make([]byte, udpRecvBufSize)
		for {
			n, _, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			df, ok := decodeShardDatagram(buf[:n], dnAEAD)
			if !ok {
				logger.Debug("shard_recv_anomalous_datagram", "shard", shardID, "len", n)
				metrics.IncError(metrics.ErrShardRecv)
				continue
			}
			out <- df
		}
	}()
	return out
}

// drainOldSocket keeps reading a socket that's being retired for up to
// drainWindow, forwarding anything that still arrives on it to in before
// finally closing it. This covers replies to packets sent just before a
// rebind that would otherwise be lost.
const drainWindow = 5 * time.Second

func drainOldSocket(conn *net.UDPConn, dnAEAD *crypt.AEAD, in chan<- wire.DataFrame, shardID uint8) {
	defer conn.Close()
	deadline := time.Now().Add(drainWindow)
	_ = conn.SetReadDeadline(deadline)
	buf := make([]byte, udpRecvBufSize)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		if df, ok := decodeShardDatagram(buf[:n], dnAEAD); ok {
			select {
			case in <- df:
			default:
				metrics.IncError(metrics.ErrShardRecv)
			}
		}
	}
}

func decodeShardDatagram(datagram []byte, dnAEAD *crypt.AEAD) (wire.DataFrame, bool) {
	plain, err := dnAEAD.PadDecrypt(datagram)
	if err != nil {
		return wire.DataFrame{}, false
	}
	df, err := wire.DecodeDataFrame(plain)
	if err != nil {
		return wire.DataFrame{}, false
	}
	body := make([]byte, len(df.Body))
	copy(body, df.Body)
	df.Body = body
	return df, true
}
