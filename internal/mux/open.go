package mux

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/nullbound/obscura-client/internal/wire"
)

// maxAdditionalLen bounds the host:port header written ahead of a freshly
// opened stream.
const maxAdditionalLen = 512

// OpenConn opens a new reliable stream, optionally asking the far end to
// bridge it onward to additional (an empty string means "no further
// bridging, talk to me directly"). It blocks until the open completes, ctx
// is cancelled, or the Multiplex closes.
func (m *Multiplex) OpenConn(ctx context.Context, additional string) (net.Conn, error) {
	req := openRequest{additional: additional, reply: make(chan openResult, 1)}
	select {
	case m.connOpen <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.ctx.Done():
		return nil, ErrClosed
	}

	select {
	case res := <-req.reply:
		return res.conn, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.ctx.Done():
		return nil, ErrClosed
	}
}

// AcceptConn returns the next inbound stream the far end opened against
// us.
func (m *Multiplex) AcceptConn() (net.Conn, error) {
	select {
	case c, ok := <-m.accepted:
		if !ok {
			return nil, ErrClosed
		}
		return c, nil
	case <-m.ctx.Done():
		return nil, ErrClosed
	}
}

// openLoop services OpenConn requests one at a time off connOpen. Opening
// an smux stream and writing its header is fast enough that serializing it
// here is not a bottleneck, and it keeps the smux.Session's own concurrency
// story simple.
func (m *Multiplex) openLoop() {
	defer m.wg.Done()
	for {
		select {
		case req := <-m.connOpen:
			conn, err := m.doOpen(req.additional)
			select {
			case req.reply <- openResult{conn: conn, err: err}:
			default:
			}
		case <-m.ctx.Done():
			return
		}
	}
}

func (m *Multiplex) doOpen(additional string) (net.Conn, error) {
	if len(additional) > maxAdditionalLen {
		return nil, fmt.Errorf("mux: additional target too long")
	}
	stream, err := m.smux.OpenStream()
	if err != nil {
		return nil, fmt.Errorf("mux: open stream: %w", err)
	}
	_ = stream.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := wire.WritePascal(stream, []byte(additional)); err != nil {
		stream.Close()
		return nil, fmt.Errorf("mux: writing stream header: %w", err)
	}
	_ = stream.SetWriteDeadline(time.Time{})
	return stream, nil
}

// acceptLoop pulls inbound streams off the smux session, reads their
// additional-target header, and hands the stream (sans header) to callers
// of AcceptConn.
func (m *Multiplex) acceptLoop() {
	defer m.wg.Done()
	for {
		stream, err := m.smux.AcceptStream()
		if err != nil {
			return
		}
		_ = stream.SetReadDeadline(time.Now().Add(5 * time.Second))
		if _, err := wire.ReadPascal(stream, maxAdditionalLen); err != nil {
			stream.Close()
			continue
		}
		_ = stream.SetReadDeadline(time.Time{})
		select {
		case m.accepted <- stream:
		case <-m.ctx.Done():
			stream.Close()
			return
		default:
			stream.Close()
		}
	}
}
