package keepalive

import (
	"context"
	"fmt"
	"time"

	"github.com/nullbound/obscura-client/internal/cache"
	"github.com/nullbound/obscura-client/internal/mux"
	"github.com/nullbound/obscura-client/internal/wire"
)

const authTimeout = 5 * time.Second

// authStatusOK is the single reply byte the far end sends back once it has
// accepted the presented token.
const authStatusOK = 0

// authenticate opens one stream on mx, presents token as three
// length-prefixed fields, and waits for a one-byte length-prefixed status
// reply.
func authenticate(ctx context.Context, mx *mux.Multiplex, token cache.AuthToken) error {
	actx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	conn, err := mx.OpenConn(actx, "")
	if err != nil {
		return fmt.Errorf("keepalive: opening auth stream: %w", err)
	}
	defer conn.Close()

	deadline, ok := actx.Deadline()
	if ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := wire.WritePascal(conn, token.UnblindedDigest); err != nil {
		return fmt.Errorf("keepalive: writing auth digest: %w", err)
	}
	if err := wire.WritePascal(conn, token.UnblindedSignature); err != nil {
		return fmt.Errorf("keepalive: writing auth signature: %w", err)
	}
	if err := wire.WritePascal(conn, []byte{token.Level}); err != nil {
		return fmt.Errorf("keepalive: writing auth level: %w", err)
	}

	reply, err := wire.ReadPascal(conn, 1)
	if err != nil {
		return ErrAuthTimeout
	}
	if len(reply) != 1 || reply[0] != authStatusOK {
		return ErrAuthRejected
	}
	return nil
}
