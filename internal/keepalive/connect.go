package keepalive

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/nullbound/obscura-client/internal/cache"
	"github.com/nullbound/obscura-client/internal/client"
	"github.com/nullbound/obscura-client/internal/fuzzy"
	"github.com/nullbound/obscura-client/internal/raceset"
)

// directPort is the fixed port every exit's obscura-client endpoint
// listens on.
const directPort = 19831

// overallConnectTimeout bounds the whole exit-selection-plus-connect
// sequence, direct attempt and bridge fallback included.
const overallConnectTimeout = 10 * time.Second

// bridgeFallbackDelay is how long a non-bridge-only run waits for the
// direct attempt before also starting the bridge race, so a live direct
// path isn't abandoned just because bridges happen to answer faster.
const bridgeFallbackDelay = 5 * time.Second

// dialFunc establishes a UDP session with the server at addr; the default
// (client.Connect) retries the handshake on time-outs. Swappable in tests.
type dialFunc func(ctx context.Context, addr *net.UDPAddr, serverPubKey [32]byte) (*client.Session, error)

func defaultDial(ctx context.Context, addr *net.UDPAddr, serverPubKey [32]byte) (*client.Session, error) {
	return client.Connect(ctx, addr, serverPubKey)
}

// pickExit chooses the exit whose hostname is closest, by Damerau-
// Levenshtein distance, to requested.
func pickExit(exits []cache.ExitDescriptor, requested string) (cache.ExitDescriptor, error) {
	if len(exits) == 0 {
		return cache.ExitDescriptor{}, ErrNoExits
	}
	hostnames := make([]string, len(exits))
	for i, e := range exits {
		hostnames[i] = e.Hostname
	}
	best, _, _ := fuzzy.Nearest(requested, hostnames)
	for _, e := range exits {
		if e.Hostname == best {
			return e, nil
		}
	}
	return exits[0], nil
}

// connectDirect resolves the exit's well-known port and dials it once via
// dial.
func connectDirect(ctx context.Context, dial dialFunc, exit cache.ExitDescriptor) (*client.Session, error) {
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", exit.Hostname, directPort))
	if err != nil {
		return nil, fmt.Errorf("keepalive: resolving exit host: %w", err)
	}
	return dial(ctx, addr, exit.ServerPubKey)
}

// connectViaBridges races a handshake attempt through every known bridge
// for exit and returns whichever succeeds first.
func connectViaBridges(ctx context.Context, dial dialFunc, c cache.ClientCache, exit cache.ExitDescriptor) (*client.Session, error) {
	bridges, err := c.GetBridges(ctx, exit.Hostname)
	if err != nil {
		return nil, fmt.Errorf("keepalive: fetching bridges: %w", err)
	}
	if len(bridges) == 0 {
		return nil, ErrNoBridges
	}

	attempts := make([]raceset.Attempt[*client.Session], len(bridges))
	for i, b := range bridges {
		b := b
		attempts[i] = raceset.Attempt[*client.Session]{
			Label: b.Endpoint,
			Run: func(ctx context.Context) (*client.Session, error) {
				addr, err := net.ResolveUDPAddr("udp", b.Endpoint)
				if err != nil {
					return nil, fmt.Errorf("keepalive: resolving bridge %s: %w", b.Endpoint, err)
				}
				return dial(ctx, addr, b.ServerPubKey)
			},
		}
	}
	return raceset.Race(ctx, attempts)
}

// establishSession implements the direct-vs-bridge race described for the
// keepalive body: bridges only when useBridges is set, otherwise a direct
// attempt racing a delayed bridge fallback, all bounded by
// overallConnectTimeout.
func establishSession(ctx context.Context, dial dialFunc, c cache.ClientCache, exit cache.ExitDescriptor, useBridges bool) (*client.Session, error) {
	cctx, cancel := context.WithTimeout(ctx, overallConnectTimeout)
	defer cancel()

	if useBridges {
		return connectViaBridges(cctx, dial, c, exit)
	}

	attempts := []raceset.Attempt[*client.Session]{
		{Label: "direct", Run: func(ctx context.Context) (*client.Session, error) {
			return connectDirect(ctx, dial, exit)
		}},
		raceset.Delayed("bridge-fallback", bridgeFallbackDelay, func(ctx context.Context) (*client.Session, error) {
			return connectViaBridges(ctx, dial, c, exit)
		}),
	}
	sess, err := raceset.Race(cctx, attempts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectTimeout, err)
	}
	return sess, nil
}
