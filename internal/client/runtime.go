package client

import (
	"net"
	"time"
)

// sleepFn and dialUDP are test hooks, following the same pattern the
// serial backend uses for its backoff loop: production code calls the
// real implementation, tests substitute a fake to make timing and socket
// behavior deterministic.
var (
	sleepFn = time.Sleep
	dialUDP = net.ListenUDP
)

// LaddrGen produces a local address to bind a fresh UDP socket to. The
// default always asks the OS for an ephemeral port on the wildcard
// address; a custom one lets callers pin a source IP or port range.
type LaddrGen func() (*net.UDPAddr, error)

func defaultLaddrGen() (*net.UDPAddr, error) {
	return &net.UDPAddr{IP: net.IPv4zero, Port: 0}, nil
}

func bindUDP(gen LaddrGen) (*net.UDPConn, error) {
	laddr, err := gen()
	if err != nil {
		return nil, err
	}
	return dialUDP("udp", laddr)
}
