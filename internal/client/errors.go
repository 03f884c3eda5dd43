package client

import "errors"

// ErrBadPubkey is returned when a server's handshake response carries a
// long-term public key different from the one the caller expected.
var ErrBadPubkey = errors.New("client: server presented an unexpected public key")

// ErrHandshakeTimeout is returned when no valid ServerHello arrives
// within a handshake attempt's await window; Connect retries only on this
// error.
var ErrHandshakeTimeout = errors.New("client: handshake timed out")
