package crypt

import (
	"encoding/binary"
	"time"

	"github.com/zeebo/blake3"
)

// cookieEpoch is the rotation period of the handshake obfuscation key.
// Both client and server derive the same key from the server's long-term
// public key and the current epoch number, so no extra round trip is
// needed to agree on it; candidateCount lets a receiver straddling an
// epoch boundary (or with a slightly skewed clock) still find the key the
// sender used.
const (
	cookieEpoch    = 20 * time.Second
	candidateCount = 3
)

// Cookie derives the rotating keystream used to encrypt handshake frames.
// It is independent of the session's up/dn keys: its only job is to keep
// the handshake from looking like a fixed, fingerprintable plaintext, not
// to provide forward secrecy (the handshake itself does that via
// TripleECDH).
type Cookie struct {
	serverLongTermPK [32]byte
}

// NewCookie builds a Cookie for the given server long-term public key.
func NewCookie(serverLongTermPK [32]byte) Cookie {
	return Cookie{serverLongTermPK: serverLongTermPK}
}

// GenerateC2S returns candidate client->server handshake keys, freshest
// first. Callers that are encrypting (as opposed to trying to decrypt)
// should use the first one.
func (c Cookie) GenerateC2S() [][32]byte {
	return c.candidates("c2s")
}

// GenerateS2C returns candidate server->client handshake keys, freshest
// first.
func (c Cookie) GenerateS2C() [][32]byte {
	return c.candidates("s2c")
}

func (c Cookie) candidates(direction string) [][32]byte {
	epoch := currentEpoch()
	out := make([][32]byte, 0, candidateCount)
	for i := 0; i < candidateCount; i++ {
		out = append(out, deriveCookieKey(direction, c.serverLongTermPK, epoch-int64(i)))
	}
	return out
}

func currentEpoch() int64 {
	return time.Now().Unix() / int64(cookieEpoch/time.Second)
}

func deriveCookieKey(direction string, serverPK [32]byte, epoch int64) [32]byte {
	var epochBuf [8]byte
	binary.BigEndian.PutUint64(epochBuf[:], uint64(epoch))

	h := blake3.NewDeriveKey("obscura-client handshake cookie v1 " + direction)
	h.Write(serverPK[:])
	h.Write(epochBuf[:])

	var out [32]byte
	if _, err := h.Digest().Read(out[:]); err != nil {
		panic(err) // Digest.Read over a fixed-size buffer cannot fail
	}
	return out
}
