// Package crypt implements the cryptographic primitives of the obfuscated
// UDP session: X25519 key agreement, a BLAKE3-based KDF for per-direction
// session keys, and a length-hiding AEAD wrapper used for both handshake
// frames and data frames.
package crypt

import (
	"bytes"
	"crypto/rand"
	"errors"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/curve25519"
)

// ErrLowOrderPoint is returned when an X25519 scalar multiplication
// produces an all-zero output, which happens only for maliciously chosen
// public keys.
var ErrLowOrderPoint = errors.New("crypt: low-order point in ECDH")

// Keypair is a Curve25519 key agreement keypair.
type Keypair struct {
	Private [32]byte
	Public  [32]byte
}

// GenerateKeypair creates a fresh random X25519 keypair.
func GenerateKeypair() (Keypair, error) {
	var kp Keypair
	if _, err := rand.Read(kp.Private[:]); err != nil {
		return Keypair{}, err
	}
	pub, err := curve25519.X25519(kp.Private[:], curve25519.Basepoint)
	if err != nil {
		return Keypair{}, err
	}
	copy(kp.Public[:], pub)
	return kp, nil
}

func scalarMult(sk, pk [32]byte) ([32]byte, error) {
	var out [32]byte
	shared, err := curve25519.X25519(sk[:], pk[:])
	if err != nil {
		return out, err
	}
	copy(out[:], shared)
	allZero := true
	for _, b := range out {
		if b != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return out, ErrLowOrderPoint
	}
	return out, nil
}

// TripleECDH combines three X25519 agreements (the two long/ephemeral
// cross terms, and eph-eph) into a single shared secret, the same way an
// X3DH-style handshake binds both parties' long-term and ephemeral keys so
// that compromise of either alone is insufficient to recover the session
// key.
//
// dh1 and dh2 are the two cross terms: this side's dh1 (myLong·theirEph)
// equals the peer's dh2 (theirLong·myEph) once roles are swapped, and vice
// versa — X25519 agreement is symmetric in the key pairing, not in which
// side computed it. They must therefore be hashed in a fixed, role-
// independent order (sorted by byte value) rather than in
// this-side-first order, or the two ends derive different secrets.
func TripleECDH(myLongSK, myEphSK, theirLongPK, theirEphPK [32]byte) ([32]byte, error) {
	var secret [32]byte

	dh1, err := scalarMult(myLongSK, theirEphPK)
	if err != nil {
		return secret, err
	}
	dh2, err := scalarMult(myEphSK, theirLongPK)
	if err != nil {
		return secret, err
	}
	dh3, err := scalarMult(myEphSK, theirEphPK)
	if err != nil {
		return secret, err
	}

	lo, hi := dh1, dh2
	if bytes.Compare(lo[:], hi[:]) > 0 {
		lo, hi = hi, lo
	}

	h := blake3.New()
	h.Write(lo[:])
	h.Write(hi[:])
	h.Write(dh3[:])
	copy(secret[:], h.Sum(nil))
	return secret, nil
}
