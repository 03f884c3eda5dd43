package crypt

import (
	"crypto/rand"
	"encoding/binary"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrShortCiphertext is returned when a buffer handed to PadDecrypt is too
// small to contain a nonce and an authentication tag.
var ErrShortCiphertext = errors.New("crypt: ciphertext too short")

// ErrPadding is returned when a successfully decrypted buffer's internal
// length prefix is inconsistent with the padded plaintext it came from.
var ErrPadding = errors.New("crypt: corrupt padding")

const lengthPrefixSize = 2

// AEAD wraps a single ChaCha20-Poly1305 key and pads plaintexts to a fixed
// size before sealing them, so that an on-path observer cannot distinguish
// frame types (or guess their contents) by ciphertext length alone.
type AEAD struct {
	aead cipherAEAD
}

// cipherAEAD is the subset of cipher.AEAD that AEAD depends on; kept as an
// interface purely so tests can substitute a fake.
type cipherAEAD interface {
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
	NonceSize() int
	Overhead() int
}

// NewAEAD constructs an AEAD from a 32-byte key.
func NewAEAD(key [32]byte) (*AEAD, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, err
	}
	return &AEAD{aead: aead}, nil
}

// PadEncrypt pads payload with a 2-byte big-endian length prefix plus
// random filler up to padTo bytes of plaintext, then seals it with a fresh
// random nonce prepended to the ciphertext. If payload plus the length
// prefix already exceeds padTo, padTo is raised to fit it exactly (no
// truncation ever happens).
func (a *AEAD) PadEncrypt(payload []byte, padTo int) ([]byte, error) {
	need := lengthPrefixSize + len(payload)
	if padTo < need {
		padTo = need
	}
	plain := make([]byte, padTo)
	binary.BigEndian.PutUint16(plain[:lengthPrefixSize], uint16(len(payload)))
	copy(plain[lengthPrefixSize:], payload)
	if _, err := rand.Read(plain[need:]); err != nil {
		return nil, err
	}

	nonce := make([]byte, a.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(nonce)+len(plain)+a.aead.Overhead())
	out = append(out, nonce...)
	out = a.aead.Seal(out, nonce, plain, nil)
	return out, nil
}

// PadDecrypt reverses PadEncrypt: it opens the sealed buffer and strips the
// random padding, returning the original payload.
func (a *AEAD) PadDecrypt(ciphertext []byte) ([]byte, error) {
	nonceSize := a.aead.NonceSize()
	if len(ciphertext) < nonceSize+a.aead.Overhead() {
		return nil, ErrShortCiphertext
	}
	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plain, err := a.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, err
	}
	if len(plain) < lengthPrefixSize {
		return nil, ErrPadding
	}
	n := int(binary.BigEndian.Uint16(plain[:lengthPrefixSize]))
	if lengthPrefixSize+n > len(plain) {
		return nil, ErrPadding
	}
	payload := make([]byte, n)
	copy(payload, plain[lengthPrefixSize:lengthPrefixSize+n])
	return payload, nil
}
