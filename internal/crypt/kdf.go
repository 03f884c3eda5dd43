package crypt

import "github.com/zeebo/blake3"

// upKeyContext and dnKeyContext domain-separate the client->server and
// server->client session keys derived from the same triple-ECDH secret, so
// that an up-direction key never collides with a down-direction one.
var (
	upKeyContext = blake3.Sum256([]byte("obscura-client session up-key v1"))
	dnKeyContext = blake3.Sum256([]byte("obscura-client session dn-key v1"))
)

// DeriveSessionKeys turns a triple-ECDH shared secret into the two AEAD
// keys used for the lifetime of a session: one for each direction. Keying
// BLAKE3 with a fixed per-direction context and hashing the shared secret
// mirrors a standard keyed-hash KDF.
func DeriveSessionKeys(sharedSecret [32]byte) (upKey, dnKey [32]byte) {
	upKey = keyedHash(upKeyContext, sharedSecret[:])
	dnKey = keyedHash(dnKeyContext, sharedSecret[:])
	return
}

func keyedHash(key [32]byte, data []byte) [32]byte {
	h, err := blake3.NewKeyed(key[:])
	if err != nil {
		// NewKeyed only fails for a key of the wrong length, which never
		// happens here since key is a fixed-size array.
		panic(err)
	}
	h.Write(data)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
