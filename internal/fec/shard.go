// Package fec implements forward error correction over batches of
// datagrams using Reed-Solomon erasure coding, plus a windowed decoder
// that reassembles FEC-protected batches ("runs") out of order.
package fec

import (
	"encoding/binary"
	"errors"
)

// ErrCorruptShard is returned when a reconstructed or received shard's
// internal length prefix doesn't fit inside the shard itself.
var ErrCorruptShard = errors.New("fec: corrupt shard")

const shardLenPrefix = 2

// packShard prepends a 2-byte length prefix to payload so that, once
// shards are padded to a common length for Reed-Solomon, the original
// unpadded payload can be recovered exactly.
func packShard(payload []byte) []byte {
	out := make([]byte, shardLenPrefix+len(payload))
	binary.BigEndian.PutUint16(out[:shardLenPrefix], uint16(len(payload)))
	copy(out[shardLenPrefix:], payload)
	return out
}

func unpackShard(shard []byte) ([]byte, error) {
	if len(shard) < shardLenPrefix {
		return nil, ErrCorruptShard
	}
	n := int(binary.BigEndian.Uint16(shard[:shardLenPrefix]))
	if shardLenPrefix+n > len(shard) {
		return nil, ErrCorruptShard
	}
	out := make([]byte, n)
	copy(out, shard[shardLenPrefix:shardLenPrefix+n])
	return out, nil
}
