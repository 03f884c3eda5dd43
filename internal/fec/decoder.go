package fec

import "github.com/klauspost/reedsolomon"

// FrameDecoder reassembles a single FEC-protected batch ("run") from its
// shards, which may arrive out of order and interleaved with shards from
// other runs. It recovers the original payloads as soon as enough shards
// (data or parity) have arrived, and is a no-op after that point.
type FrameDecoder struct {
	dataShards   int
	parityShards int
	shards       [][]byte
	present      []bool
	count        int
	emitted      bool
}

// NewFrameDecoder creates a decoder for a run with the given shard counts.
func NewFrameDecoder(dataShards, parityShards int) *FrameDecoder {
	total := dataShards + parityShards
	return &FrameDecoder{
		dataShards:   dataShards,
		parityShards: parityShards,
		shards:       make([][]byte, total),
		present:      make([]bool, total),
	}
}

// Decode feeds one shard at run-relative index idx. It returns the
// reconstructed payloads and ok=true exactly once, as soon as enough
// shards have arrived to recover every data shard.
func (d *FrameDecoder) Decode(body []byte, idx int) (payloads [][]byte, ok bool) {
	if d.emitted || idx < 0 || idx >= len(d.shards) {
		return nil, false
	}
	if !d.present[idx] {
		cp := make([]byte, len(body))
		copy(cp, body)
		d.shards[idx] = cp
		d.present[idx] = true
		d.count++
	}
	if d.count < d.dataShards {
		return nil, false
	}

	shardLen := 0
	for _, s := range d.shards {
		if len(s) > shardLen {
			shardLen = len(s)
		}
	}
	for i, s := range d.shards {
		if s != nil && len(s) < shardLen {
			padded := make([]byte, shardLen)
			copy(padded, s)
			d.shards[i] = padded
		}
	}

	if d.count < len(d.shards) && d.parityShards > 0 {
		enc, err := reedsolomon.New(d.dataShards, d.parityShards)
		if err != nil {
			return nil, false
		}
		if err := enc.Reconstruct(d.shards); err != nil {
			return nil, false
		}
	} else if d.count < len(d.shards) {
		// No parity shards configured for this run; we can only proceed
		// if every data shard specifically arrived.
		for i := 0; i < d.dataShards; i++ {
			if !d.present[i] {
				return nil, false
			}
		}
	}

	out := make([][]byte, d.dataShards)
	for i := 0; i < d.dataShards; i++ {
		payload, err := unpackShard(d.shards[i])
		if err != nil {
			return nil, false
		}
		out[i] = payload
	}
	d.emitted = true
	return out, true
}

// GoodPkts reports how many data shards arrived directly, without needing
// erasure-code reconstruction.
func (d *FrameDecoder) GoodPkts() int {
	n := 0
	for i := 0; i < d.dataShards; i++ {
		if d.present[i] {
			n++
		}
	}
	return n
}

// LostPkts reports how many data shards had to be reconstructed (or never
// arrived at all).
func (d *FrameDecoder) LostPkts() int {
	return d.dataShards - d.GoodPkts()
}
