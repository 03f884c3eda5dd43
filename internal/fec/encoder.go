package fec

import (
	"math"

	"github.com/klauspost/reedsolomon"
	"github.com/nullbound/obscura-client/internal/loss"
)

// maxTotalShards is the ceiling imposed by DataFrame.RunIdx being a single
// byte on the wire.
const maxTotalShards = 255

// maxModelledLoss caps the loss fraction fed into the parity-count formula
// so a brief spike in measured loss can't demand an absurd number of
// parity shards for a batch.
const maxModelledLoss = 0.95

// FrameEncoder turns a batch of up to 16 payloads into a set of Reed-Solomon
// encoded shards (the original data shards plus parity shards), sized
// according to the worse of a configured target loss rate and the most
// recently measured one.
type FrameEncoder struct {
	targetLossByte byte
}

// NewFrameEncoder builds a FrameEncoder aiming to survive targetLoss
// fraction of shard loss even if the live measurement says otherwise.
func NewFrameEncoder(targetLoss float64) *FrameEncoder {
	return &FrameEncoder{targetLossByte: loss.ToByte(targetLoss)}
}

// Encode Reed-Solomon encodes payloads, padding measuredLossByte against
// the configured target so transient improvements in measured loss don't
// immediately strip redundancy.
func (e *FrameEncoder) Encode(measuredLossByte byte, payloads [][]byte) ([][]byte, error) {
	dataShards := len(payloads)
	if dataShards == 0 {
		return nil, nil
	}

	effectiveLoss := e.targetLossByte
	if measuredLossByte > effectiveLoss {
		effectiveLoss = measuredLossByte
	}
	parityShards := parityCount(dataShards, effectiveLoss)
	if dataShards+parityShards > maxTotalShards {
		parityShards = maxTotalShards - dataShards
	}

	packed := make([][]byte, dataShards)
	maxLen := 0
	for i, p := range payloads {
		packed[i] = packShard(p)
		if len(packed[i]) > maxLen {
			maxLen = len(packed[i])
		}
	}

	shards := make([][]byte, dataShards+parityShards)
	for i := range shards {
		shards[i] = make([]byte, maxLen)
		if i < dataShards {
			copy(shards[i], packed[i])
		}
	}

	if parityShards > 0 {
		enc, err := reedsolomon.New(dataShards, parityShards)
		if err != nil {
			return nil, err
		}
		if err := enc.Encode(shards); err != nil {
			return nil, err
		}
	}
	return shards, nil
}

// parityCount turns a loss byte into a number of parity shards using the
// standard erasure-coding overhead ratio p/(1-p), rounded up.
func parityCount(dataShards int, lossByte byte) int {
	p := loss.FromByte(lossByte)
	if p <= 0 {
		return 0
	}
	if p > maxModelledLoss {
		p = maxModelledLoss
	}
	ratio := p / (1 - p)
	n := int(math.Ceil(float64(dataShards) * ratio))
	if n < 1 {
		n = 1
	}
	return n
}
