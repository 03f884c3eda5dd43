// Package loss estimates downstream packet loss from periodically
// piggy-backed receive counters, gating each sample so bursts of traffic
// (or quiet periods) don't produce noisy estimates.
package loss

import (
	"sort"
	"time"
)

const (
	// minSeqnoDelta and minTotalDelta gate a sample: without enough new
	// traffic since the last sample, the loss ratio is too noisy to trust.
	minSeqnoDelta = 100
	minTotalDelta = 100
	// minInterval further gates samples by wall-clock time, so a burst of
	// frames arriving back-to-back doesn't produce a flood of near-
	// identical samples.
	minInterval = 2 * time.Second
	// sampleWindow bounds how many recent samples feed the reported
	// estimate.
	sampleWindow = 64
)

// nowFunc is overridable in tests to make interval gating deterministic.
var nowFunc = time.Now

// Calculator tracks downstream loss by comparing the highest sequence
// number observed against the total number of frames actually received.
type Calculator struct {
	lastTopSeqno   uint64
	lastTotalSeqno uint64
	lastTime       time.Time
	samples        []float64
	estimate       float64
}

// New creates a Calculator with no history.
func New() *Calculator {
	return &Calculator{lastTime: nowFunc()}
}

// Update feeds in the latest (topSeqno, totalSeqno) pair reported by the
// peer. It only updates Estimate when the gating conditions are met;
// otherwise it's a no-op.
func (c *Calculator) Update(topSeqno, totalSeqno uint64) {
	now := nowFunc()
	if totalSeqno < c.lastTotalSeqno+minTotalDelta ||
		topSeqno < c.lastTopSeqno+minSeqnoDelta ||
		now.Sub(c.lastTime) < minInterval {
		return
	}

	deltaTop := float64(satSub(topSeqno, c.lastTopSeqno))
	deltaTotal := float64(satSub(totalSeqno, c.lastTotalSeqno))
	c.lastTopSeqno = topSeqno
	c.lastTotalSeqno = totalSeqno
	c.lastTime = now

	denom := deltaTop
	if deltaTotal > denom {
		denom = deltaTotal
	}
	if denom == 0 {
		return
	}
	sample := 1.0 - deltaTotal/denom

	c.samples = append(c.samples, sample)
	if len(c.samples) > sampleWindow {
		c.samples = c.samples[1:]
	}

	sorted := make([]float64, len(c.samples))
	copy(sorted, c.samples)
	sort.Float64s(sorted)
	// Deliberately the first-quartile element, not the true median: a
	// slightly optimistic (lower) loss estimate, biased toward sending
	// fewer parity shards rather than more.
	c.estimate = sorted[len(sorted)/4]
}

// Estimate returns the current loss estimate in [0, 1].
func (c *Calculator) Estimate() float64 {
	return c.estimate
}

func satSub(a, b uint64) uint64 {
	if a <= b {
		return 0
	}
	return a - b
}

// ToByte converts a loss fraction in [0, 1] into the one-byte
// representation carried on the wire by data frames.
func ToByte(lossFrac float64) byte {
	scaled := lossFrac * 256.0
	if scaled >= 255.0 {
		return 255
	}
	if scaled < 0 {
		return 0
	}
	return byte(scaled)
}

// FromByte is the inverse of ToByte.
func FromByte(b byte) float64 {
	return float64(b) / 256.0
}
