// Package stats implements the StatCollector boundary: a place for the
// keepalive actor to publish the exit it picked, per-open latency
// samples, and running byte/connection counters, independent of how (or
// whether) anything exposes them to the outside world.
package stats

import (
	"sync"
	"sync/atomic"

	"github.com/nullbound/obscura-client/internal/cache"
	"github.com/nullbound/obscura-client/internal/metrics"
)

// Snapshot is a point-in-time copy of a Collector's counters, suitable for
// serving over a local stats endpoint or logging periodically.
type Snapshot struct {
	ExitHostname string  `json:"exit_hostname"`
	LatencyMs    float64 `json:"latency_ms"`
	OpenConns    int64   `json:"open_conns"`
	TotalRxBytes uint64  `json:"total_rx_bytes"`
	TotalTxBytes uint64  `json:"total_tx_bytes"`
}

// Collector accumulates the counters a running client reports about
// itself. The zero value is ready to use.
type Collector struct {
	mu           sync.RWMutex
	exitHostname string
	latencyMs    float64

	openConns atomic.Int64
	totalRx   atomic.Uint64
	totalTx   atomic.Uint64
}

// New returns a ready-to-use Collector.
func New() *Collector { return &Collector{} }

// SetExitDescriptor records which exit the current session is using, or
// clears it (pass nil) while no session is established. It also updates
// the Prometheus exit-selection gauge.
func (c *Collector) SetExitDescriptor(exit *cache.ExitDescriptor) {
	c.mu.Lock()
	if exit != nil {
		c.exitHostname = exit.Hostname
	} else {
		c.exitHostname = ""
	}
	c.mu.Unlock()
	if exit != nil {
		metrics.SetExitDescriptor(exit.Hostname)
	} else {
		metrics.SetExitDescriptor("")
	}
}

// SetLatency records the most recent connection-open latency, in
// milliseconds.
func (c *Collector) SetLatency(ms float64) {
	c.mu.Lock()
	c.latencyMs = ms
	c.mu.Unlock()
}

// IncrOpenConns/DecrOpenConns track the number of currently open
// downstream connections (SOCKS5/HTTP front-ends increment these around
// the lifetime of each proxied connection).
func (c *Collector) IncrOpenConns() { c.openConns.Add(1) }
func (c *Collector) DecrOpenConns() { c.openConns.Add(-1) }

// IncrTotalRx/IncrTotalTx accumulate bytes copied in each direction.
func (c *Collector) IncrTotalRx(n uint64) { c.totalRx.Add(n) }
func (c *Collector) IncrTotalTx(n uint64) { c.totalTx.Add(n) }

// Snapshot returns a consistent-enough copy of the current counters.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		ExitHostname: c.exitHostname,
		LatencyMs:    c.latencyMs,
		OpenConns:    c.openConns.Load(),
		TotalRxBytes: c.totalRx.Load(),
		TotalTxBytes: c.totalTx.Load(),
	}
}
