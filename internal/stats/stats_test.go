package stats

import (
	"testing"

	"github.com/nullbound/obscura-client/internal/cache"
)

func TestCollectorSetExitDescriptor(t *testing.T) {
	c := New()
	c.SetExitDescriptor(&cache.ExitDescriptor{Hostname: "sfo-01"})
	snap := c.Snapshot()
	if snap.ExitHostname != "sfo-01" {
		t.Fatalf("got %q, want sfo-01", snap.ExitHostname)
	}
	c.SetExitDescriptor(nil)
	if got := c.Snapshot().ExitHostname; got != "" {
		t.Fatalf("got %q, want empty after clearing", got)
	}
}

func TestCollectorCounters(t *testing.T) {
	c := New()
	c.IncrOpenConns()
	c.IncrOpenConns()
	c.IncrTotalRx(100)
	c.IncrTotalTx(50)
	c.SetLatency(12.5)

	snap := c.Snapshot()
	if snap.OpenConns != 2 {
		t.Fatalf("got %d open conns, want 2", snap.OpenConns)
	}
	if snap.TotalRxBytes != 100 || snap.TotalTxBytes != 50 {
		t.Fatalf("got rx=%d tx=%d, want rx=100 tx=50", snap.TotalRxBytes, snap.TotalTxBytes)
	}
	if snap.LatencyMs != 12.5 {
		t.Fatalf("got latency %v, want 12.5", snap.LatencyMs)
	}

	c.DecrOpenConns()
	if got := c.Snapshot().OpenConns; got != 1 {
		t.Fatalf("got %d open conns after decrement, want 1", got)
	}
}
