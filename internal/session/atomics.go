package session

import "sync/atomic"

// fetchMaxU64 atomically sets *a to val if val is greater than the
// current value.
func fetchMaxU64(a *atomic.Uint64, val uint64) {
	for {
		cur := a.Load()
		if val <= cur {
			return
		}
		if a.CompareAndSwap(cur, val) {
			return
		}
	}
}
