package replay

import "testing"

func TestFilterAcceptsMonotonic(t *testing.T) {
	f := New(0)
	for i := uint64(0); i < 100; i++ {
		if !f.Add(i) {
			t.Fatalf("expected seqno %d to be accepted", i)
		}
	}
}

func TestFilterRejectsDuplicate(t *testing.T) {
	f := New(0)
	if !f.Add(5) {
		t.Fatal("expected first add to succeed")
	}
	if f.Add(5) {
		t.Fatal("expected duplicate to be rejected")
	}
}

func TestFilterAcceptsOutOfOrderWithinWindow(t *testing.T) {
	f := New(0)
	if !f.Add(100) {
		t.Fatal("expected 100 to be accepted")
	}
	if !f.Add(50) {
		t.Fatal("expected out-of-order 50 within window to be accepted")
	}
	if f.Add(50) {
		t.Fatal("expected replay of 50 to be rejected")
	}
}

func TestFilterRejectsTooOld(t *testing.T) {
	f := New(0)
	if !f.Add(windowSize + 5000) {
		t.Fatal("expected advance to succeed")
	}
	if f.Add(0) {
		t.Fatal("expected seqno older than window to be rejected")
	}
}

func TestFilterForgetsEvictedSeqnos(t *testing.T) {
	f := New(0)
	f.Add(0)
	// Push the window far enough that seqno 0 falls out of the remembered set.
	f.Add(windowSize + 1)
	if _, ok := f.seen[0]; ok {
		t.Fatal("expected seqno 0 to be evicted from the seen set")
	}
	if len(f.seen) > windowSize+1 {
		t.Fatalf("seen set grew unbounded: %d entries", len(f.seen))
	}
}
