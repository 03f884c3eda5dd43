package loss

import (
	"testing"
	"time"
)

func withFakeClock(t *testing.T, start time.Time) func(advance time.Duration) {
	t.Helper()
	cur := start
	orig := nowFunc
	nowFunc = func() time.Time { return cur }
	t.Cleanup(func() { nowFunc = orig })
	return func(advance time.Duration) { cur = cur.Add(advance) }
}

func TestCalculatorGatesOnInterval(t *testing.T) {
	advance := withFakeClock(t, time.Unix(0, 0))
	c := New()
	c.Update(200, 200)
	if c.Estimate() != 0 {
		t.Fatalf("expected no update before interval elapses, got %v", c.Estimate())
	}
	advance(3 * time.Second)
	c.Update(400, 300)
	if c.Estimate() == 0 {
		t.Fatal("expected an estimate once gating conditions are met")
	}
}

func TestCalculatorEstimatesLoss(t *testing.T) {
	advance := withFakeClock(t, time.Unix(0, 0))
	c := New()
	advance(3 * time.Second)
	// 200 new top seqnos, only 100 actually received => 50% loss this interval.
	c.Update(200, 100)
	got := c.Estimate()
	if got <= 0 || got >= 1 {
		t.Fatalf("expected loss estimate in (0,1), got %v", got)
	}
}

func TestCalculatorNoLossWhenComplete(t *testing.T) {
	advance := withFakeClock(t, time.Unix(0, 0))
	c := New()
	advance(3 * time.Second)
	c.Update(200, 200)
	if got := c.Estimate(); got != 0 {
		t.Fatalf("expected zero loss, got %v", got)
	}
}

func TestToByteFromByteRoundTrip(t *testing.T) {
	cases := []float64{0, 0.1, 0.5, 0.99, 1.0}
	for _, lossFrac := range cases {
		b := ToByte(lossFrac)
		back := FromByte(b)
		if back < 0 || back > 1.01 {
			t.Fatalf("round trip out of range for %v: got byte %d -> %v", lossFrac, b, back)
		}
	}
	if ToByte(1.0) != 255 {
		t.Fatalf("expected full loss to saturate at 255, got %d", ToByte(1.0))
	}
}
