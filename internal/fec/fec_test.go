package fec

import (
	"bytes"
	"testing"
)

func samplePayloads() [][]byte {
	return [][]byte{
		[]byte("alpha payload"),
		[]byte("beta payload is a little longer"),
		[]byte("g"),
		[]byte("delta"),
	}
}

func TestEncoderProducesParityUnderLoss(t *testing.T) {
	enc := NewFrameEncoder(0.2)
	shards, err := enc.Encode(0, samplePayloads())
	if err != nil {
		t.Fatal(err)
	}
	if len(shards) <= len(samplePayloads()) {
		t.Fatalf("expected parity shards to be added, got %d shards for %d payloads", len(shards), len(samplePayloads()))
	}
}

func TestEncoderNoLossNoParity(t *testing.T) {
	enc := NewFrameEncoder(0)
	shards, err := enc.Encode(0, samplePayloads())
	if err != nil {
		t.Fatal(err)
	}
	if len(shards) != len(samplePayloads()) {
		t.Fatalf("expected no parity shards at zero loss, got %d shards for %d payloads", len(shards), len(samplePayloads()))
	}
}

func TestFrameDecoderReconstructsFromFullSet(t *testing.T) {
	payloads := samplePayloads()
	enc := NewFrameEncoder(0.3)
	shards, err := enc.Encode(0, payloads)
	if err != nil {
		t.Fatal(err)
	}
	dec := NewFrameDecoder(len(payloads), len(shards)-len(payloads))
	var out [][]byte
	var ok bool
	for i, s := range shards {
		out, ok = dec.Decode(s, i)
		if ok {
			break
		}
	}
	if !ok {
		t.Fatal("expected decoder to reconstruct with all shards present")
	}
	for i, p := range payloads {
		if !bytes.Equal(out[i], p) {
			t.Fatalf("payload %d mismatch: got %q want %q", i, out[i], p)
		}
	}
}

func TestFrameDecoderReconstructsWithMissingDataShard(t *testing.T) {
	payloads := samplePayloads()
	enc := NewFrameEncoder(0.5)
	shards, err := enc.Encode(0, payloads)
	if err != nil {
		t.Fatal(err)
	}
	if len(shards) <= len(payloads) {
		t.Skip("encoder produced no parity at this loss level")
	}
	dec := NewFrameDecoder(len(payloads), len(shards)-len(payloads))
	var out [][]byte
	var ok bool
	for i, s := range shards {
		if i == 0 {
			continue // drop the first data shard
		}
		out, ok = dec.Decode(s, i)
		if ok {
			break
		}
	}
	if !ok {
		t.Fatal("expected decoder to reconstruct the missing data shard from parity")
	}
	for i, p := range payloads {
		if !bytes.Equal(out[i], p) {
			t.Fatalf("payload %d mismatch after reconstruction: got %q want %q", i, out[i], p)
		}
	}
	if dec.LostPkts() != 1 {
		t.Fatalf("expected exactly one lost data shard, got %d", dec.LostPkts())
	}
}

func TestRunDecoderHandlesOutOfOrderRuns(t *testing.T) {
	rd := NewRunDecoder()
	payloadsA := [][]byte{[]byte("run-a-1"), []byte("run-a-2")}
	payloadsB := [][]byte{[]byte("run-b-1"), []byte("run-b-2")}
	enc := NewFrameEncoder(0)

	shardsA, _ := enc.Encode(0, payloadsA)
	shardsB, _ := enc.Encode(0, payloadsB)

	// Deliver run B's shards before run A's, out of order.
	for i, s := range shardsB {
		rd.Input(1, uint8(i), uint8(len(payloadsB)), 0, s)
	}
	var got [][]byte
	var ok bool
	for i, s := range shardsA {
		got, ok = rd.Input(0, uint8(i), uint8(len(payloadsA)), 0, s)
		if ok {
			break
		}
	}
	if !ok {
		t.Fatal("expected run 0 to decode despite arriving after run 1")
	}
	if !bytes.Equal(got[0], payloadsA[0]) {
		t.Fatalf("unexpected payload: %q", got[0])
	}
}

func TestRunDecoderEvictsOldRuns(t *testing.T) {
	rd := NewRunDecoder()
	enc := NewFrameEncoder(0)
	for run := uint64(0); run < runWindow+5; run++ {
		shards, _ := enc.Encode(0, [][]byte{[]byte("x")})
		rd.Input(run, 0, 1, 0, shards[0])
	}
	if len(rd.decoders) > runWindow+1 {
		t.Fatalf("expected old runs to be evicted, decoder map has %d entries", len(rd.decoders))
	}
	if rd.TotalCount == 0 {
		t.Fatal("expected evicted runs to contribute to TotalCount")
	}
}
