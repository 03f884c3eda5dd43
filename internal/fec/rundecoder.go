package fec

// runWindow bounds how many in-flight runs a RunDecoder keeps state for;
// a run older than this relative to the newest one seen is assumed lost
// and its accounting is folded into the running totals.
const runWindow = 10

// RunDecoder is a reordering-resistant FEC reconstructor: it keeps a
// sliding window of per-run FrameDecoders so that batches ("runs") can be
// reassembled even when their shards arrive interleaved with, or behind,
// shards from later runs.
type RunDecoder struct {
	topRun    uint64
	bottomRun uint64
	decoders  map[uint64]*FrameDecoder

	TotalCount   uint64
	CorrectCount uint64

	TotalDataShards   uint64
	TotalParityShards uint64
}

// NewRunDecoder creates an empty RunDecoder.
func NewRunDecoder() *RunDecoder {
	return &RunDecoder{decoders: make(map[uint64]*FrameDecoder)}
}

// Input feeds one shard of a run. It returns the reconstructed payloads
// for that run the moment it becomes decodable.
func (r *RunDecoder) Input(runNo uint64, runIdx, dataShards, parityShards uint8, body []byte) ([][]byte, bool) {
	if runNo < r.bottomRun {
		return nil, false
	}
	if runNo > r.topRun {
		r.topRun = runNo
		for r.topRun-r.bottomRun > runWindow {
			if dec, ok := r.decoders[r.bottomRun]; ok {
				r.TotalCount += uint64(dec.GoodPkts() + dec.LostPkts())
				r.CorrectCount += uint64(dec.GoodPkts())
				delete(r.decoders, r.bottomRun)
			}
			r.bottomRun++
		}
	}

	dec, ok := r.decoders[runNo]
	if !ok {
		dec = NewFrameDecoder(int(dataShards), int(parityShards))
		r.decoders[runNo] = dec
	}
	if int(runIdx) < int(dataShards) {
		r.TotalDataShards++
	} else {
		r.TotalParityShards++
	}
	return dec.Decode(body, int(runIdx))
}
