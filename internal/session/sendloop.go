package session

import (
	"time"

	"github.com/nullbound/obscura-client/internal/fec"
	"github.com/nullbound/obscura-client/internal/metrics"
	"github.com/nullbound/obscura-client/internal/wire"
)

// sendLoop accumulates application writes into batches (bounded by
// cfg.Latency or maxBatchItems, whichever comes first), FEC-encodes each
// batch as one "run", and hands the resulting shards to cfg.SendFrame.
func (s *Session) sendLoop() {
	defer s.wg.Done()
	encoder := fec.NewFrameEncoder(s.cfg.TargetLoss)
	var frameNo, runNo uint64
	batch := make([][]byte, 0, maxBatchItems)

	for {
		batch = batch[:0]
		select {
		case b := <-s.toSend:
			batch = append(batch, b)
		case <-s.ctx.Done():
			return
		}

		timer := time.NewTimer(s.cfg.Latency)
	collect:
		for len(batch) < maxBatchItems {
			select {
			case b := <-s.toSend:
				batch = append(batch, b)
			case <-timer.C:
				break collect
			case <-s.ctx.Done():
				timer.Stop()
				return
			}
		}
		timer.Stop()

		shards, err := encoder.Encode(byte(s.measuredLoss.Load()), batch)
		if err != nil {
			s.logger.Warn("session_fec_encode_error", "error", err)
			continue
		}
		metrics.AddShardsEncoded(len(shards))

		for idx, body := range shards {
			df := wire.DataFrame{
				FrameNo:         frameNo,
				RunNo:           runNo,
				RunIdx:          uint8(idx),
				DataShards:      uint8(len(batch)),
				ParityShards:    uint8(len(shards) - len(batch)),
				HighRecvFrameNo: s.highRecvFrameNo.Load(),
				TotalRecvFrames: s.totalRecvFrames.Load(),
				Body:            body,
			}
			if err := s.cfg.SendFrame(df); err != nil {
				s.logger.Debug("session_send_frame_error", "error", err, "frame_no", frameNo)
			} else {
				metrics.IncFramesSent()
			}
			frameNo++
		}
		runNo++
	}
}
