package session

import (
	"time"

	"github.com/nullbound/obscura-client/internal/fec"
	"github.com/nullbound/obscura-client/internal/loss"
	"github.com/nullbound/obscura-client/internal/metrics"
	"github.com/nullbound/obscura-client/internal/replay"
)

// recvLoop owns all downstream state: the replay filter, the loss
// calculator, the FEC run decoder and the recent-seqnos ring used for
// stats. Because a single goroutine owns all of it, no locking is needed
// to answer stat requests consistently — unlike a design that runs the
// frame-processing and stats-serving loops concurrently.
func (s *Session) recvLoop() {
	defer s.wg.Done()
	defer close(s.recvInput)

	rpFilter := replay.New(0)
	lossCalc := loss.New()
	runDecoder := fec.NewRunDecoder()
	var recentSeqnos []SeqnoSample

	for {
		select {
		case frame, ok := <-s.cfg.RecvFrame:
			if !ok {
				return
			}
			if !rpFilter.Add(frame.FrameNo) {
				metrics.IncFramesReplayed()
				continue
			}
			metrics.IncFramesRecv()

			recentSeqnos = append(recentSeqnos, SeqnoSample{At: time.Now(), FrameNo: frame.FrameNo})
			if len(recentSeqnos) > recentSeqnosCap {
				recentSeqnos = recentSeqnos[1:]
			}

			lossCalc.Update(frame.HighRecvFrameNo, frame.TotalRecvFrames)
			s.measuredLoss.Store(uint32(loss.ToByte(lossCalc.Estimate())))
			metrics.SetMeasuredLoss(lossCalc.Estimate())
			fetchMaxU64(&s.highRecvFrameNo, frame.FrameNo)
			s.totalRecvFrames.Add(1)

			payloads, ok := runDecoder.Input(frame.RunNo, frame.RunIdx, frame.DataShards, frame.ParityShards, frame.Body)
			if !ok {
				continue
			}
			for _, payload := range payloads {
				select {
				case s.recvInput <- payload:
				case <-s.ctx.Done():
					return
				}
			}

		case reply := <-s.statReq:
			reply <- s.snapshotStats(runDecoder, recentSeqnos)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Session) snapshotStats(rd *fec.RunDecoder, recentSeqnos []SeqnoSample) Stats {
	totalRecv := s.totalRecvFrames.Load()
	// Frame numbers start at 0, so the peer has sent highRecvFrameNo+1
	// frames once any frame has arrived.
	downTotal := uint64(0)
	if totalRecv > 0 {
		downTotal = s.highRecvFrameNo.Load() + 1
	}

	downLoss := 0.0
	if downTotal > 0 {
		ratio := float64(totalRecv) / float64(downTotal)
		if ratio > 1 {
			ratio = 1
		}
		downLoss = 1 - ratio
	}

	downRecoveredLoss := 0.0
	if rd.TotalCount > 0 {
		ratio := float64(rd.CorrectCount) / float64(rd.TotalCount)
		if ratio > 1 {
			ratio = 1
		}
		downRecoveredLoss = 1 - ratio
	}

	downRedundant := 0.0
	if rd.TotalDataShards > 0 {
		downRedundant = float64(rd.TotalParityShards) / float64(rd.TotalDataShards)
	}

	seqnosCopy := make([]SeqnoSample, len(recentSeqnos))
	copy(seqnosCopy, recentSeqnos)

	return Stats{
		DownTotal:         downTotal,
		DownLoss:          downLoss,
		DownRecoveredLoss: downRecoveredLoss,
		DownRedundant:     downRedundant,
		RecentSeqnos:      seqnosCopy,
	}
}
