package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nullbound/obscura-client/internal/metrics"
)

func startMetricsLogger(ctx context.Context, interval time.Duration, l *slog.Logger, wg *sync.WaitGroup) {
	if interval <= 0 {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				snap := metrics.Snap()
				l.Info("metrics_snapshot",
					"frames_sent", snap.FramesSent,
					"frames_recv", snap.FramesRecv,
					"frames_replayed", snap.FramesReplayed,
					"send_buffer_drops", snap.SendBufferDrops,
					"fec_shards_encoded", snap.ShardsEncoded,
					"fec_shards_recovered", snap.ShardsRecovered,
					"handshake_retries", snap.HandshakeRetries,
					"shard_rebinds", snap.ShardRebinds,
					"session_restarts", snap.SessionRestarts,
					"errors", snap.Errors,
				)
			case <-ctx.Done():
				return
			}
		}
	}()
}
