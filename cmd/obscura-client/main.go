package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nullbound/obscura-client/internal/keepalive"
	"github.com/nullbound/obscura-client/internal/metrics"
	"github.com/nullbound/obscura-client/internal/stats"
)

// shutdownTimeout bounds how long main waits for the keepalive actor's
// current body run to unwind on SIGINT/SIGTERM before giving up.
const shutdownTimeout = 5 * time.Second

// Helper implementations moved to dedicated files: version.go, config.go,
// logger.go, metrics_logger.go, cachefile.go.

func main() {
	cfg, showVersion := parseFlags()
	if showVersion {
		fmt.Printf("obscura-client %s (commit %s, built %s)\n", version, commit, date)
		return
	}
	if cfg == nil {
		os.Exit(1)
	}
	l := setupLogger(cfg.logFormat, cfg.logLevel)

	ccache, err := loadCacheFile(cfg.cacheFile)
	if err != nil {
		l.Error("cache_load_error", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup
	startMetricsLogger(ctx, cfg.logMetricsEvery, l, &wg)

	st := stats.New()
	k := keepalive.New(ctx, keepalive.Config{
		ExitServer: cfg.exit,
		UseBridges: cfg.useBridges,
		Cache:      ccache,
		Stats:      st,
		Logger:     l,
	})

	if cfg.metricsAddr != "" {
		metrics.InitBuildInfo(version, commit, date)
		srvHTTP := metrics.StartHTTP(cfg.metricsAddr)
		defer func() { _ = srvHTTP.Shutdown(context.Background()) }()
	}

	l.Info("obscura_client_started", "exit", cfg.exit, "use_bridges", cfg.useBridges)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigCh
	l.Info("shutdown_signal", "signal", s.String())
	cancel()

	sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer scancel()
	if err := k.Shutdown(sctx); err != nil {
		l.Warn("keepalive_shutdown_incomplete", "error", err)
	}
	wg.Wait()
}
