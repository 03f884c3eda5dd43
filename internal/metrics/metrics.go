package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/nullbound/obscura-client/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus counters
var (
	FramesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_frames_sent_total",
		Help: "Total data frames (shards) sent upstream.",
	})
	FramesRecv = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_frames_recv_total",
		Help: "Total data frames (shards) received downstream.",
	})
	FramesReplayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_frames_replayed_total",
		Help: "Total downstream frames rejected by the replay filter.",
	})
	SendBufferDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_send_buffer_dropped_total",
		Help: "Total application writes dropped because the send buffer was full.",
	})
	ShardsEncoded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fec_shards_encoded_total",
		Help: "Total FEC shards (data + parity) produced by the encoder.",
	})
	ShardsRecovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fec_shards_recovered_total",
		Help: "Total data shards reconstructed from parity rather than received directly.",
	})
	MeasuredLoss = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "session_measured_loss_ratio",
		Help: "Most recent downstream loss estimate, in [0, 1].",
	})
	HandshakeAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "handshake_attempts_total",
		Help: "Total handshake hello messages sent.",
	})
	HandshakeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "handshake_failures_total",
		Help: "Total handshake failures by reason.",
	}, []string{"reason"})
	ShardRebinds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backhaul_shard_rebinds_total",
		Help: "Total times a backhaul shard rebound to a fresh local UDP socket.",
	})
	WatchdogTrips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "keepalive_watchdog_trips_total",
		Help: "Total keepalive watchdog-triggered session restarts.",
	})
	SessionRestarts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "keepalive_session_restarts_total",
		Help: "Total keepalive actor restarts (any cause).",
	})
	AuthFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "keepalive_auth_failures_total",
		Help: "Total session authentication failures.",
	})
	ActiveStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mux_active_streams",
		Help: "Current number of open reliable multiplexed streams.",
	})
	ExitDescriptor = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "keepalive_exit_selected",
		Help: "Always 1; labeled with the currently selected exit hostname.",
	}, []string{"hostname"})
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Build metadata (value is always 1).",
	}, []string{"version", "commit", "date"})
	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "errors_total",
		Help: "Error counters by subsystem.",
	}, []string{"where"})
	EventSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "keepalive_event_subscribers",
		Help: "Current number of subscribers to the keepalive session-event broadcast.",
	})
	EventDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "keepalive_event_drops_total",
		Help: "Total session events dropped because a subscriber's buffer was full.",
	})

	readinessMu sync.RWMutex
	readinessFn func() bool
)

// Error label constants (stable label values to bound cardinality).
const (
	ErrHandshake     = "handshake"
	ErrShardSend     = "shard_send"
	ErrShardRecv     = "shard_recv"
	ErrShardRebind   = "shard_rebind"
	ErrMuxOpen       = "mux_open"
	ErrMuxAccept     = "mux_accept"
	ErrAuth          = "auth"
	ErrCacheExits    = "cache_exits"
	ErrCacheBridges  = "cache_bridges"
	ErrWatchdog      = "watchdog"
	ErrDispatchTimed = "dispatch_timeout"
)

// StartHTTP serves Prometheus metrics at /metrics, plus a /ready endpoint
// driven by the registered readiness function.
func StartHTTP(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if IsReady() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready\n"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready\n"))
	})

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	go func() {
		logging.L().Info("metrics_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("metrics_http_error", "error", err)
		}
	}()
	return srv
}

// Local mirrored counters for easy logging (avoid Prometheus scraping in-process).
var (
	localFramesSent       uint64
	localFramesRecv       uint64
	localFramesReplayed   uint64
	localSendBufferDrops  uint64
	localShardsEncoded    uint64
	localShardsRecovered  uint64
	localErrors           uint64
	localHandshakeRetries uint64
	localShardRebinds     uint64
	localSessionRestarts  uint64
)

// Snapshot is a cheap copy of local counters, suitable for periodic
// structured-log summaries without touching the Prometheus registry.
type Snapshot struct {
	FramesSent       uint64
	FramesRecv       uint64
	FramesReplayed   uint64
	SendBufferDrops  uint64
	ShardsEncoded    uint64
	ShardsRecovered  uint64
	Errors           uint64
	HandshakeRetries uint64
	ShardRebinds     uint64
	SessionRestarts  uint64
}

func Snap() Snapshot {
	return Snapshot{
		FramesSent:       atomic.LoadUint64(&localFramesSent),
		FramesRecv:       atomic.LoadUint64(&localFramesRecv),
		FramesReplayed:   atomic.LoadUint64(&localFramesReplayed),
		SendBufferDrops:  atomic.LoadUint64(&localSendBufferDrops),
		ShardsEncoded:    atomic.LoadUint64(&localShardsEncoded),
		ShardsRecovered:  atomic.LoadUint64(&localShardsRecovered),
		Errors:           atomic.LoadUint64(&localErrors),
		HandshakeRetries: atomic.LoadUint64(&localHandshakeRetries),
		ShardRebinds:     atomic.LoadUint64(&localShardRebinds),
		SessionRestarts:  atomic.LoadUint64(&localSessionRestarts),
	}
}

func IncFramesSent() {
	FramesSent.Inc()
	atomic.AddUint64(&localFramesSent, 1)
}

func IncFramesRecv() {
	FramesRecv.Inc()
	atomic.AddUint64(&localFramesRecv, 1)
}

func IncFramesReplayed() {
	FramesReplayed.Inc()
	atomic.AddUint64(&localFramesReplayed, 1)
}

func IncSendBufferDropped() {
	SendBufferDropped.Inc()
	atomic.AddUint64(&localSendBufferDrops, 1)
}

func AddShardsEncoded(n int) {
	ShardsEncoded.Add(float64(n))
	atomic.AddUint64(&localShardsEncoded, uint64(n))
}

func AddShardsRecovered(n int) {
	ShardsRecovered.Add(float64(n))
	atomic.AddUint64(&localShardsRecovered, uint64(n))
}

func SetMeasuredLoss(loss float64) {
	MeasuredLoss.Set(loss)
}

func IncHandshakeAttempt() {
	HandshakeAttempts.Inc()
	atomic.AddUint64(&localHandshakeRetries, 1)
}

func IncHandshakeFailure(reason string) {
	HandshakeFailures.WithLabelValues(reason).Inc()
}

func IncShardRebind() {
	ShardRebinds.Inc()
	atomic.AddUint64(&localShardRebinds, 1)
}

func IncWatchdogTrip() {
	WatchdogTrips.Inc()
}

func IncSessionRestart() {
	SessionRestarts.Inc()
	atomic.AddUint64(&localSessionRestarts, 1)
}

func IncAuthFailure() {
	AuthFailures.Inc()
}

func SetActiveStreams(n int) {
	ActiveStreams.Set(float64(n))
}

func SetExitDescriptor(hostname string) {
	ExitDescriptor.Reset()
	if hostname != "" {
		ExitDescriptor.WithLabelValues(hostname).Set(1)
	}
}

func IncError(label string) {
	Errors.WithLabelValues(label).Inc()
	atomic.AddUint64(&localErrors, 1)
}

func SetEventSubscribers(n int) {
	EventSubscribers.Set(float64(n))
}

func IncEventDrop() {
	EventDrops.Inc()
}

// InitBuildInfo sets the build info gauge (should be called once at
// startup) and pre-registers known error/failure label series so the
// first occurrence of each doesn't pay registration latency.
func InitBuildInfo(version, commit, date string) {
	BuildInfo.WithLabelValues(version, commit, date).Set(1)
	for _, lbl := range []string{
		ErrHandshake, ErrShardSend, ErrShardRecv, ErrShardRebind,
		ErrMuxOpen, ErrMuxAccept, ErrAuth, ErrCacheExits, ErrCacheBridges,
		ErrWatchdog, ErrDispatchTimed,
	} {
		Errors.WithLabelValues(lbl).Add(0)
	}
}

// SetReadinessFunc registers a function used by /ready and IsReady.
func SetReadinessFunc(fn func() bool) { readinessMu.Lock(); readinessFn = fn; readinessMu.Unlock() }

// IsReady invokes the registered readiness function if present.
func IsReady() bool {
	readinessMu.RLock()
	fn := readinessFn
	readinessMu.RUnlock()
	if fn == nil {
		return true
	}
	return fn()
}

// Ready is a concise alias used at call sites.
func Ready() bool { return IsReady() }
