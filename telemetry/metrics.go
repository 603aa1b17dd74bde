// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	MessagesMirrored   prometheus.Counter
	MirrorPostFailures prometheus.Counter
	MirrorDeletes      prometheus.Counter
	MirrorBulkDeleted  prometheus.Counter
	MirrorDeleteErrors prometheus.Counter
	ActionsInvoked     *prometheus.CounterVec
	ActionFailures     *prometheus.CounterVec
	FormsExpired       prometheus.Counter
	BackendReconnects  prometheus.Counter

	// Histograms (seconds)
	PostDuration prometheus.Observer

	// Gauges
	RegistrySizeGauge prometheus.Gauge
	BackendUpGauge    prometheus.Gauge // 1=connected,0=disconnected
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		MessagesMirrored = promauto.NewCounter(prometheus.CounterOpts{Name: "mirror_messages_posted_total", Help: "Number of chat messages mirrored to the channel"})
		MirrorPostFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "mirror_post_failures_total", Help: "Number of mirror posts that failed"})
		MirrorDeletes = promauto.NewCounter(prometheus.CounterOpts{Name: "mirror_deletes_total", Help: "Number of single mirrored messages deleted"})
		MirrorBulkDeleted = promauto.NewCounter(prometheus.CounterOpts{Name: "mirror_bulk_deleted_total", Help: "Number of mirrored messages removed via bulk delete"})
		MirrorDeleteErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "mirror_delete_failures_total", Help: "Number of delete or bulk-delete calls that failed"})
		ActionsInvoked = promauto.NewCounterVec(prometheus.CounterOpts{Name: "moderation_actions_invoked_total", Help: "Number of backend actions invoked"}, []string{"action"})
		ActionFailures = promauto.NewCounterVec(prometheus.CounterOpts{Name: "moderation_action_failures_total", Help: "Number of backend action invocations that failed"}, []string{"action"})
		FormsExpired = promauto.NewCounter(prometheus.CounterOpts{Name: "moderation_forms_expired_total", Help: "Number of moderation forms abandoned past their response window"})
		BackendReconnects = promauto.NewCounter(prometheus.CounterOpts{Name: "backend_reconnects_total", Help: "Number of reconnect attempts to the Streamer.bot server"})
		PostDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "mirror_post_duration_seconds", Help: "Mirror post duration seconds", Buckets: prometheus.DefBuckets})
		RegistrySizeGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "mirror_registry_size", Help: "Current number of live mirrored messages"})
		BackendUpGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "backend_connected", Help: "Streamer.bot connection up=1 down=0"})
	})
}

// CountMirrorPost records one successful mirror post.
func CountMirrorPost() {
	if MessagesMirrored != nil {
		MessagesMirrored.Inc()
	}
}

// CountMirrorPostFailure records one failed mirror post.
func CountMirrorPostFailure() {
	if MirrorPostFailures != nil {
		MirrorPostFailures.Inc()
	}
}

// CountMirrorDelete records one successful single-message delete.
func CountMirrorDelete() {
	if MirrorDeletes != nil {
		MirrorDeletes.Inc()
	}
}

// CountMirrorBulkDelete records n messages removed in one bulk call.
func CountMirrorBulkDelete(n int) {
	if MirrorBulkDeleted != nil {
		MirrorBulkDeleted.Add(float64(n))
	}
}

// CountMirrorDeleteFailure records one failed delete or bulk-delete call.
func CountMirrorDeleteFailure() {
	if MirrorDeleteErrors != nil {
		MirrorDeleteErrors.Inc()
	}
}

// CountAction records one backend action invocation outcome by kind.
func CountAction(kind string, ok bool) {
	if ok {
		if ActionsInvoked != nil {
			ActionsInvoked.WithLabelValues(kind).Inc()
		}
		return
	}
	if ActionFailures != nil {
		ActionFailures.WithLabelValues(kind).Inc()
	}
}

// CountFormExpired records one abandoned moderation form.
func CountFormExpired() {
	if FormsExpired != nil {
		FormsExpired.Inc()
	}
}

// CountBackendReconnect records one reconnect attempt to the backend.
func CountBackendReconnect() {
	if BackendReconnects != nil {
		BackendReconnects.Inc()
	}
}

// SetRegistrySize records the current number of live mirrored messages.
func SetRegistrySize(n int) {
	if RegistrySizeGauge != nil {
		RegistrySizeGauge.Set(float64(n))
	}
}

// SetBackendUp sets gauge to 1 if connected else 0.
func SetBackendUp(up bool) {
	if BackendUpGauge != nil {
		if up {
			BackendUpGauge.Set(1)
		} else {
			BackendUpGauge.Set(0)
		}
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
