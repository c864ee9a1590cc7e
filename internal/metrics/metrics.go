package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Failure kinds used as the "kind" label of FailuresTotal.
const (
	KindDevice        = "device"
	KindNoAudio       = "no_audio"
	KindPersist       = "persist"
	KindTranscription = "transcription"
	KindEmptyText     = "empty_text"
	KindClipboard     = "clipboard"
)

// Metrics contains all Prometheus metrics for voiceclip
type Metrics struct {
	Registry *prometheus.Registry

	SessionsStarted   prometheus.Counter
	SessionsCompleted prometheus.Counter
	SessionsCancelled prometheus.Counter
	FailuresTotal     *prometheus.CounterVec
	TogglesRejected   prometheus.Counter
	FramesDropped     prometheus.Counter

	RecordingDuration     prometheus.Histogram
	TranscriptionDuration prometheus.Histogram
}

// New creates all metrics on a private registry, so tests and multiple
// instances never collide on the global one.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		SessionsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "voiceclip_sessions_started_total",
			Help: "Total number of recording sessions started",
		}),
		SessionsCompleted: f.NewCounter(prometheus.CounterOpts{
			Name: "voiceclip_sessions_completed_total",
			Help: "Total number of sessions whose transcript reached the clipboard",
		}),
		SessionsCancelled: f.NewCounter(prometheus.CounterOpts{
			Name: "voiceclip_sessions_cancelled_total",
			Help: "Total number of recordings discarded by cancel",
		}),
		FailuresTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voiceclip_failures_total",
			Help: "Total number of session failures by kind",
		}, []string{"kind"}),
		TogglesRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "voiceclip_toggles_rejected_total",
			Help: "Total number of toggles rejected while busy",
		}),
		FramesDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "voiceclip_frames_dropped_total",
			Help: "Total number of audio frames dropped past the recording cap",
		}),
		RecordingDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "voiceclip_recording_duration_seconds",
			Help:    "Length of recorded audio in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~4 minutes
		}),
		TranscriptionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "voiceclip_transcription_duration_seconds",
			Help:    "Time spent in the transcription backend",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~50s
		}),
	}
}

// Failure counts one failure of the given kind.
func (m *Metrics) Failure(kind string) {
	m.FailuresTotal.WithLabelValues(kind).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Serve listens on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
