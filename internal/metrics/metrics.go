package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for capture and transcription.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	CapturesStarted prometheus.Counter
	ChunksCaptured  prometheus.Counter
	ChunksDropped   prometheus.Counter
	DeviceErrors    *prometheus.CounterVec
	RecordingLength prometheus.Histogram

	Transcriptions   *prometheus.CounterVec
	PipelineDuration prometheus.Histogram
	Insertions       *prometheus.CounterVec
}

// New creates all collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CapturesStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "voicestream_captures_started_total",
			Help: "Total number of recordings started",
		}),
		ChunksCaptured: f.NewCounter(prometheus.CounterOpts{
			Name: "voicestream_chunks_captured_total",
			Help: "Total number of audio chunks appended to a frame log",
		}),
		ChunksDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "voicestream_chunks_dropped_total",
			Help: "Total number of audio chunks discarded after a stop signal",
		}),
		DeviceErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voicestream_device_errors_total",
			Help: "Audio device failures by operation",
		}, []string{"op"}),
		RecordingLength: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicestream_recording_seconds",
			Help:    "Length of captured audio per recording",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
		}),
		Transcriptions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voicestream_transcriptions_total",
			Help: "Transcription attempts by outcome",
		}, []string{"outcome"}),
		PipelineDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicestream_pipeline_seconds",
			Help:    "Time from stop trigger to text insertion",
			Buckets: prometheus.DefBuckets,
		}),
		Insertions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voicestream_insertions_total",
			Help: "Text insertions by outcome",
		}, []string{"outcome"}),
	}
}

// CaptureStarted counts a recording that opened the device.
func (m *Metrics) CaptureStarted() {
	if m != nil {
		m.CapturesStarted.Inc()
	}
}

// ChunkCaptured counts a chunk appended to the frame log.
func (m *Metrics) ChunkCaptured() {
	if m != nil {
		m.ChunksCaptured.Inc()
	}
}

// ChunkDropped counts n chunks discarded after a stop signal.
func (m *Metrics) ChunkDropped(n int) {
	if m != nil && n > 0 {
		m.ChunksDropped.Add(float64(n))
	}
}

// DeviceError counts a device failure for op ("open" or "read").
func (m *Metrics) DeviceError(op string) {
	if m != nil {
		m.DeviceErrors.WithLabelValues(op).Inc()
	}
}

// Recorded observes the length of captured audio.
func (m *Metrics) Recorded(d time.Duration) {
	if m != nil {
		m.RecordingLength.Observe(d.Seconds())
	}
}

// Transcribed counts a transcription attempt by outcome.
func (m *Metrics) Transcribed(outcome string) {
	if m != nil {
		m.Transcriptions.WithLabelValues(outcome).Inc()
	}
}

// PipelineDone observes the time from stop trigger to the end of insertion.
func (m *Metrics) PipelineDone(d time.Duration) {
	if m != nil {
		m.PipelineDuration.Observe(d.Seconds())
	}
}

// Inserted counts a text insertion by outcome.
func (m *Metrics) Inserted(outcome string) {
	if m != nil {
		m.Insertions.WithLabelValues(outcome).Inc()
	}
}

// Serve exposes reg on addr under /metrics until ctx is done.
func Serve(ctx context.Context, addr string, reg *prometheus.Registry, log *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics listening", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
