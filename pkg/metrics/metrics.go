// Package metrics defines Hermes's optional Prometheus observability
// surface: one interface per component, each nil-safe so a caller that
// never enables metrics pays zero overhead.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mu       sync.Mutex
	registry *prometheus.Registry
)

// InitRegistry creates (or returns the existing) Prometheus registry that
// backs every metrics constructor in this package. Must be called before
// any NewXMetrics constructor for metrics to actually be collected.
func InitRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()

	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return registry != nil
}

// GetRegistry returns the active registry, or nil if metrics are disabled.
func GetRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()
	return registry
}

// Handler returns an http.Handler serving the registry in the Prometheus
// exposition format. Returns a 404 handler if metrics are disabled.
func Handler() http.Handler {
	reg := GetRegistry()
	if reg == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// IOEngineMetrics observes pkg/ioengine's read/write path. Pass nil to
// disable collection with zero overhead.
type IOEngineMetrics interface {
	// ObserveWrite records a completed placement write.
	ObserveWrite(bytes int, duration time.Duration)

	// ObserveRead records a completed placement read.
	ObserveRead(bytes int, duration time.Duration)

	// ObserveGapRead records a gap read issued against the backend.
	ObserveGapRead(bytes int, duration time.Duration)

	// RecordCapacityFallback records a write that fell through to the
	// backend because the blob store was full.
	RecordCapacityFallback()
}

type ioEngineMetrics struct {
	writeBytes      prometheus.Counter
	writeDuration   prometheus.Histogram
	readBytes       prometheus.Counter
	readDuration    prometheus.Histogram
	gapReadBytes    prometheus.Counter
	gapReadDuration prometheus.Histogram
	capacityFallback prometheus.Counter
}

// NewIOEngineMetrics returns a Prometheus-backed IOEngineMetrics, or nil if
// metrics are not enabled.
func NewIOEngineMetrics() IOEngineMetrics {
	reg := GetRegistry()
	if reg == nil {
		return (*ioEngineMetrics)(nil)
	}

	return &ioEngineMetrics{
		writeBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "hermes_ioengine_write_bytes_total",
			Help: "Total bytes written through the I/O engine.",
		}),
		writeDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name: "hermes_ioengine_write_duration_seconds",
			Help: "Write latency per placement.",
		}),
		readBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "hermes_ioengine_read_bytes_total",
			Help: "Total bytes read through the I/O engine.",
		}),
		readDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name: "hermes_ioengine_read_duration_seconds",
			Help: "Read latency per placement.",
		}),
		gapReadBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "hermes_ioengine_gap_read_bytes_total",
			Help: "Total bytes read from the backend to fill gaps.",
		}),
		gapReadDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name: "hermes_ioengine_gap_read_duration_seconds",
			Help: "Gap read latency against the backend.",
		}),
		capacityFallback: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "hermes_ioengine_capacity_fallback_total",
			Help: "Writes that fell through to the backend due to a full blob store.",
		}),
	}
}

func (m *ioEngineMetrics) ObserveWrite(bytes int, duration time.Duration) {
	if m == nil {
		return
	}
	m.writeBytes.Add(float64(bytes))
	m.writeDuration.Observe(duration.Seconds())
}

func (m *ioEngineMetrics) ObserveRead(bytes int, duration time.Duration) {
	if m == nil {
		return
	}
	m.readBytes.Add(float64(bytes))
	m.readDuration.Observe(duration.Seconds())
}

func (m *ioEngineMetrics) ObserveGapRead(bytes int, duration time.Duration) {
	if m == nil {
		return
	}
	m.gapReadBytes.Add(float64(bytes))
	m.gapReadDuration.Observe(duration.Seconds())
}

func (m *ioEngineMetrics) RecordCapacityFallback() {
	if m == nil {
		return
	}
	m.capacityFallback.Inc()
}

// FlusherMetrics observes pkg/flusher's destage pipeline.
type FlusherMetrics interface {
	// ObserveFlush records a completed bucket flush.
	ObserveFlush(bucketID uint64, blobCount int, duration time.Duration)

	// RecordFlushError records a flush that failed partway through.
	RecordFlushError(bucketID uint64)
}

type flusherMetrics struct {
	flushDuration *prometheus.HistogramVec
	blobsFlushed  prometheus.Counter
	flushErrors   prometheus.Counter
}

// NewFlusherMetrics returns a Prometheus-backed FlusherMetrics, or nil if
// metrics are not enabled.
func NewFlusherMetrics() FlusherMetrics {
	reg := GetRegistry()
	if reg == nil {
		return (*flusherMetrics)(nil)
	}

	return &flusherMetrics{
		flushDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "hermes_flusher_flush_duration_seconds",
				Help: "Time to drain a bucket's dirty blobs to the backend.",
			},
			[]string{"bucket_id"},
		),
		blobsFlushed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "hermes_flusher_blobs_flushed_total",
			Help: "Total blobs written back to the backend.",
		}),
		flushErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "hermes_flusher_errors_total",
			Help: "Total flush attempts that failed partway through.",
		}),
	}
}

func (m *flusherMetrics) ObserveFlush(bucketID uint64, blobCount int, duration time.Duration) {
	if m == nil {
		return
	}
	m.flushDuration.WithLabelValues(bucketIDLabel(bucketID)).Observe(duration.Seconds())
	m.blobsFlushed.Add(float64(blobCount))
}

func (m *flusherMetrics) RecordFlushError(bucketID uint64) {
	if m == nil {
		return
	}
	m.flushErrors.Inc()
}

// BlobStoreMetrics observes pkg/blobstore's capacity pressure.
type BlobStoreMetrics interface {
	// SetResidentBytes reports the blob store's current total size.
	SetResidentBytes(bytes uint64)
}

type blobStoreMetrics struct {
	residentBytes prometheus.Gauge
}

// NewBlobStoreMetrics returns a Prometheus-backed BlobStoreMetrics, or nil
// if metrics are not enabled.
func NewBlobStoreMetrics() BlobStoreMetrics {
	reg := GetRegistry()
	if reg == nil {
		return (*blobStoreMetrics)(nil)
	}

	return &blobStoreMetrics{
		residentBytes: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "hermes_blobstore_resident_bytes",
			Help: "Total bytes currently resident in the blob store.",
		}),
	}
}

func (m *blobStoreMetrics) SetResidentBytes(bytes uint64) {
	if m == nil {
		return
	}
	m.residentBytes.Set(float64(bytes))
}

func bucketIDLabel(id uint64) string {
	return strconv.FormatUint(id, 10)
}
