package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	uploadsTotal           *prometheus.CounterVec
	batchRunsRequested     *prometheus.CounterVec
	reportDownloadsTotal   *prometheus.CounterVec
	uploadPayloadBytes     *prometheus.HistogramVec
	backpressureRejected   *prometheus.CounterVec
	rateLimitRejectedTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "receipts",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "receipts",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "receipts",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	uploadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "receipts",
			Subsystem: "ingest",
			Name:      "uploads_total",
			Help:      "Total receipt uploads by result.",
		},
		[]string{"service", "result"},
	)
	batchRunsRequested := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "receipts",
			Subsystem: "ingest",
			Name:      "batch_runs_requested_total",
			Help:      "Total batch processing requests accepted by the API.",
		},
		[]string{"service"},
	)
	reportDownloadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "receipts",
			Subsystem: "report",
			Name:      "downloads_total",
			Help:      "Total batch report downloads by format.",
		},
		[]string{"service", "format"},
	)
	uploadPayloadBytes := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "receipts",
			Subsystem: "ingest",
			Name:      "upload_payload_bytes",
			Help:      "Distribution of uploaded receipt sizes in bytes.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		},
		[]string{"service"},
	)
	backpressureRejected := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "receipts",
			Subsystem: "http",
			Name:      "backpressure_rejected_total",
			Help:      "Requests rejected because the in-flight limit was reached.",
		},
		[]string{"service"},
	)
	rateLimitRejectedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "receipts",
			Subsystem: "http",
			Name:      "rate_limit_rejected_total",
			Help:      "Requests rejected by the rate limiter.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		uploadsTotal,
		batchRunsRequested,
		reportDownloadsTotal,
		uploadPayloadBytes,
		backpressureRejected,
		rateLimitRejectedTotal,
	)

	return &HTTPServerMetrics{
		registry:               registry,
		requestTotal:           requestTotal,
		requestDuration:        requestDuration,
		requestInFlight:        requestInFlight,
		uploadsTotal:           uploadsTotal,
		batchRunsRequested:     batchRunsRequested,
		reportDownloadsTotal:   reportDownloadsTotal,
		uploadPayloadBytes:     uploadPayloadBytes,
		backpressureRejected:   backpressureRejected,
		rateLimitRejectedTotal: rateLimitRejectedTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses resource IDs so the path label stays bounded.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/receipts/"):
		return "/v1/receipts/{receipt_id}"
	case strings.HasPrefix(path, "/v1/batches/"):
		rest := strings.TrimPrefix(path, "/v1/batches/")
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			return "/v1/batches/{batch_id}" + rest[i:]
		}
		return "/v1/batches/{batch_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordUpload(service, result string, sizeBytes int64) {
	if result == "" {
		result = "unknown"
	}
	m.uploadsTotal.WithLabelValues(service, result).Inc()
	if sizeBytes > 0 {
		m.uploadPayloadBytes.WithLabelValues(service).Observe(float64(sizeBytes))
	}
}

func (m *HTTPServerMetrics) RecordBatchRunRequested(service string) {
	m.batchRunsRequested.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordReportDownload(service, format string) {
	if format == "" {
		format = "unknown"
	}
	m.reportDownloadsTotal.WithLabelValues(service, format).Inc()
}

func (m *HTTPServerMetrics) RecordBackpressureRejection(service string) {
	m.backpressureRejected.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordRateLimitRejection(service string) {
	m.rateLimitRejectedTotal.WithLabelValues(service).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
