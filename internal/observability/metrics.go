package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/binaragam/storefront/internal/apiclient"
	jobmetrics "github.com/binaragam/storefront/internal/jobs"
)

// Metrics mengumpulkan metrik Prometheus untuk aplikasi.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	backendTotal    *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	jobs            *jobmetrics.Metrics
}

// NewMetrics menginisialisasi registry dan metrik dasar.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_http_requests_total",
		Help: "Jumlah permintaan HTTP berdasarkan route dan status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_http_request_duration_seconds",
		Help:    "Durasi permintaan HTTP per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	backend := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_backend_requests_total",
		Help: "Jumlah panggilan ke backend REST berdasarkan endpoint dan status.",
	}, []string{"method", "endpoint", "status"})
	backendDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_backend_request_duration_seconds",
		Help:    "Durasi panggilan ke backend REST per endpoint.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})
	registry.MustRegister(requests, duration, backend, backendDuration)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		backendTotal:    backend,
		backendDuration: backendDuration,
		jobs:            jobmetrics.NewMetrics(registry),
	}
}

// Handler mengembalikan http.Handler untuk endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware mencatat metrik untuk setiap permintaan HTTP.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveBackend mencatat satu panggilan ke backend. Dipasang pada apiclient.
func (m *Metrics) ObserveBackend(method, endpoint string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.backendTotal.WithLabelValues(method, endpoint, apiclient.StatusText(status)).Inc()
	m.backendDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
}

// TrackWorkspaces mengekspos jumlah workspace pengunjung yang aktif.
func (m *Metrics) TrackWorkspaces(count func() int) {
	if m == nil || count == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "storefront_workspaces",
		Help: "Jumlah workspace pengunjung yang sedang disimpan di memori.",
	}, func() float64 { return float64(count()) }))
}

// Jobs mengembalikan metrik job yang terdaftar pada registry yang sama.
func (m *Metrics) Jobs() *jobmetrics.Metrics {
	if m == nil {
		return nil
	}
	return m.jobs
}

// Registerer mengekspos registry untuk pendaftaran metrik khusus.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
