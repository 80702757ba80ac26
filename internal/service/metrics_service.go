package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cesde/studentinfo-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and keeps simple
// aggregates for JSON snapshots.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	seatReserved    prometheus.Counter
	seatRejected    prometheus.Counter

	requestCount         uint64
	requestDurationTotal uint64
	seatReservedCount    uint64
	seatRejectedCount    uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	seatReserved := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "course_group_seats_reserved_total",
		Help: "Total number of seats successfully reserved in course groups",
	})

	seatRejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "course_group_seat_rejections_total",
		Help: "Total number of seat reservations rejected because the group was full",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, seatReserved, seatRejected, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		seatReserved:    seatReserved,
		seatRejected:    seatRejected,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records duration and count for a completed request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := prometheus.Labels{"method": method, "path": path, "status": fmt.Sprintf("%d", status)}
	s.requestDuration.With(labels).Observe(duration.Seconds())
	s.requestTotal.With(labels).Inc()
	atomic.AddUint64(&s.requestCount, 1)
	atomic.AddUint64(&s.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordSeatReservation counts a seat reservation attempt outcome.
func (s *MetricsService) RecordSeatReservation(success bool) {
	if success {
		s.seatReserved.Inc()
		atomic.AddUint64(&s.seatReservedCount, 1)
		return
	}
	s.seatRejected.Inc()
	atomic.AddUint64(&s.seatRejectedCount, 1)
}

// Snapshot returns the aggregated counters as a JSON-friendly struct.
func (s *MetricsService) Snapshot() models.SystemMetrics {
	requests := atomic.LoadUint64(&s.requestCount)
	reqDuration := atomic.LoadUint64(&s.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		SeatsReserved:            atomic.LoadUint64(&s.seatReservedCount),
		SeatRejections:           atomic.LoadUint64(&s.seatRejectedCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
