package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP surface
// and the allocation engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	allocationPasses prometheus.Counter
	grantedUnits     prometheus.Counter
	requestsMatched  prometheus.Counter
	shortageEvents   *prometheus.CounterVec
}

// NewMetricsService registers the collectors.
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

	allocationPasses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "allocation_passes_total",
		Help: "Total allocation passes executed",
	})

	grantedUnits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "allocation_granted_units_total",
		Help: "Total units of stock reserved for requests",
	})

	requestsMatched := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "requests_matched_total",
		Help: "Total requests promoted to Matched",
	})

	shortageEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shortage_events_total",
		Help: "Total shortage broadcasts fired",
	}, []string{"location"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, allocationPasses, grantedUnits, requestsMatched, shortageEvents, goroutines)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		allocationPasses: allocationPasses,
		grantedUnits:     grantedUnits,
		requestsMatched:  requestsMatched,
		shortageEvents:   shortageEvents,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := []string{method, path, strconv.Itoa(status)}
	m.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveAllocationPass records one pass of the matching engine.
func (m *MetricsService) ObserveAllocationPass(granted, matched int) {
	if m == nil {
		return
	}
	m.allocationPasses.Inc()
	m.grantedUnits.Add(float64(granted))
	m.requestsMatched.Add(float64(matched))
}

// ObserveShortageEvent records one shortage broadcast.
func (m *MetricsService) ObserveShortageEvent(location string) {
	if m == nil {
		return
	}
	m.shortageEvents.WithLabelValues(location).Inc()
}
