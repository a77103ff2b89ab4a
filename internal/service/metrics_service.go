package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the API and
// the workflow engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	transitionsTotal     *prometheus.CounterVec
	transitionConflicts  prometheus.Counter
	notificationsEmitted prometheus.Counter
	notificationsDropped prometheus.Counter
	assignmentEvents     *prometheus.CounterVec
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

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	transitionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "idea_transitions_total",
		Help: "Total applied idea status transitions by target status",
	}, []string{"target"})

	transitionConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "idea_transition_conflicts_total",
		Help: "Transitions rejected because the idea changed concurrently",
	})

	notificationsEmitted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_emitted_total",
		Help: "Notifications enqueued for delivery",
	})

	notificationsDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_dropped_total",
		Help: "Notifications dropped because the queue was unavailable",
	})

	assignmentEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mentor_assignment_events_total",
		Help: "Mentor assignment lifecycle events",
	}, []string{"event"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheHits, cacheMisses,
		transitionsTotal, transitionConflicts, notificationsEmitted, notificationsDropped,
		assignmentEvents, goroutines)

	return &MetricsService{
		registry:             registry,
		handler:              promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:      requestDuration,
		requestTotal:         requestTotal,
		cacheHits:            cacheHits,
		cacheMisses:          cacheMisses,
		transitionsTotal:     transitionsTotal,
		transitionConflicts:  transitionConflicts,
		notificationsEmitted: notificationsEmitted,
		notificationsDropped: notificationsDropped,
		assignmentEvents:     assignmentEvents,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss counters.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveTransition counts an applied status transition.
func (m *MetricsService) ObserveTransition(target models.IdeaStatus) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(string(target)).Inc()
}

// ObserveTransitionConflict counts a transition lost to a concurrent writer.
func (m *MetricsService) ObserveTransitionConflict() {
	if m == nil {
		return
	}
	m.transitionConflicts.Inc()
}

// ObserveNotificationEmitted counts a notification accepted by the queue.
func (m *MetricsService) ObserveNotificationEmitted() {
	if m == nil {
		return
	}
	m.notificationsEmitted.Inc()
}

// ObserveNotificationDropped counts a notification lost at enqueue time.
func (m *MetricsService) ObserveNotificationDropped() {
	if m == nil {
		return
	}
	m.notificationsDropped.Inc()
}

// ObserveAssignmentEvent counts a mentor assignment lifecycle event.
func (m *MetricsService) ObserveAssignmentEvent(event string) {
	if m == nil {
		return
	}
	m.assignmentEvents.WithLabelValues(event).Inc()
}
