package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusHooks implements every hook interface on Prometheus collectors.
type PrometheusHooks struct {
	layouts     *prometheus.CounterVec
	layoutTime  *prometheus.HistogramVec
	elements    *prometheus.CounterVec
	transitions prometheus.Histogram
	renders     *prometheus.CounterVec
	renderTime  prometheus.Histogram
	cache       *prometheus.CounterVec
	cacheBytes  prometheus.Counter
}

// NewPrometheusHooks creates the collectors and registers them with reg.
func NewPrometheusHooks(reg prometheus.Registerer) *PrometheusHooks {
	h := &PrometheusHooks{
		layouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orgchart_layout_passes_total",
			Help: "Layout passes by triggering operation.",
		}, []string{"op"}),
		layoutTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orgchart_layout_duration_seconds",
			Help:    "Time spent in layout passes.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"op"}),
		elements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orgchart_reconciled_elements_total",
			Help: "Reconciled elements by partition.",
		}, []string{"partition"}),
		transitions: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "orgchart_transition_duration_seconds",
			Help:    "Wall time from transition start to completion.",
			Buckets: prometheus.LinearBuckets(0.25, 0.25, 8),
		}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orgchart_renders_total",
			Help: "Pipeline renders by outcome.",
		}, []string{"outcome"}),
		renderTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "orgchart_render_duration_seconds",
			Help:    "Time spent rendering artifacts.",
			Buckets: prometheus.DefBuckets,
		}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orgchart_cache_events_total",
			Help: "Cache hits, misses and writes by key type.",
		}, []string{"event", "type"}),
		cacheBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orgchart_cache_written_bytes_total",
			Help: "Bytes written to the artifact cache.",
		}),
	}
	reg.MustRegister(h.layouts, h.layoutTime, h.elements, h.transitions,
		h.renders, h.renderTime, h.cache, h.cacheBytes)
	return h
}

func (h *PrometheusHooks) OnLayout(op string, _ int, d time.Duration) {
	h.layouts.WithLabelValues(op).Inc()
	h.layoutTime.WithLabelValues(op).Observe(d.Seconds())
}

func (h *PrometheusHooks) OnReconcile(_ string, enter, update, exit int) {
	h.elements.WithLabelValues("enter").Add(float64(enter))
	h.elements.WithLabelValues("update").Add(float64(update))
	h.elements.WithLabelValues("exit").Add(float64(exit))
}

func (h *PrometheusHooks) OnTransitionComplete(_ int, d time.Duration) {
	h.transitions.Observe(d.Seconds())
}

func (h *PrometheusHooks) OnRenderStart(context.Context, []string) {}

func (h *PrometheusHooks) OnRenderComplete(_ context.Context, _ []string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	h.renders.WithLabelValues(outcome).Inc()
	h.renderTime.Observe(d.Seconds())
}

func (h *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	h.cache.WithLabelValues("hit", keyType).Inc()
}

func (h *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cache.WithLabelValues("miss", keyType).Inc()
}

func (h *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cache.WithLabelValues("set", keyType).Inc()
	h.cacheBytes.Add(float64(size))
}
