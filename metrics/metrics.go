// Package metrics exposes Prometheus instrumentation for problem responses.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry wraps a Prometheus registry and exposes helpers for HTTP handlers.
type Registry struct {
	registry *prometheus.Registry
}

// NewRegistry creates a registry preloaded with default collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Registry{registry: reg}
}

// Handler returns an HTTP handler that exposes Prometheus metrics.
func (r *Registry) Handler() http.Handler {
	if r == nil || r.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Register allows callers to register custom collectors.
func (r *Registry) Register(c prometheus.Collector) {
	if r == nil || r.registry == nil {
		return
	}
	r.registry.MustRegister(c)
}

// Recorder counts rendered problem responses by format and status. It
// satisfies the renderer's Recorder interface and is itself a Prometheus
// collector.
type Recorder struct {
	rendered *prometheus.CounterVec
}

// NewRecorder creates a recorder, registering it when a registry is given.
func NewRecorder(reg *Registry) *Recorder {
	rec := &Recorder{
		rendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "problem",
			Name:      "responses_total",
			Help:      "Problem detail responses rendered, by format and status.",
		}, []string{"format", "status"}),
	}
	if reg != nil {
		reg.Register(rec)
	}
	return rec
}

// ObserveProblem counts one rendered problem response.
func (r *Recorder) ObserveProblem(format string, status int) {
	if r == nil || r.rendered == nil {
		return
	}
	r.rendered.WithLabelValues(format, strconv.Itoa(status)).Inc()
}

// Describe implements prometheus.Collector.
func (r *Recorder) Describe(ch chan<- *prometheus.Desc) {
	r.rendered.Describe(ch)
}

// Collect implements prometheus.Collector.
func (r *Recorder) Collect(ch chan<- prometheus.Metric) {
	r.rendered.Collect(ch)
}
