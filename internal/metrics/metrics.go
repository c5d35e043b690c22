package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pricer"

// Collector exposes Prometheus metrics for inbound HTTP requests and engine
// evaluations.
type Collector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	engineDuration  *prometheus.HistogramVec
	engineTotal     *prometheus.CounterVec
	pathsTotal      prometheus.Counter
}

// NewCollector constructs a collector on its own registry.
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "path", "status"})

	engineDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "duration_seconds",
		Help:      "Time spent in pricing engine evaluations.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"engine", "operation"})

	engineTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "evaluations_total",
		Help:      "Total number of pricing engine evaluations.",
	}, []string{"engine", "operation", "status"})

	pathsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "montecarlo",
		Name:      "paths_total",
		Help:      "Total number of Monte Carlo samples simulated for priced requests.",
	})

	for _, c := range []prometheus.Collector{requestDuration, requestTotal, engineDuration, engineTotal, pathsTotal} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &Collector{
		registry:        registry,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		engineDuration:  engineDuration,
		engineTotal:     engineTotal,
		pathsTotal:      pathsTotal,
	}, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler to record HTTP metrics. Paths
// are labelled with the matched ServeMux pattern to bound cardinality.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.Pattern
		if path == "" {
			path = r.URL.Path
		}

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

// ObserveEvaluation records one engine call.
func (c *Collector) ObserveEvaluation(engine, operation string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.engineTotal.WithLabelValues(engine, operation, status).Inc()
	c.engineDuration.WithLabelValues(engine, operation).Observe(d.Seconds())
}

// AddPaths counts simulated Monte Carlo samples.
func (c *Collector) AddPaths(n int) {
	if n > 0 {
		c.pathsTotal.Add(float64(n))
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
