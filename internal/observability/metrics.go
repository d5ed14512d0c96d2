package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SimCollector bundles Prometheus metrics for the simulation engine and the
// HTTP surface, and provides helpers to wire them into handlers.
type SimCollector struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	RunsStarted       prometheus.Counter
	RunDurations      prometheus.Histogram
	SampleDurations   prometheus.Histogram
	DegenerateSamples prometheus.Counter
	ExplicitSpots     prometheus.Gauge
	GeneratedSpots    prometheus.Gauge
}

// NewSimCollector registers the simulator metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of handled HTTP requests, labeled by method, path, and status code.",
	}, []string{"method", "path", "code"})
	requests, err := registerCounterVec(reg, requests, "http_requests_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"method", "path"})
	durations, err = registerHistogramVec(reg, durations, "http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	runsStarted, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulation_runs_started_total",
		Help: "Total number of simulation runs started.",
	}), "simulation_runs_started_total")
	if err != nil {
		return nil, err
	}
	runDurations, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "simulation_run_duration_seconds",
		Help:    "Wall-clock duration of completed simulation runs.",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
	}), "simulation_run_duration_seconds")
	if err != nil {
		return nil, err
	}
	sampleDurations, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "simulation_sample_duration_seconds",
		Help:    "Duration of individual disk integrations.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 12),
	}), "simulation_sample_duration_seconds")
	if err != nil {
		return nil, err
	}
	degenerate, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulation_degenerate_samples_total",
		Help: "Samples with zero visible flux, flagged invalid.",
	}), "simulation_degenerate_samples_total")
	if err != nil {
		return nil, err
	}
	explicitSpots, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "simulation_explicit_spots",
		Help: "Explicit spots in the most recent run.",
	}), "simulation_explicit_spots")
	if err != nil {
		return nil, err
	}
	generatedSpots, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "simulation_generated_spots",
		Help: "Randomly generated spots in the most recent run.",
	}), "simulation_generated_spots")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:          gatherer,
		HTTPRequests:      requests,
		HTTPDurations:     durations,
		RunsStarted:       runsStarted,
		RunDurations:      runDurations,
		SampleDurations:   sampleDurations,
		DegenerateSamples: degenerate,
		ExplicitSpots:     explicitSpots,
		GeneratedSpots:    generatedSpots,
	}, nil
}

// RunStarted satisfies the driver's MetricsRecorder interface.
func (c *SimCollector) RunStarted() {
	if c == nil || c.RunsStarted == nil {
		return
	}
	c.RunsStarted.Inc()
}

// RunCompleted records a finished run.
func (c *SimCollector) RunCompleted(duration time.Duration, samples int) {
	if c == nil || c.RunDurations == nil {
		return
	}
	c.RunDurations.Observe(duration.Seconds())
}

// SampleObserved records one disk integration.
func (c *SimCollector) SampleObserved(duration time.Duration) {
	if c == nil || c.SampleDurations == nil {
		return
	}
	c.SampleDurations.Observe(duration.Seconds())
}

// DegenerateSample counts a zero-flux sample.
func (c *SimCollector) DegenerateSample() {
	if c == nil || c.DegenerateSamples == nil {
		return
	}
	c.DegenerateSamples.Inc()
}

// SetSpotCounts updates the population gauges.
func (c *SimCollector) SetSpotCounts(explicit, generated int) {
	if c == nil {
		return
	}
	if c.ExplicitSpots != nil {
		c.ExplicitSpots.Set(float64(explicit))
	}
	if c.GeneratedSpots != nil {
		c.GeneratedSpots.Set(float64(generated))
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Middleware records request counts and durations for an HTTP handler chain.
// The path label uses the route template the router matched, not the raw URL,
// to keep cardinality bounded.
func (c *SimCollector) Middleware(routePath func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(sr, r)

			if c == nil {
				return
			}
			path := r.URL.Path
			if routePath != nil {
				if p := routePath(r); p != "" {
					path = p
				}
			}
			if c.HTTPRequests != nil {
				c.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(sr.statusCode)).Inc()
			}
			if c.HTTPDurations != nil {
				c.HTTPDurations.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
			}
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
