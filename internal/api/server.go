package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/signalsfoundry/stellar-activity-simulator/core"
	"github.com/signalsfoundry/stellar-activity-simulator/internal/logging"
	"github.com/signalsfoundry/stellar-activity-simulator/internal/observability"
	"github.com/signalsfoundry/stellar-activity-simulator/kb"
	"github.com/signalsfoundry/stellar-activity-simulator/model"
	"github.com/signalsfoundry/stellar-activity-simulator/timectrl"
)

// Server exposes simulation runs over HTTP: POST a TOML scenario, read back
// the stored series.
type Server struct {
	httpServer *http.Server
	store      *kb.RunStore
	metrics    *observability.SimCollector
	log        logging.Logger
}

// NewServer wires routes, middleware, and dependencies.
func NewServer(addr string, store *kb.RunStore, metrics *observability.SimCollector, log logging.Logger) *Server {
	s := &Server{store: store, metrics: metrics, log: log}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/runs", s.handleCreateRun).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/runs", s.handleListRuns).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/runs/{id}", s.handleGetRun).Methods(http.MethodGet)

	// Registered via Use so mux.CurrentRoute can resolve the matched
	// template for metric labels.
	r.Use(mux.MiddlewareFunc(metrics.Middleware(routeTemplate)))
	r.Use(mux.MiddlewareFunc(s.loggingMiddleware))

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// HTTPServer returns the underlying *http.Server for external control.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Handler returns the fully wired handler chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleCreateRun accepts a TOML scenario as the request body. The sample
// span comes from start/stop/step query parameters, in days.
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	ctx, log := logging.WithRequestLogger(r.Context(), s.log)

	span, err := spanFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	times, err := span.Samples()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	scenario, err := core.LoadScenario(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	opts := scenario.Options()
	opts.Logger = log
	opts.Metrics = s.metrics

	driver, err := core.NewDriver(scenario.Star, opts)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	result, err := driver.Run(ctx, scenario.Spots, times)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	run := &kb.Run{
		ID:        s.store.NextID(),
		CreatedAt: time.Now().UTC(),
		Star:      scenario.Star,
		Seed:      scenario.Seed,
		Spots:     result.Spots,
		Samples:   result.Samples,
	}
	if result.CoverageWarning != nil {
		run.CoverageWarning = result.CoverageWarning.Error()
	}
	if err := s.store.Add(run); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	log.Info(ctx, "run stored",
		logging.String("run_id", run.ID),
		logging.Int("samples", len(run.Samples)),
		logging.Int("spots", len(run.Spots)))
	writeJSON(w, http.StatusCreated, runToJSON(run, true))
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs := s.store.List()
	out := make([]any, 0, len(runs))
	for _, run := range runs {
		out = append(out, runToJSON(run, false))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	run, ok := s.store.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no such run: " + id})
		return
	}
	writeJSON(w, http.StatusOK, runToJSON(run, true))
}

func spanFromQuery(r *http.Request) (timectrl.Span, error) {
	var span timectrl.Span
	var err error
	if span.Start, err = queryFloat(r, "start", 0); err != nil {
		return span, err
	}
	if span.Stop, err = queryFloat(r, "stop", 0); err != nil {
		return span, err
	}
	if span.Step, err = queryFloat(r, "step", 0); err != nil {
		return span, err
	}
	return span, nil
}

func queryFloat(r *http.Request, key string, def float64) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	return v, nil
}

type spotJSON struct {
	ID         string          `json:"id"`
	Latitude   float64         `json:"latitude"`
	Longitude  float64         `json:"longitude"`
	FillFactor float64         `json:"fill_factor"`
	Lifetime   *model.Lifetime `json:"lifetime,omitempty"`
	Generated  bool            `json:"generated,omitempty"`
}

type sampleJSON struct {
	Time    float64 `json:"time"`
	Flux    float64 `json:"flux"`
	RV      float64 `json:"rv"`
	RVSigma float64 `json:"rv_sigma"`
	Valid   bool    `json:"valid"`
}

func runToJSON(run *kb.Run, full bool) map[string]any {
	out := map[string]any{
		"id":         run.ID,
		"created_at": run.CreatedAt,
		"seed":       run.Seed,
		"samples":    len(run.Samples),
		"spots":      len(run.Spots),
	}
	if run.CoverageWarning != "" {
		out["coverage_warning"] = run.CoverageWarning
	}
	if !full {
		return out
	}

	spots := make([]spotJSON, 0, len(run.Spots))
	for _, s := range run.Spots {
		spots = append(spots, spotJSON{
			ID:         s.ID,
			Latitude:   s.Latitude,
			Longitude:  s.Longitude,
			FillFactor: s.FillFactor,
			Lifetime:   s.Lifetime,
			Generated:  s.Generated,
		})
	}
	series := make([]sampleJSON, 0, len(run.Samples))
	for _, smp := range run.Samples {
		series = append(series, sampleJSON{
			Time:    smp.Time,
			Flux:    smp.Flux,
			RV:      smp.RV,
			RVSigma: smp.RVSigma,
			Valid:   smp.Valid,
		})
	}
	out["spot_population"] = spots
	out["series"] = series
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// routeTemplate resolves the matched mux route template for metric labels.
func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return ""
	}
	if tmpl, err := route.GetPathTemplate(); err == nil {
		return tmpl
	}
	return ""
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(sr, r)

		if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
			return
		}
		s.log.Info(r.Context(), "request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", sr.statusCode),
			logging.String("duration", time.Since(start).String()),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}
