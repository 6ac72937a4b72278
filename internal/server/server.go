package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hollis-dev/envprobe/internal/config"
	"github.com/hollis-dev/envprobe/internal/storage"
)

// ServerStore defines the storage queries the server needs.
type ServerStore interface {
	AllLatest(ctx context.Context) ([]storage.Probe, error)
	LatestProbe(ctx context.Context, dependency string) (*storage.Probe, error)
	DependencyHistory(ctx context.Context, dependency string, limit, offset int) ([]storage.Probe, int, error)
	AvailabilityPercent(ctx context.Context, dependency string, last int) (float64, error)
}

// Server holds the chi router and its dependencies.
type Server struct {
	store  ServerStore
	deps   []config.Dependency
	router chi.Router
	logger *slog.Logger
}

// New creates a new Server and registers all routes.
func New(store ServerStore, deps []config.Dependency, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		store:  store,
		deps:   deps,
		router: chi.NewRouter(),
		logger: logger,
	}
	s.registerRoutes()
	return s
}

// Router returns the chi router (for mounting or testing).
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/dependencies", s.handleListDependencies)
	r.Get("/api/dependencies/{name}", s.handleGetDependency)
	r.Get("/api/dependencies/{name}/history", s.handleGetDependencyHistory)
}

// --- Response helpers ---

type envelope struct {
	Data  interface{} `json:"data"`
	Error string      `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Error: msg})
}

// --- Dependency helpers ---

// dependencyIndex returns a map from dependency name → config.Dependency.
func (s *Server) dependencyIndex() map[string]config.Dependency {
	idx := make(map[string]config.Dependency, len(s.deps))
	for _, dep := range s.deps {
		idx[dep.Name] = dep
	}
	return idx
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type dependencyDetail struct {
	Name        string     `json:"name"`
	Kind        string     `json:"kind"`
	Target      string     `json:"target"`
	Interval    string     `json:"interval"`
	Status      string     `json:"status"`
	LatencyMs   int64      `json:"latency_ms"`
	Available   float64    `json:"availability_percent"`
	LastProbed  *time.Time `json:"last_probed"`
}

func (s *Server) handleListDependencies(w http.ResponseWriter, r *http.Request) {
	latest, err := s.store.AllLatest(r.Context())
	if err != nil {
		s.logger.Error("AllLatest", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	byDep := make(map[string]storage.Probe, len(latest))
	for _, p := range latest {
		byDep[p.Dependency] = p
	}

	details := make([]dependencyDetail, 0, len(s.deps))
	for _, dep := range s.deps {
		d := dependencyDetail{
			Name:     dep.Name,
			Kind:     dep.Kind,
			Target:   dep.Target,
			Interval: dep.Interval.Duration.String(),
			Status:   "unknown",
		}
		if p, ok := byDep[dep.Name]; ok {
			d.Status = p.Status
			d.LatencyMs = p.LatencyMs
			t := p.ProbedAt
			d.LastProbed = &t
			pct, _ := s.store.AvailabilityPercent(r.Context(), dep.Name, 100)
			d.Available = pct
		}
		details = append(details, d)
	}

	writeJSON(w, http.StatusOK, details)
}

type dependencyDetailResponse struct {
	dependencyDetail
	RecentProbes []storage.Probe `json:"recent_probes"`
}

func (s *Server) handleGetDependency(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	idx := s.dependencyIndex()
	dep, ok := idx[name]
	if !ok {
		writeError(w, http.StatusNotFound, "dependency not found")
		return
	}

	latest, err := s.store.LatestProbe(r.Context(), name)
	if err != nil {
		s.logger.Error("LatestProbe", "dependency", name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	history, _, err := s.store.DependencyHistory(r.Context(), name, 10, 0)
	if err != nil {
		s.logger.Error("DependencyHistory", "dependency", name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	pct, _ := s.store.AvailabilityPercent(r.Context(), name, 100)

	d := dependencyDetail{
		Name:      dep.Name,
		Kind:      dep.Kind,
		Target:    dep.Target,
		Interval:  dep.Interval.Duration.String(),
		Status:    "unknown",
		Available: pct,
	}
	if latest != nil {
		d.Status = latest.Status
		d.LatencyMs = latest.LatencyMs
		t := latest.ProbedAt
		d.LastProbed = &t
	}

	writeJSON(w, http.StatusOK, dependencyDetailResponse{
		dependencyDetail: d,
		RecentProbes:     history,
	})
}

type historyResponse struct {
	Probes []storage.Probe `json:"probes"`
	Total  int             `json:"total"`
}

func (s *Server) handleGetDependencyHistory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	idx := s.dependencyIndex()
	if _, ok := idx[name]; !ok {
		writeError(w, http.StatusNotFound, "dependency not found")
		return
	}

	const maxLimit = 1000

	limit := 50
	offset := 0

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		if n > maxLimit {
			n = maxLimit
		}
		limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset parameter")
			return
		}
		offset = n
	}

	probes, total, err := s.store.DependencyHistory(r.Context(), name, limit, offset)
	if err != nil {
		s.logger.Error("DependencyHistory", "dependency", name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{
		Probes: probes,
		Total:  total,
	})
}

// --- Middleware ---

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start),
		)
	})
}
