package algoserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/wagnerlima/algolab/internal/executor"
	"github.com/wagnerlima/algolab/internal/models"
	"github.com/wagnerlima/algolab/internal/storage"
)

const maxBodyBytes = 1 << 20

// Server serves a Catalog over HTTP and executes its scripts.
type Server struct {
	catalog *Catalog
	bridge  *executor.Bridge
	logger  *zap.Logger
	mux     *http.ServeMux
}

// NewServer returns a server for catalog. Scripts run with cfg limits.
func NewServer(catalog *Catalog, cfg executor.Config, entry string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	rt := executor.NewYaegi(catalog.Scripts(), entry, logger.Named("executor"))
	s := &Server{
		catalog: catalog,
		bridge:  executor.NewBridge(rt, cfg, logger.Named("executor")),
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return loggingMiddleware(s.logger, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /algorithms", s.handleList)
	s.mux.HandleFunc("GET /algorithms/{name}", s.handleDetails)
	s.mux.HandleFunc("POST /algorithms/{name}", s.handleRun)
	s.mux.HandleFunc("GET /algorithms/{name}/download", s.handleDownload)
}

// ── Helpers ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func ptr(s string) *string { return &s }

func notFound(w http.ResponseWriter, name string) {
	writeJSON(w, http.StatusNotFound, models.AlgorithmDetails{Errors: ptr("Algorithm " + name + " not found")})
}

// ── Handlers ────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.AlgorithmList{Algorithms: s.catalog.List()})
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	d, ok := s.catalog.Get(name)
	if !ok {
		notFound(w, name)
		return
	}
	writeJSON(w, http.StatusOK, models.AlgorithmDetails{Result: &d, Errors: ptr("")})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	d, ok := s.catalog.Get(name)
	if !ok {
		notFound(w, name)
		return
	}

	var req models.DataValueList
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.AlgorithmResponse{Errors: ptr("Invalid request body: " + err.Error())})
		return
	}

	inputs := withDefaults(d.Parameters, req.Parameters)
	outputs, err := s.bridge.Execute(r.Context(), name, inputs)
	if err != nil {
		s.logger.Info("execution failed", zap.String("algorithm", name), zap.Error(err))
		writeJSON(w, http.StatusOK, models.AlgorithmResponse{
			Result: &models.AlgorithmOutputs{Outputs: []models.DataValue{}},
			Errors: ptr(err.Error()),
		})
		return
	}
	writeJSON(w, http.StatusOK, models.AlgorithmResponse{
		Result: &models.AlgorithmOutputs{Outputs: outputs},
		Errors: ptr(""),
	})
}

// withDefaults appends the default value of every declared parameter the
// request left out.
func withDefaults(params []models.DataElement, given []models.DataValue) []models.DataValue {
	out := append([]models.DataValue(nil), given...)
	for _, p := range params {
		found := false
		for _, g := range given {
			if g.Name == p.Name {
				found = true
				break
			}
		}
		if !found && p.DefaultValue.IsSet() {
			out = append(out, p.ToDataValue())
		}
	}
	return out
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if _, ok := s.catalog.Get(name); !ok {
		notFound(w, name)
		return
	}
	src, err := s.catalog.Scripts().Read(name)
	if errors.Is(err, storage.ErrNotFound) {
		notFound(w, name)
		return
	}
	if err != nil {
		s.logger.Error("read script", zap.String("algorithm", name), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.AlgorithmDetails{Errors: ptr("Couldn't read script")})
		return
	}
	w.Header().Set("Content-Type", "text/x-go; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+storage.ScriptExt+`"`)
	w.Write(src)
}

// ── Middleware ──────────────────────────────────────────

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", sw.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
