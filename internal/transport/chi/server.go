package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/dbconsole/internal/domain"
	"github.com/kailas-cloud/dbconsole/internal/domain/area"
	logpkg "github.com/kailas-cloud/dbconsole/internal/logger"
	healthuc "github.com/kailas-cloud/dbconsole/internal/usecase/health"
	indexuc "github.com/kailas-cloud/dbconsole/internal/usecase/index"
	queryuc "github.com/kailas-cloud/dbconsole/internal/usecase/query"
	spatialuc "github.com/kailas-cloud/dbconsole/internal/usecase/spatial"
	uploaduc "github.com/kailas-cloud/dbconsole/internal/usecase/upload"
)

// DefaultMaxUploadBytes caps a multipart upload when no limit is configured.
const DefaultMaxUploadBytes int64 = 32 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Options holds transport settings that do not belong to any service.
type Options struct {
	// Limits bounds the radius accepted by spatial search.
	Limits area.Limits
	// MaxUploadBytes caps the multipart body of upload requests.
	MaxUploadBytes int64
}

// Server serves the console API on a chi router.
type Server struct {
	query         *queryuc.Service
	spatial       *spatialuc.Controller
	indexes       *indexuc.Service
	uploads       *uploaduc.Service
	health        *healthuc.Service
	limits        area.Limits
	maxUpload     int64
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	query *queryuc.Service,
	spatial *spatialuc.Controller,
	indexes *indexuc.Service,
	uploads *uploaduc.Service,
	health *healthuc.Service,
	opts Options,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Limits == (area.Limits{}) {
		opts.Limits = area.DefaultLimits()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	s := &Server{
		query:     query,
		spatial:   spatial,
		indexes:   indexes,
		uploads:   uploads,
		health:    health,
		limits:    opts.Limits,
		maxUpload: opts.MaxUploadBytes,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidParameter, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrUnsupportedFile, http.StatusBadRequest, CodeUnsupportedFile),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrMalformedResponse, http.StatusBadGateway, CodeMalformedResponse),
		sentinelHandler(domain.ErrRemoteFailure, http.StatusBadGateway, CodeEngineError),
	}
	return s
}

// Routes registers every console endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", s.Upload)
		r.Post("/upload/preview", s.PreviewUpload)
		r.Get("/upload/sample", s.SampleCSV)

		r.Post("/query", s.ExecuteQuery)
		r.Get("/query/history", s.QueryHistory)
		r.Get("/query/samples", s.QuerySamples)
		r.Get("/query/saved", s.GetSavedQuery)
		r.Put("/query/saved", s.SaveQuery)
		r.Get("/query/export", s.ExportQuery)

		r.Get("/spatial", s.SpatialSnapshot)
		r.Post("/spatial/search", s.SpatialSearch)
		r.Get("/spatial/history", s.SpatialHistory)
		r.Get("/spatial/export", s.ExportSpatial)

		r.Get("/indexes", s.ListIndexes)
		r.Post("/indexes", s.CreateIndex)
		r.Post("/indexes/{kind}/scan", s.ScanIndex)
		r.Get("/indexes/tree", s.IndexTree)
		r.Post("/indexes/tree/{nodeID}/toggle", s.ToggleTreeNode)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:        string(report.Status),
		Checks:        checks,
		EngineMessage: report.EngineMessage,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-facing message without exposing internals.
// Engine messages are passed through verbatim; validation errors keep their detail.
func safeDomainMessage(err error) string {
	if msg, ok := domain.RemoteMessage(err); ok {
		return msg
	}
	if errors.Is(err, domain.ErrInvalidParameter) || errors.Is(err, domain.ErrUnsupportedFile) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrMalformedResponse,
		domain.ErrRemoteFailure,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.requestLogger(r)
	log.Warn("domain error", zap.String("path", r.URL.Path), zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

// requestLogger prefers the request-scoped logger, which carries request_id.
func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	if l, ok := logpkg.Lookup(r.Context()); ok {
		return l
	}
	return s.logger
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}
