// Package httpapi exposes the retrieval pipeline over a JSON HTTP API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Omar-Sa03/rag-api/internal/chunking"
	"github.com/Omar-Sa03/rag-api/internal/domain"
	"github.com/Omar-Sa03/rag-api/internal/domain/search/mode"
	"github.com/Omar-Sa03/rag-api/internal/domain/search/result"
	"github.com/Omar-Sa03/rag-api/internal/extract"
	"github.com/Omar-Sa03/rag-api/internal/logger"
	"github.com/Omar-Sa03/rag-api/internal/metrics"
	healthuc "github.com/Omar-Sa03/rag-api/internal/usecase/health"
	"github.com/Omar-Sa03/rag-api/internal/version"
)

const (
	defaultNResults = 5
	maxNResults     = 20
	maxUploadBytes  = 32 << 20
)

// Searcher runs queries and index rebuilds.
type Searcher interface {
	Search(ctx context.Context, query string, m mode.Mode, nResults int, rerank bool) ([]result.Result, error)
	RebuildIndex(ctx context.Context) error
}

// Ingestor persists text into the corpus.
type Ingestor interface {
	AddText(ctx context.Context, text string, chunk bool, strategy chunking.Strategy) ([]string, error)
	IngestDocument(ctx context.Context, text string, meta domain.Metadata, strategy chunking.Strategy, size, overlap int) ([]string, error)
}

// DocumentProcessor extracts text from uploaded files.
type DocumentProcessor interface {
	Process(filename string, data []byte) (extract.Extracted, error)
}

// AnswerGenerator synthesizes an answer from retrieved passages. May be nil
// when no model is configured; queries then return sources only.
type AnswerGenerator interface {
	Generate(ctx context.Context, question string, contexts []string) (string, error)
}

// HealthChecker aggregates component probes.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server routes HTTP requests to the use cases.
type Server struct {
	search        Searcher
	ingest        Ingestor
	processor     DocumentProcessor
	answers       AnswerGenerator
	health        HealthChecker
	limits        RateLimits
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search Searcher,
	ingest Ingestor,
	processor DocumentProcessor,
	answers AnswerGenerator,
	health HealthChecker,
	limits RateLimits,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:    search,
		ingest:    ingest,
		processor: processor,
		answers:   answers,
		health:    health,
		limits:    limits,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidSearchMode, http.StatusBadRequest),
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest),
		sentinelHandler(domain.ErrUnsupportedFormat, http.StatusUnsupportedMediaType),
		sentinelHandler(domain.ErrDocumentProcessing, http.StatusUnprocessableEntity),
		sentinelHandler(domain.ErrRebuildInProgress, http.StatusConflict),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable),
		sentinelHandler(domain.ErrRerankUnavailable, http.StatusBadGateway),
		sentinelHandler(domain.ErrGenerationFailed, http.StatusBadGateway),
	}
	return s
}

// Router builds the chi router with middleware and all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metrics.Middleware())
	r.Use(s.requestLogger)
	r.Use(s.jsonRecoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	queryLimiter := newIPLimiter(s.limits.QueryPerMinute)
	ingestLimiter := newIPLimiter(s.limits.IngestPerMinute)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.handleInfo)
		r.With(s.rateLimit(queryLimiter)).Post("/query", s.handleQuery)
		r.With(s.rateLimit(ingestLimiter)).Post("/add", s.handleAdd)
		r.With(s.rateLimit(ingestLimiter)).Post("/upload", s.handleUpload)
		r.Post("/rebuild-index", s.handleRebuild)
	})
	return r
}

// handleQuery handles POST /api/v1/query.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	m := mode.Hybrid
	if req.Mode != "" {
		m = mode.Mode(req.Mode)
	}
	nResults := defaultNResults
	if req.NResults != nil {
		nResults = *req.NResults
	}
	if nResults < 1 || nResults > maxNResults {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("n_results must be between 1 and %d", maxNResults))
		return
	}
	rerank := req.Rerank == nil || *req.Rerank
	includeScores := req.IncludeScores == nil || *req.IncludeScores

	results, err := s.search.Search(r.Context(), req.Q, m, nResults, rerank)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	answer, err := s.generateAnswer(r.Context(), req.Q, results)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	sources := make([]sourceItem, len(results))
	reranked := false
	for i, res := range results {
		sources[i] = sourceFromResult(res, includeScores)
		if _, ok := res.RerankScore(); ok {
			reranked = true
		}
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Query:        req.Q,
		Answer:       answer,
		Sources:      sources,
		SearchMode:   string(m),
		Reranked:     reranked,
		TotalResults: len(sources),
	})
}

func (s *Server) generateAnswer(ctx context.Context, question string, results []result.Result) (string, error) {
	if s.answers == nil {
		return "", nil
	}
	contexts := make([]string, len(results))
	for i, res := range results {
		contexts[i] = res.Text()
	}
	return s.answers.Generate(ctx, question, contexts)
}

// handleAdd handles POST /api/v1/add.
func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	strategy, err := chunking.ParseStrategy(req.Strategy)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	doChunk := req.Chunk == nil || *req.Chunk

	ids, err := s.ingest.AddText(r.Context(), req.Text, doChunk, strategy)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, addResponse{
		IDs:          ids,
		Chunks:       len(ids),
		IndexRebuilt: s.rebuildAfterMutation(r.Context()),
	})
}

// handleUpload handles POST /api/v1/upload.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	strategy, err := chunking.ParseStrategy(r.FormValue("strategy"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	size := formInt(r, "chunk_size", 0)
	overlap := formInt(r, "chunk_overlap", -1)

	extracted, err := s.processor.Process(header.Filename, data)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ids, err := s.ingest.IngestDocument(r.Context(), extracted.Text, extracted.Metadata, strategy, size, overlap)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{
		Filename:     header.Filename,
		IDs:          ids,
		Chunks:       len(ids),
		IndexRebuilt: s.rebuildAfterMutation(r.Context()),
	})
}

// rebuildAfterMutation refreshes the lexical index after a successful write.
// The write itself already succeeded, so a rebuild failure is reported in the
// response body rather than failing the request.
func (s *Server) rebuildAfterMutation(ctx context.Context) bool {
	if err := s.search.RebuildIndex(ctx); err != nil {
		s.logger.Warn("post-ingest index rebuild failed", zap.Error(err))
		return false
	}
	return true
}

// handleRebuild handles POST /api/v1/rebuild-index.
func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	if err := s.search.RebuildIndex(r.Context()); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rebuildResponse{Status: "success"})
}

// handleInfo handles GET /api/v1/.
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, infoResponse{
		Name:    "rag-api",
		Version: version.Version,
	})
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{
		Status:           string(report.Status),
		Checks:           checks,
		IndexedDocuments: report.IndexedDocuments,
	})
}

// requestLogger propagates X-Request-ID, stores a request-scoped logger in
// the context, and emits one canonical log line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := middleware.GetReqID(r.Context())
		if requestID != "" {
			w.Header().Set("X-Request-ID", requestID)
		}

		reqLogger := s.logger.With(zap.String("request_id", requestID))
		ctx := logger.ContextWithLogger(r.Context(), reqLogger)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		reqLogger.Info("http_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", r.RemoteAddr),
			zap.Int("response_bytes", ww.BytesWritten()),
		)
	})
}

// jsonRecoverer converts handler panics into JSON 500 responses.
func (s *Server) jsonRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panic",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
				)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidSearchMode,
		domain.ErrEmptyQuery,
		domain.ErrUnsupportedFormat,
		domain.ErrDocumentProcessing,
		domain.ErrRebuildInProgress,
		domain.ErrRateLimited,
		domain.ErrIndexUnavailable,
		domain.ErrRerankUnavailable,
		domain.ErrGenerationFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func formInt(r *http.Request, field string, fallback int) int {
	v := r.FormValue(field)
	if v == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return fallback
	}
	return n
}
