package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	chatuc "github.com/kailas-cloud/ragdex/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/ragdex/internal/usecase/health"
	memoryuc "github.com/kailas-cloud/ragdex/internal/usecase/memory"
)

// Consumer contracts over the usecase layer.
type ingestService interface {
	Ingest(ctx context.Context, doc domain.Document) (int64, error)
}

type chatService interface {
	Chat(ctx context.Context, message string, level domain.DetailLevel) (chatuc.Result, error)
	PreviewPrompt(ctx context.Context, message string, level domain.DetailLevel) (chatuc.Preview, error)
}

type retrieveService interface {
	Retrieve(ctx context.Context, query string, k int) ([]domain.SourceRecord, error)
}

type generateService interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type memoryService interface {
	Query(ctx context.Context, query string, tags []string, topK int) (memoryuc.QueryResult, error)
	IngestChunks(ctx context.Context, chunks []domain.MemoryChunk) (int, error)
	Health(ctx context.Context) memoryuc.HealthReport
}

type healthService interface {
	Check(ctx context.Context) healthuc.Report
}

// GenerationInfo identifies the generation backend for /debug/generate.
type GenerationInfo struct {
	BaseURL string
	Model   string
}

// Timeouts bound the debug endpoints that call a single pipeline stage.
type Timeouts struct {
	Retrieve time.Duration
	Generate time.Duration
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the RAG pipeline over HTTP.
type Server struct {
	ingest   ingestService
	chat     chatService
	retrieve retrieveService
	generate generateService
	memory   memoryService
	health   healthService
	genInfo  GenerationInfo
	timeouts Timeouts
	logger   *zap.Logger

	started       time.Time
	ingestedCount atomic.Int64
	chatCount     atomic.Int64
	errorCount    atomic.Int64

	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	ingest ingestService,
	chat chatService,
	retrieve retrieveService,
	generate generateService,
	memory memoryService,
	health healthService,
	genInfo GenerationInfo,
	timeouts Timeouts,
	logger *zap.Logger,
) *Server {
	if timeouts.Retrieve <= 0 {
		timeouts.Retrieve = 10 * time.Second
	}
	if timeouts.Generate <= 0 {
		timeouts.Generate = 120 * time.Second
	}
	s := &Server{
		ingest:   ingest,
		chat:     chat,
		retrieve: retrieve,
		generate: generate,
		memory:   memory,
		health:   health,
		genInfo:  genInfo,
		timeouts: timeouts,
		logger:   logger,
		started:  time.Now(),
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, "validation_failed"),
		sentinelHandler(domain.ErrStageTimeout, http.StatusGatewayTimeout, "stage_timeout"),
		sentinelHandler(domain.ErrOverallTimeout, http.StatusGatewayTimeout, "timeout"),
		sentinelHandler(domain.ErrSchemaMismatch, http.StatusServiceUnavailable, "schema_mismatch"),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable"),
		sentinelHandler(domain.ErrEmbeddingUnavailable, http.StatusBadGateway, "embedding_unavailable"),
		sentinelHandler(domain.ErrEmbeddingTransport, http.StatusBadGateway, "embedding_provider_error"),
		sentinelHandler(domain.ErrGenerationFailure, http.StatusBadGateway, "generation_failed"),
	}
	return s
}

// RegisterRoutes mounts all endpoints on the router.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/health", s.Health)
	r.Get("/metrics", s.Metrics)
	r.Post("/ingest", s.Ingest)
	r.Post("/chat", s.Chat)
	r.Get("/debug/retrieve", s.DebugRetrieve)
	r.Post("/debug/prompt", s.DebugPrompt)
	r.Post("/debug/chat", s.DebugChat)
	r.Post("/debug/generate", s.DebugGenerate)
	r.Route("/memory", func(r chi.Router) {
		r.Get("/health", s.MemoryHealth)
		r.Post("/query", s.MemoryQuery)
		r.Post("/ingest", s.MemoryIngest)
	})
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"ok":        report.Status == healthuc.Healthy,
		"status":    report.Status,
		"checks":    report.Checks,
		"documents": report.Documents,
		"uptime_s":  int(time.Since(s.started).Seconds()),
		"ingested":  s.ingestedCount.Load(),
		"chats":     s.chatCount.Load(),
		"errors":    s.errorCount.Load(),
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// Ingest handles POST /ingest.
func (s *Server) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	id, err := s.ingest.Ingest(r.Context(), req.toDocument())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	s.ingestedCount.Add(1)
	// String, not number: ids above 2^53 lose precision in JSON numbers.
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"id":     strconv.FormatInt(id, 10),
	})
}

// Chat handles POST /chat. The public response carries only the answer and
// its sources; timings live on /debug/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}

	res, err := s.chat.Chat(r.Context(), req.Message, domain.DetailLevel(req.DetailLevel))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	s.chatCount.Add(1)
	writeJSON(w, http.StatusOK, map[string]any{
		"answer":  res.Answer,
		"sources": sourcesOrEmpty(res.Sources),
	})
}

// DebugRetrieve handles GET /debug/retrieve?q=.
func (s *Server) DebugRetrieve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if n := len([]rune(q)); n < minMessageChars || n > maxMessageChars {
		writeError(w, http.StatusBadRequest, "validation_failed",
			"q must be between 2 and 2000 characters")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.Retrieve)
	defer cancel()

	sources, err := s.retrieve.Retrieve(ctx, q, 0)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			s.handleDomainError(w, domain.NewStageTimeout(chatuc.StageRetrieve, s.timeouts.Retrieve))
			return
		}
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":   q,
		"sources": sourcesOrEmpty(sources),
	})
}

// DebugPrompt handles POST /debug/prompt: retrieval plus prompt assembly,
// no generation.
func (s *Server) DebugPrompt(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}

	prev, err := s.chat.PreviewPrompt(r.Context(), req.Message, domain.DetailLevel(req.DetailLevel))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"prompt":       prev.Prompt,
		"sources":      sourcesOrEmpty(prev.Sources),
		"prompt_chars": len([]rune(prev.Prompt)),
		"detail_level": prev.Level,
	})
}

// DebugChat handles POST /debug/chat: the full pipeline with stage timings.
func (s *Server) DebugChat(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}

	res, err := s.chat.Chat(r.Context(), req.Message, domain.DetailLevel(req.DetailLevel))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"answer":        res.Answer,
		"sources":       sourcesOrEmpty(res.Sources),
		"detail_level":  res.Level,
		"_timing_ms":    res.Timing,
		"_prompt_chars": res.PromptChars,
	})
}

// DebugGenerate handles POST /debug/generate: the message goes straight to
// the generation backend, bypassing retrieval.
func (s *Server) DebugGenerate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.Generate)
	defer cancel()

	answer, err := s.generate.Generate(ctx, req.Message)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			s.handleDomainError(w, domain.NewStageTimeout(chatuc.StageGenerate, s.timeouts.Generate))
			return
		}
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"base_url": s.genInfo.BaseURL,
		"model":    s.genInfo.Model,
		"answer":   answer,
	})
}

// MemoryQuery handles POST /memory/query.
func (s *Server) MemoryQuery(w http.ResponseWriter, r *http.Request) {
	var req memoryQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	res, err := s.memory.Query(r.Context(), req.Query, req.Tags, req.TopK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// MemoryIngest handles POST /memory/ingest.
func (s *Server) MemoryIngest(w http.ResponseWriter, r *http.Request) {
	var req memoryIngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	n, err := s.memory.IngestChunks(r.Context(), req.toChunks())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"ingested": n,
	})
}

// MemoryHealth handles GET /memory/health.
func (s *Server) MemoryHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.memory.Health(r.Context()))
}

func (s *Server) decodeChatRequest(w http.ResponseWriter, r *http.Request) (chatRequest, bool) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return chatRequest{}, false
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return chatRequest{}, false
	}
	return req, true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.errorCount.Add(1)
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	var stageErr *domain.StageTimeoutError
	if errors.As(err, &stageErr) {
		return stageErr.Error()
	}
	sentinels := []error{
		domain.ErrInvalidInput,
		domain.ErrOverallTimeout,
		domain.ErrSchemaMismatch,
		domain.ErrStoreUnavailable,
		domain.ErrEmbeddingUnavailable,
		domain.ErrEmbeddingTransport,
		domain.ErrGenerationFailure,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// sourcesOrEmpty keeps the JSON field an array rather than null.
func sourcesOrEmpty(sources []domain.SourceRecord) []domain.SourceRecord {
	if sources == nil {
		return []domain.SourceRecord{}
	}
	return sources
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}
