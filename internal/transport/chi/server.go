// Package chi exposes the ingestion, retrieval and generation use cases over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrag/internal/domain"
	"github.com/kailas-cloud/bookrag/internal/loader"
	logpkg "github.com/kailas-cloud/bookrag/internal/logger"
	generateuc "github.com/kailas-cloud/bookrag/internal/usecase/generate"
	healthuc "github.com/kailas-cloud/bookrag/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/bookrag/internal/usecase/ingest"
)

// DefaultMaxUploadBytes bounds request bodies when no limit is configured.
const DefaultMaxUploadBytes int64 = 32 << 20

// Ingester ingests documents.
type Ingester interface {
	Ingest(ctx context.Context, doc domain.Document) (ingestuc.Report, error)
	IngestPDF(ctx context.Context, source string, ra io.ReaderAt, size int64) (ingestuc.Report, error)
}

// Retriever returns the entries most relevant to a query.
type Retriever interface {
	RetrieveEntries(ctx context.Context, query string) ([]domain.Entry, error)
}

// Answerer answers a question from retrieved context.
type Answerer interface {
	Generate(ctx context.Context, question string) (generateuc.Answer, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server holds the HTTP handlers.
type Server struct {
	ingest        Ingester
	retrieve      Retriever
	generate      Answerer
	health        HealthChecker
	maxUpload     int64
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	ingest Ingester,
	retrieve Retriever,
	generate Answerer,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	return &Server{
		ingest:        ingest,
		retrieve:      retrieve,
		generate:      generate,
		health:        health,
		maxUpload:     DefaultMaxUploadBytes,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// WithMaxUploadBytes limits request body size. Non-positive values keep the default.
func (s *Server) WithMaxUploadBytes(n int64) *Server {
	if n > 0 {
		s.maxUpload = n
	}
	return s
}

type chapterJSON struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type ingestRequest struct {
	Source   string        `json:"source"`
	Title    string        `json:"title"`
	Text     string        `json:"text"`
	Chapters []chapterJSON `json:"chapters"`
}

type ingestResponse struct {
	Source     string `json:"source,omitempty"`
	Chunks     int    `json:"chunks"`
	Indexed    int    `json:"indexed"`
	Filtered   int    `json:"filtered"`
	Skipped    int    `json:"skipped"`
	DurationMs int64  `json:"duration_ms"`
}

type retrieveRequest struct {
	Query string `json:"query"`
}

type retrieveResult struct {
	ID      string `json:"id"`
	Section string `json:"section"`
	Text    string `json:"text"`
}

type retrieveResponse struct {
	Results []retrieveResult `json:"results"`
}

type generateRequest struct {
	Question string `json:"question"`
}

type generateResponse struct {
	Answer  string   `json:"answer"`
	Context []string `json:"context"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// IngestDocument handles POST /v1/documents.
// A body with chapters is ingested as-is; a titled text becomes a single chapter;
// untitled text is split on chapter headings.
func (s *Server) IngestDocument(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if !s.decode(w, r, &req) {
		return
	}

	doc, ok := documentFromRequest(req)
	if !ok {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "text or chapters is required")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	report, err := s.ingest.Ingest(ctx, doc)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, reportToResponse(report))
}

// IngestPDF handles POST /v1/documents/pdf (multipart field "file").
func (s *Server) IngestPDF(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "failed to parse multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "missing file field")
		return
	}
	defer file.Close()

	ctx, usage := domain.NewContextWithUsage(r.Context())
	report, err := s.ingest.IngestPDF(ctx, header.Filename, file, header.Size)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, reportToResponse(report))
}

// Retrieve handles POST /v1/retrieve.
func (s *Server) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "query is required")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	entries, err := s.retrieve.RetrieveEntries(ctx, req.Query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	results := make([]retrieveResult, len(entries))
	for i, e := range entries {
		results[i] = retrieveResult{ID: e.ID(), Section: e.Section(), Text: e.Text()}
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, retrieveResponse{Results: results})
}

// Generate handles POST /v1/generate.
func (s *Server) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !s.decode(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	ans, err := s.generate.Generate(ctx, req.Question)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	contextPassages := ans.Context
	if contextPassages == nil {
		contextPassages = []string{}
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, generateResponse{Answer: ans.Text, Context: contextPassages})
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

	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContextOr(r.Context(), s.logger)

	log.Warn("domain error", zap.Error(err))
	if errors.Is(err, context.Canceled) {
		return
	}
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func documentFromRequest(req ingestRequest) (domain.Document, bool) {
	if len(req.Chapters) > 0 {
		doc := domain.Document{Source: req.Source}
		for _, ch := range req.Chapters {
			doc.Chapters = append(doc.Chapters, domain.Chapter{Title: ch.Title, Content: ch.Content})
		}
		return doc, true
	}
	if strings.TrimSpace(req.Text) == "" {
		return domain.Document{}, false
	}
	if req.Title != "" {
		return domain.Document{
			Source:   req.Source,
			Chapters: []domain.Chapter{{Title: req.Title, Content: req.Text}},
		}, true
	}
	return loader.FromText(req.Source, req.Text), true
}

func reportToResponse(r ingestuc.Report) ingestResponse {
	return ingestResponse{
		Source:     r.Source,
		Chunks:     r.Chunks,
		Indexed:    r.Indexed,
		Filtered:   r.Filtered,
		Skipped:    r.Skipped,
		DurationMs: r.Duration.Milliseconds(),
	}
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage.Used() {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens()))
	}
}
