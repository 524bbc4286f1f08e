// Package chi implements the HTTP API on the go-chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/synapse-cloud/chatsense/internal/domain"
	"github.com/synapse-cloud/chatsense/internal/domain/search/query"
	"github.com/synapse-cloud/chatsense/internal/repository/message"
	digestuc "github.com/synapse-cloud/chatsense/internal/usecase/digest"
	healthuc "github.com/synapse-cloud/chatsense/internal/usecase/health"
	insightsuc "github.com/synapse-cloud/chatsense/internal/usecase/insights"
	minutesuc "github.com/synapse-cloud/chatsense/internal/usecase/minutes"
	proactiveuc "github.com/synapse-cloud/chatsense/internal/usecase/proactive"
	searchuc "github.com/synapse-cloud/chatsense/internal/usecase/search"
)

// Messages provides search candidates to the search endpoint.
type Messages interface {
	List(ctx context.Context, conversationID string, q message.ListQuery) ([]domain.Message, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the conversation analysis API.
type Server struct {
	messages      Messages
	search        *searchuc.Service
	digest        *digestuc.Service
	insights      *insightsuc.Service
	minutes       *minutesuc.Service
	proactive     *proactiveuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	maxMessages   int
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. maxMessages caps how many messages
// any single analysis call may fetch.
func NewServer(
	messages Messages,
	search *searchuc.Service,
	digest *digestuc.Service,
	insights *insightsuc.Service,
	minutes *minutesuc.Service,
	proactive *proactiveuc.Service,
	health *healthuc.Service,
	maxMessages int,
	logger *zap.Logger,
) *Server {
	s := &Server{
		messages:    messages,
		search:      search,
		digest:      digest,
		insights:    insights,
		minutes:     minutes,
		proactive:   proactive,
		health:      health,
		logger:      logger,
		maxMessages: maxMessages,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrConversationNotFound, http.StatusNotFound, CodeConversationNotFound),
		sentinelHandler(domain.ErrMessageNotFound, http.StatusNotFound, CodeMessageNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeConversationNotFound),
		sentinelHandler(domain.ErrDimensionMismatch, http.StatusBadGateway, CodeLLMProviderError),
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway, CodeLLMProviderError),
		sentinelHandler(domain.ErrCompletionProvider, http.StatusBadGateway, CodeLLMProviderError),
		sentinelHandler(domain.ErrMalformedCompletion, http.StatusBadGateway, CodeMalformedCompletion),
	}
	return s
}

// Routes mounts all handlers on a fresh router.
func (s *Server) Routes() chirouter.Router {
	r := chirouter.NewRouter()

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1/conversations/{conversation}", func(r chirouter.Router) {
		r.Post("/search", s.SearchMessages)
		r.Post("/summarize", s.Summarize)
		r.Post("/summarize/refine", s.RefineSummary)
		r.Post("/action-items", s.ActionItems)
		r.Post("/decisions", s.Decisions)
		r.Post("/priority", s.Priority)
		r.Post("/minutes", s.Minutes)
		r.Post("/proactive", s.Proactive)
	})

	return r
}

// SearchMessages handles POST /conversations/{conversation}/search.
func (s *Server) SearchMessages(w http.ResponseWriter, r *http.Request) {
	conversation := chirouter.URLParam(r, "conversation")

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	maxResults := query.DefaultMaxResults
	if req.MaxResults != nil {
		maxResults = *req.MaxResults
	}
	minSimilarity := 0.0
	if req.MinSimilarity != nil {
		minSimilarity = *req.MinSimilarity
	}

	q, err := query.New(req.Query, maxResults, minSimilarity)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	candidates, err := s.messages.List(r.Context(), conversation, message.ListQuery{
		From: req.from(), To: req.to(), Limit: s.maxMessages,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	results, err := s.search.Search(r.Context(), q, candidates)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	byID := make(map[string]domain.Message, len(candidates))
	for _, m := range candidates {
		byID[m.ID()] = m
	}

	items := make([]SearchResultItem, len(results))
	for i := range results {
		items[i] = searchResultToDTO(results[i], byID)
	}

	writeJSON(w, http.StatusOK, SearchResponse{Results: items, Total: len(items)})
}

// Summarize handles POST /conversations/{conversation}/summarize.
func (s *Server) Summarize(w http.ResponseWriter, r *http.Request) {
	conversation := chirouter.URLParam(r, "conversation")

	var req SummarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	out, err := s.digest.Summarize(r.Context(), conversation, digestuc.Options{
		From:         req.from(),
		To:           req.to(),
		MaxMessages:  s.boundedLimit(req.MaxMessages),
		Instructions: req.Instructions,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, summaryToDTO(out))
}

// RefineSummary handles POST /conversations/{conversation}/summarize/refine.
func (s *Server) RefineSummary(w http.ResponseWriter, r *http.Request) {
	conversation := chirouter.URLParam(r, "conversation")

	var req RefineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.PreviousSummaryID == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "previous_summary_id is required")
		return
	}
	if req.Instructions == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "instructions is required")
		return
	}

	out, err := s.digest.Refine(r.Context(), conversation, req.PreviousSummaryID, req.Instructions)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, summaryToDTO(out))
}

func summaryToDTO(out digestuc.Outcome) SummaryResponse {
	return SummaryResponse{
		MessageID:    out.MessageID,
		Summary:      out.Summary.Summary,
		KeyPoints:    out.Summary.KeyPoints,
		MessagesUsed: out.MessageCount,
	}
}

// ActionItems handles POST /conversations/{conversation}/action-items.
func (s *Server) ActionItems(w http.ResponseWriter, r *http.Request) {
	conversation := chirouter.URLParam(r, "conversation")

	rng, ok := s.decodeInsightsRange(w, r)
	if !ok {
		return
	}

	items, err := s.insights.ActionItems(r.Context(), conversation, rng)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if items == nil {
		items = []domain.ActionItem{}
	}
	writeJSON(w, http.StatusOK, ActionItemsResponse{ActionItems: items, Total: len(items)})
}

// Decisions handles POST /conversations/{conversation}/decisions.
func (s *Server) Decisions(w http.ResponseWriter, r *http.Request) {
	conversation := chirouter.URLParam(r, "conversation")

	rng, ok := s.decodeInsightsRange(w, r)
	if !ok {
		return
	}

	decisions, err := s.insights.Decisions(r.Context(), conversation, rng)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if decisions == nil {
		decisions = []domain.Decision{}
	}
	writeJSON(w, http.StatusOK, DecisionsResponse{Decisions: decisions, Total: len(decisions)})
}

// Priority handles POST /conversations/{conversation}/priority.
func (s *Server) Priority(w http.ResponseWriter, r *http.Request) {
	conversation := chirouter.URLParam(r, "conversation")

	rng, ok := s.decodeInsightsRange(w, r)
	if !ok {
		return
	}

	msgs, err := s.insights.Priority(r.Context(), conversation, rng)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if msgs == nil {
		msgs = []domain.PriorityMessage{}
	}
	writeJSON(w, http.StatusOK, PriorityResponse{Messages: msgs, Total: len(msgs)})
}

func (s *Server) decodeInsightsRange(w http.ResponseWriter, r *http.Request) (insightsuc.Range, bool) {
	var req InsightsRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
			return insightsuc.Range{}, false
		}
	}
	return insightsuc.Range{
		From:        req.from(),
		To:          req.to(),
		MaxMessages: s.boundedLimit(req.MaxMessages),
	}, true
}

// Minutes handles POST /conversations/{conversation}/minutes.
func (s *Server) Minutes(w http.ResponseWriter, r *http.Request) {
	conversation := chirouter.URLParam(r, "conversation")

	var req MinutesRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}

	out, err := s.minutes.Generate(r.Context(), conversation, minutesuc.Options{
		Title:       req.Title,
		From:        req.from(),
		To:          req.to(),
		MaxMessages: s.boundedLimit(req.MaxMessages),
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, MinutesResponse{
		MessageID:    out.MessageID,
		Title:        out.Minutes.Title,
		DateRange:    out.Minutes.DateRange,
		Participants: out.Minutes.Participants,
		Summary:      out.Minutes.Summary,
		KeyPoints:    out.Minutes.KeyPoints,
		ActionItems:  out.Minutes.ActionItems,
		Decisions:    out.Minutes.Decisions,
		NextSteps:    out.Minutes.NextSteps,
		Document:     out.Minutes.Document,
	})
}

// Proactive handles POST /conversations/{conversation}/proactive.
func (s *Server) Proactive(w http.ResponseWriter, r *http.Request) {
	conversation := chirouter.URLParam(r, "conversation")

	sug, messageID, err := s.proactive.Evaluate(r.Context(), conversation)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SuggestionResponse{
		Acted:       sug.ShouldAct,
		MessageID:   messageID,
		ContextType: sug.ContextType,
		Confidence:  sug.Confidence,
		Reason:      sug.Reason,
		Text:        sug.Text,
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
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// boundedLimit clamps a requested fetch size to the configured maximum.
func (s *Server) boundedLimit(requested *int) int {
	if requested == nil || *requested <= 0 || *requested > s.maxMessages {
		return s.maxMessages
	}
	return *requested
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

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrConversationNotFound,
		domain.ErrMessageNotFound,
		domain.ErrNotFound,
		domain.ErrDimensionMismatch,
		domain.ErrEmbeddingProvider,
		domain.ErrCompletionProvider,
		domain.ErrMalformedCompletion,
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

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
