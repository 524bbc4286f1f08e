package chi

import (
	"time"

	"github.com/synapse-cloud/chatsense/internal/domain"
	"github.com/synapse-cloud/chatsense/internal/domain/search/result"
)

// ErrorCode identifies an API error class.
type ErrorCode string

const (
	CodeBadRequest           ErrorCode = "bad_request"
	CodeValidationFailed     ErrorCode = "validation_failed"
	CodeConversationNotFound ErrorCode = "conversation_not_found"
	CodeMessageNotFound      ErrorCode = "message_not_found"
	CodeLLMProviderError     ErrorCode = "llm_provider_error"
	CodeMalformedCompletion  ErrorCode = "malformed_completion"
	CodeInternalError        ErrorCode = "internal_error"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// TimeRange bounds a message window. Zero values mean unbounded.
type TimeRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

func (tr TimeRange) from() time.Time {
	if tr.From == nil {
		return time.Time{}
	}
	return *tr.From
}

func (tr TimeRange) to() time.Time {
	if tr.To == nil {
		return time.Time{}
	}
	return *tr.To
}

// SearchRequest is the body of POST /conversations/{conversation}/search.
type SearchRequest struct {
	Query         string   `json:"query"`
	MaxResults    *int     `json:"max_results,omitempty"`
	MinSimilarity *float64 `json:"min_similarity,omitempty"`
	TimeRange
}

// SearchResultItem is one ranked hit.
type SearchResultItem struct {
	MessageID   string  `json:"message_id"`
	Similarity  float64 `json:"similarity"`
	Rank        int     `json:"rank"`
	Explanation string  `json:"explanation,omitempty"`
	Text        string  `json:"text,omitempty"`
	SenderName  string  `json:"sender_name,omitempty"`
}

// SearchResponse is the search result list.
type SearchResponse struct {
	Results []SearchResultItem `json:"results"`
	Total   int                `json:"total"`
}

func searchResultToDTO(r result.Result, byID map[string]domain.Message) SearchResultItem {
	item := SearchResultItem{
		MessageID:   r.ID(),
		Similarity:  r.Similarity(),
		Rank:        r.Rank(),
		Explanation: r.Explanation(),
	}
	if m, ok := byID[r.ID()]; ok {
		item.Text = m.Text()
		item.SenderName = m.SenderName()
	}
	return item
}

// SummarizeRequest is the body of POST /conversations/{conversation}/summarize.
type SummarizeRequest struct {
	Instructions string `json:"instructions,omitempty"`
	MaxMessages  *int   `json:"max_messages,omitempty"`
	TimeRange
}

// RefineRequest is the body of POST /conversations/{conversation}/summarize/refine.
type RefineRequest struct {
	PreviousSummaryID string `json:"previous_summary_id"`
	Instructions      string `json:"instructions"`
}

// SummaryResponse reports a posted summary.
type SummaryResponse struct {
	MessageID    string   `json:"message_id"`
	Summary      string   `json:"summary"`
	KeyPoints    []string `json:"key_points"`
	MessagesUsed int      `json:"messages_used"`
}

// InsightsRequest bounds extraction endpoints (action items, decisions, priority).
type InsightsRequest struct {
	MaxMessages *int `json:"max_messages,omitempty"`
	TimeRange
}

// ActionItemsResponse lists extracted action items.
type ActionItemsResponse struct {
	ActionItems []domain.ActionItem `json:"action_items"`
	Total       int                 `json:"total"`
}

// DecisionsResponse lists tracked decisions.
type DecisionsResponse struct {
	Decisions []domain.Decision `json:"decisions"`
	Total     int               `json:"total"`
}

// PriorityResponse lists priority-scored messages.
type PriorityResponse struct {
	Messages []domain.PriorityMessage `json:"messages"`
	Total    int                      `json:"total"`
}

// MinutesRequest is the body of POST /conversations/{conversation}/minutes.
type MinutesRequest struct {
	Title       string `json:"title,omitempty"`
	MaxMessages *int   `json:"max_messages,omitempty"`
	TimeRange
}

// MinutesResponse reports generated meeting minutes.
type MinutesResponse struct {
	MessageID    string              `json:"message_id"`
	Title        string              `json:"title"`
	DateRange    string              `json:"date_range"`
	Participants []string            `json:"participants"`
	Summary      string              `json:"summary"`
	KeyPoints    []string            `json:"key_points"`
	ActionItems  []domain.ActionItem `json:"action_items"`
	Decisions    []domain.Decision   `json:"decisions"`
	NextSteps    []string            `json:"next_steps"`
	Document     string              `json:"document"`
}

// SuggestionResponse reports a proactive evaluation outcome.
type SuggestionResponse struct {
	Acted       bool    `json:"acted"`
	MessageID   string  `json:"message_id,omitempty"`
	ContextType string  `json:"context_type,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
	Reason      string  `json:"reason,omitempty"`
	Text        string  `json:"text,omitempty"`
}

// HealthResponse reports component health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
