package domain

// LLM analysis outputs. These are plain data carriers produced by the
// extraction use cases; validation of model output happens at the
// provider boundary.

// Summary is the result of summarizing a conversation thread.
type Summary struct {
	Summary   string
	KeyPoints []string
}

// ActionItem is a task or commitment extracted from a conversation.
type ActionItem struct {
	Task       string
	AssignedTo string // empty when unclear
	Deadline   string // free-form, empty when none mentioned
	Priority   string // low, medium, high
	MessageID  string // message where it was mentioned
	Context    string
}

// Decision is an agreement or resolution identified in a conversation.
type Decision struct {
	Decision   string
	DecidedBy  []string
	Timestamp  string
	Confidence float64 // 0.0-1.0, how certain this is a decision
	Context    string
	MessageIDs []string
}

// PriorityMessage flags an urgent or blocking message.
type PriorityMessage struct {
	MessageID     string
	PriorityScore float64 // 0.0-1.0, 1.0 = most urgent
	UrgencyLevel  string  // low, medium, high, urgent
	Reasons       []string
}

// Minutes is the full meeting-minutes report assembled by the minutes
// pipeline.
type Minutes struct {
	Title        string
	DateRange    string
	Participants []string
	Summary      string
	KeyPoints    []string
	ActionItems  []ActionItem
	Decisions    []Decision
	NextSteps    []string
	Document     string // markdown rendering of the above
}

// Suggestion is a proactive assistant outcome. When ShouldAct is false
// the remaining fields explain why nothing was posted.
type Suggestion struct {
	ShouldAct   bool
	ContextType string // cinema, restaurant, generic, none
	Confidence  float64
	Reason      string
	Text        string
}
