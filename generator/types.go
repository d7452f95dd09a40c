package generator

import "time"

// FormatTemplate is a named story mode and the instruction used to keep
// generation short and interactive.
type FormatTemplate struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	SystemPrompt string `json:"-"`
}

// ConversationTurn records one exchange. Turns are never mutated after creation.
type ConversationTurn struct {
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	CreatedAt time.Time `json:"timestamp"`
}

// Usage is token accounting passed through from the text generator.
type Usage struct {
	PromptTokens     int64 `json:"promptTokens"`
	CompletionTokens int64 `json:"completionTokens"`
	TotalTokens      int64 `json:"totalTokens"`
}

// ContinueRequest is the input of Service.Continue. History is owned by the
// caller and is never written to.
type ContinueRequest struct {
	NewInput        string
	PreviousContext string
	Format          string
	History         []ConversationTurn
}

// ContinuationResult is the outcome of one continuation.
type ContinuationResult struct {
	Continuation        string             `json:"continuation"`
	FullStory           string             `json:"fullStory"`
	Question            string             `json:"question"`
	Demo                bool               `json:"demo"`
	Format              string             `json:"format"`
	ConversationHistory []ConversationTurn `json:"conversationHistory"`
	Usage               *Usage             `json:"usage,omitempty"`
}
