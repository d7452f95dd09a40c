package generator

import (
	"context"
	"time"
)

// LLMClient abstracts the text-generation provider so it can be swapped or mocked.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (Completion, error)
}

// Completion is the raw provider output.
type Completion struct {
	Text  string
	Usage *Usage
}

// LLMSettings is the provider configuration handed to concrete clients.
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}
