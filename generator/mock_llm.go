package generator

import (
	"context"
	"strings"
	"sync"
)

// MockLLM is a local stand-in that never calls an external model. With no
// Reply set it writes a short canned paragraph that quotes the first line of
// the prompt, which is enough for local debugging of the live path.
type MockLLM struct {
	Reply string
	Usage *Usage
	Err   error

	mu      sync.Mutex
	prompts []Prompt
}

func (m *MockLLM) Complete(ctx context.Context, prompt Prompt) (Completion, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Completion{}, err
	}
	if m.Err != nil {
		return Completion{}, m.Err
	}
	if m.Reply != "" {
		return Completion{Text: m.Reply, Usage: m.Usage}, nil
	}

	lines := strings.Split(strings.TrimSpace(prompt.User), "\n")
	var sb strings.Builder
	sb.WriteString("The mock narrator picks up the thread: ")
	sb.WriteString(strings.TrimSpace(lines[0]))
	sb.WriteString(" Shadows lengthen and the moment hangs in the air. What do you want to happen next?")
	return Completion{Text: sb.String(), Usage: m.Usage}, nil
}

// Prompts returns the prompts received so far.
func (m *MockLLM) Prompts() []Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Prompt, len(m.prompts))
	copy(out, m.prompts)
	return out
}
