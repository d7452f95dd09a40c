package generator

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput is returned by ValidateInput for empty or whitespace-only text.
	ErrInvalidInput = errors.New("new input must not be empty")
	// ErrEmptyCompletion is the cause used when the provider returned no text.
	ErrEmptyCompletion = errors.New("text generator returned an empty completion")
)

// GenerationError reports a failed call to the text generator. The provider
// error is kept as the cause.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("generation failed: %v", e.Err)
	}
	return fmt.Sprintf("generation failed (%s): %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// ValidateInput trims s and rejects empty input. Callers run it before
// Service.Continue.
func ValidateInput(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", ErrInvalidInput
	}
	return trimmed, nil
}
