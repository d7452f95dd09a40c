package generator

import (
	"fmt"
)

// Prompt is what gets sent to the text generator.
type Prompt struct {
	System      string
	User        string
	MaxTokens   int64
	Temperature float64
}

// BuildContinuationPrompt builds the system/user pair for one continuation.
// The user turn differs depending on whether a story already exists.
func BuildContinuationPrompt(tmpl FormatTemplate, newInput, previousContext string) Prompt {
	var user string
	if previousContext != "" {
		user = fmt.Sprintf("Previous story so far: \"%s\"\n\n"+
			"User's new input: \"%s\"\n\n"+
			"Continue the story with ONE paragraph that weaves in the user's new input, then ask what happens next.",
			previousContext, newInput)
	} else {
		user = fmt.Sprintf("User's story beginning: \"%s\"\n\n"+
			"Start the story with ONE paragraph based on this beginning, then ask what happens next.",
			newInput)
	}
	return Prompt{
		System: tmpl.SystemPrompt,
		User:   user,
	}
}
