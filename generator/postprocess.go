package generator

import (
	"regexp"
	"strings"
	"time"
)

// DefaultQuestion is returned when no question can be found in a continuation.
const DefaultQuestion = "What happens next?"

// storySeparator joins the previous story and a new continuation.
const storySeparator = "\n\n"

var questionRe = regexp.MustCompile(`[^.!?]*\?`)

// ExtractQuestion returns the last question sentence of text. This is a
// best-effort heuristic; DefaultQuestion is returned when nothing matches.
// Quotes are not balanced, so a quoted question keeps its opening mark.
func ExtractQuestion(text string) string {
	matches := questionRe.FindAllString(text, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		q := strings.TrimSpace(matches[i])
		if q != "?" && q != "" {
			return q
		}
	}
	return DefaultQuestion
}

// JoinStory appends continuation to previous, separated by a blank line.
func JoinStory(previous, continuation string) string {
	if previous == "" {
		return continuation
	}
	return previous + storySeparator + continuation
}

// AppendTurn returns a new history with turn appended. history is not modified
// and the result never shares its backing array.
func AppendTurn(history []ConversationTurn, turn ConversationTurn) []ConversationTurn {
	next := make([]ConversationTurn, len(history), len(history)+1)
	copy(next, history)
	return append(next, turn)
}

func newTurn(input, output string, now time.Time) ConversationTurn {
	return ConversationTurn{
		Input:     input,
		Output:    output,
		CreatedAt: now,
	}
}

// excerpt returns at most n characters of s.
func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
