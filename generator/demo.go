package generator

// demoExcerptLen is how many characters of the user's input the demo echoes.
const demoExcerptLen = 50

const (
	demoSentence = "The story takes an unexpected turn as new possibilities unfold, " +
		"drawing the characters deeper into a world that is only beginning to reveal itself."
	demoQuestion = "What happens next in your story?"
)

// DemoContinuation is the deterministic placeholder used when no text
// generator is configured. It starts with the first 50 characters of
// newInput in double quotes.
func DemoContinuation(newInput string) string {
	return `"` + excerpt(newInput, demoExcerptLen) + `"... ` + demoSentence + " " + demoQuestion
}
