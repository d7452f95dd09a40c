package generator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractQuestion(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"trailing question", "The door creaked open. What happens when they open the door?", "What happens when they open the door?"},
		{"no question mark", "The door creaked open. Nobody spoke.", DefaultQuestion},
		{"empty", "", DefaultQuestion},
		{"last of several", "Who knocked? She waited. Would it come again?", "Would it come again?"},
		{"question mid text", "Is anyone there? The hall stayed silent.", "Is anyone there?"},
		{"bare question mark", "It ended. ?", DefaultQuestion},
		{"exclamation boundary", "Run! Where to now?", "Where to now?"},
		{"newline before question", "The map burned.\nWhere would they go?", "Where would they go?"},
		{"quoted question keeps opening quote", "\"Where is it?\" she asked.", "\"Where is it?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractQuestion(tt.text))
		})
	}
}

func TestJoinStory(t *testing.T) {
	assert.Equal(t, "next", JoinStory("", "next"))
	assert.Equal(t, "before\n\nnext", JoinStory("before", "next"))
}

func TestAppendTurn(t *testing.T) {
	turn := newTurn("in", "out", time.Unix(0, 0))

	got := AppendTurn(nil, turn)
	assert.Equal(t, []ConversationTurn{turn}, got)

	base := []ConversationTurn{{Input: "a"}}
	one := AppendTurn(base, turn)
	two := AppendTurn(base, newTurn("other", "x", time.Unix(1, 0)))
	assert.Equal(t, "in", one[1].Input)
	assert.Equal(t, "other", two[1].Input)
	assert.Len(t, base, 1)
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "abc", excerpt("abc", 5))
	assert.Equal(t, "ab", excerpt("abc", 2))
	assert.Equal(t, "日本", excerpt("日本語", 2))
}
