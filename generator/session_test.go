package generator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Continue(t *testing.T) {
	svc := newTestService(&MockLLM{Reply: "A paragraph. What next?"})
	sess := NewSession("s1", "comic", svc)

	_, err := sess.Continue(context.Background(), "first", PolicyRaise)
	require.NoError(t, err)
	res, err := sess.Continue(context.Background(), "second", PolicyRaise)
	require.NoError(t, err)

	snap := sess.Snapshot()
	assert.Equal(t, "s1", snap.ID)
	assert.Equal(t, "comic", snap.Format)
	assert.Equal(t, "A paragraph. What next?\n\nA paragraph. What next?", snap.Story)
	assert.Equal(t, res.FullStory, snap.Story)
	require.Len(t, snap.History, 2)
	assert.Equal(t, "first", snap.History[0].Input)
	assert.Equal(t, "second", snap.History[1].Input)
}

func TestSession_UnknownFormat(t *testing.T) {
	sess := NewSession("s", "nope", newTestService(nil))
	assert.Equal(t, DefaultFormatID, sess.Snapshot().Format)
}

func TestSession_FailureLeavesStateUnchanged(t *testing.T) {
	llm := &MockLLM{Reply: "Opening."}
	svc := newTestService(llm)
	sess := NewSession("s", "book", svc)

	_, err := sess.Continue(context.Background(), "start", PolicyRaise)
	require.NoError(t, err)
	before := sess.Snapshot()

	llm.Err = errors.New("boom")
	_, err = sess.Continue(context.Background(), "more", PolicyRaise)
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, before, sess.Snapshot())

	res, err := sess.Continue(context.Background(), "more", PolicyDemo)
	require.NoError(t, err)
	assert.True(t, res.Demo)
	assert.Len(t, sess.Snapshot().History, 2)
}

func TestRestoreSession(t *testing.T) {
	svc := newTestService(nil)
	snap := Snapshot{
		ID:      "r1",
		Format:  "screenplay",
		Story:   "INT. KITCHEN - NIGHT",
		History: []ConversationTurn{{Input: "kitchen", Output: "INT. KITCHEN - NIGHT"}},
	}
	sess := RestoreSession(snap, svc)
	assert.Equal(t, "r1", sess.ID())

	res, err := sess.Continue(context.Background(), "A kettle whistles.", PolicyRaise)
	require.NoError(t, err)
	assert.Equal(t, "INT. KITCHEN - NIGHT\n\n"+res.Continuation, res.FullStory)
	assert.Len(t, res.ConversationHistory, 2)
	assert.Len(t, snap.History, 1)

	empty := RestoreSession(Snapshot{ID: "e"}, svc)
	assert.NotNil(t, empty.Snapshot().History)
}

func TestSession_ConcurrentContinue(t *testing.T) {
	sess := NewSession("c", "book", newTestService(&MockLLM{Reply: "Beat."}))

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := sess.Continue(context.Background(), "go", PolicyRaise)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap := sess.Snapshot()
	assert.Len(t, snap.History, n)
}
