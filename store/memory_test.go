package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auramythos/generator"
)

func testSnapshot(id string) generator.Snapshot {
	return generator.Snapshot{
		ID:     id,
		Format: "book",
		Story:  "Once.",
		History: []generator.ConversationTurn{
			{Input: "start", Output: "Once.", CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		},
		UpdatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)

	_, err := s.Load(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	snap := testSnapshot("a")
	require.NoError(t, s.Save(ctx, snap))

	got, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	got.History[0].Input = "mutated"
	again, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "start", again.History[0].Input)

	require.NoError(t, s.Delete(ctx, "a"))
	_, err = s.Load(ctx, "a")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Delete(ctx, "a"))
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Minute)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(ctx, testSnapshot("a")))

	now = now.Add(30 * time.Second)
	_, err := s.Load(ctx, "a")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = s.Load(ctx, "a")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(0)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(ctx, testSnapshot("a")))
	now = now.Add(1000 * time.Hour)
	_, err := s.Load(ctx, "a")
	require.NoError(t, err)
}
