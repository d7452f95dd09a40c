package generator

import (
	"context"
	"sync"
	"time"
)

// Session holds one writer's running story and history between calls. Calls
// on the same Session are serialized.
type Session struct {
	mu        sync.Mutex
	id        string
	format    string
	story     string
	history   []ConversationTurn
	updatedAt time.Time
	svc       *Service
}

// Snapshot is the serializable state of a Session.
type Snapshot struct {
	ID        string             `json:"sessionId"`
	Format    string             `json:"format"`
	Story     string             `json:"story"`
	History   []ConversationTurn `json:"history"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// NewSession creates an empty session.
func NewSession(id, format string, svc *Service) *Session {
	return &Session{
		id:        id,
		format:    svc.Formats().Resolve(format).ID,
		history:   []ConversationTurn{},
		updatedAt: time.Now(),
		svc:       svc,
	}
}

// RestoreSession rebuilds a session from a stored snapshot.
func RestoreSession(snap Snapshot, svc *Service) *Session {
	history := snap.History
	if history == nil {
		history = []ConversationTurn{}
	}
	return &Session{
		id:        snap.ID,
		format:    svc.Formats().Resolve(snap.Format).ID,
		story:     snap.Story,
		history:   history,
		updatedAt: snap.UpdatedAt,
		svc:       svc,
	}
}

func (s *Session) ID() string {
	return s.id
}

// Continue appends the next continuation for input. On failure the session is
// left unchanged.
func (s *Session) Continue(ctx context.Context, input string, policy ErrorPolicy) (ContinuationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req := ContinueRequest{
		NewInput:        input,
		PreviousContext: s.story,
		Format:          s.format,
		History:         s.history,
	}
	res, err := s.svc.Continue(ctx, req)
	res, err = policy.Apply(s.svc, req, res, err)
	if err != nil {
		return ContinuationResult{}, err
	}
	s.story = res.FullStory
	s.history = res.ConversationHistory
	s.updatedAt = time.Now()
	return res, nil
}

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := make([]ConversationTurn, len(s.history))
	copy(history, s.history)
	return Snapshot{
		ID:        s.id,
		Format:    s.format,
		Story:     s.story,
		History:   history,
		UpdatedAt: s.updatedAt,
	}
}
