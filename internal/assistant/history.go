package assistant

import (
	"context"
	"sync"
)

// HistoryStore persists the user/assistant exchanges of a session. Tool
// rounds are not stored; only the question and the final answer are.
type HistoryStore interface {
	Append(ctx context.Context, sessionID string, messages ...Message) error
	Recent(ctx context.Context, sessionID string, limit int) ([]Message, error)
	Clear(ctx context.Context, sessionID string) error
}

// MemoryHistory is the in-process default. Each session keeps at most
// maxTurns messages; older ones fall off the front.
type MemoryHistory struct {
	mu       sync.RWMutex
	sessions map[string][]Message
	maxTurns int
}

// NewMemoryHistory creates a bounded in-memory history store.
func NewMemoryHistory(maxTurns int) *MemoryHistory {
	if maxTurns <= 0 {
		maxTurns = DefaultHistoryTurns
	}
	return &MemoryHistory{
		sessions: make(map[string][]Message),
		maxTurns: maxTurns,
	}
}

// Append adds messages to a session, trimming from the front past the bound.
func (h *MemoryHistory) Append(_ context.Context, sessionID string, messages ...Message) error {
	if len(messages) == 0 {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	turns := append(h.sessions[sessionID], messages...)
	if len(turns) > h.maxTurns {
		turns = turns[len(turns)-h.maxTurns:]
	}
	h.sessions[sessionID] = turns
	return nil
}

// Recent returns up to limit of the newest messages, oldest first.
func (h *MemoryHistory) Recent(_ context.Context, sessionID string, limit int) ([]Message, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	turns := h.sessions[sessionID]
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return append([]Message(nil), turns...), nil
}

// Clear forgets a session.
func (h *MemoryHistory) Clear(_ context.Context, sessionID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, sessionID)
	return nil
}
