package chat

import (
	"sync"

	"github.com/gviz-app/gviz-api/internal/domain"
)

// conversation is one user's transcript. Its mutex serializes whole turns:
// the service holds it across the provider call so that concurrent requests
// from the same user cannot interleave.
type conversation struct {
	mu    sync.Mutex
	turns []domain.Turn
}

// appendLocked appends a turn and trims to the newest maxTurns.
// Callers must hold c.mu.
func (c *conversation) appendLocked(maxTurns int, t domain.Turn) {
	c.turns = append(c.turns, t)
	if maxTurns > 0 && len(c.turns) > maxTurns {
		trimmed := make([]domain.Turn, maxTurns)
		copy(trimmed, c.turns[len(c.turns)-maxTurns:])
		c.turns = trimmed
	}
}

func (c *conversation) snapshotLocked() []domain.Turn {
	out := make([]domain.Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// History holds per-user conversation state. It is volatile by contract:
// transcripts do not survive a restart. maxTurns bounds per-user growth;
// the oldest turns are dropped once the cap is hit.
type History struct {
	mu       sync.Mutex
	sessions map[domain.UserID]*conversation
	maxTurns int
}

func NewHistory(maxTurns int) *History {
	return &History{
		sessions: make(map[domain.UserID]*conversation),
		maxTurns: maxTurns,
	}
}

// session returns the user's conversation, creating it lazily. The map-level
// lock is held only for the lookup; turn-level work locks the conversation.
func (h *History) session(userID domain.UserID) *conversation {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.sessions[userID]
	if !ok {
		c = &conversation{}
		h.sessions[userID] = c
	}
	return c
}

// Append records a single turn for the user, atomically per user.
func (h *History) Append(userID domain.UserID, role domain.Role, text string) {
	c := h.session(userID)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.appendLocked(h.maxTurns, domain.Turn{Role: role, Text: text})
}

// Turns returns a copy of the user's transcript in chronological order.
func (h *History) Turns(userID domain.UserID) []domain.Turn {
	c := h.session(userID)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}
