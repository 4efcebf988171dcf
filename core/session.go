package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL is the idle window after which a session expires. A
// session older than this (measured from LastActivity) behaves as absent even
// before any cleanup pass removes it.
const DefaultSessionTTL = 24 * time.Hour

// Session is a per-user conversational container holding an ordered message
// history. It is safe for concurrent access.
//
// Contract:
//   - Messages are append-only and chronological
//   - Append advances LastActivity, sliding the expiry window forward
//   - Recent returns a defensive copy to avoid external mutation
//   - Clone performs a deep copy for safe divergence.
type Session struct {
	ID           string    `json:"session_id"`
	UserID       string    `json:"user_id"`
	Messages     []Message `json:"messages"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	mu           sync.RWMutex
}

// NewSession creates an empty session for the given user at the given time.
func NewSession(userID string, now time.Time) *Session {
	return &Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		Messages:     []Message{},
		CreatedAt:    now,
		LastActivity: now,
	}
}

// Append adds a message to the history. LastActivity advances to the message
// timestamp, so every append pushes the session's expiry out.
func (s *Session) Append(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, msg)
	s.LastActivity = msg.Timestamp
}

// Recent returns a copy of the last limit messages in chronological order,
// or the full history when limit is zero or negative.
func (s *Session) Recent(limit int) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := 0
	if limit > 0 && len(s.Messages) > limit {
		start = len(s.Messages) - limit
	}
	out := make([]Message, len(s.Messages)-start)
	copy(out, s.Messages[start:])
	return out
}

// Len reports the number of stored messages.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.Messages)
}

// LastActive returns the LastActivity timestamp under the session lock.
func (s *Session) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastActivity
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{
		ID:           s.ID,
		UserID:       s.UserID,
		Messages:     make([]Message, len(s.Messages)),
		CreatedAt:    s.CreatedAt,
		LastActivity: s.LastActivity,
	}
	copy(clone.Messages, s.Messages)
	return clone
}
