package core

// DefaultListLimit caps ListSessions results when the caller does not supply
// a positive limit.
const DefaultListLimit = 50

// SessionStats summarizes the state of one user's session population. Expired
// counts sessions past their idle TTL that no cleanup pass has removed yet.
type SessionStats struct {
	Total   int `json:"total_sessions"`
	Active  int `json:"active_sessions"`
	Expired int `json:"expired_sessions"`
}

// SessionStore manages per-user conversational sessions with idle-based
// expiry. Tenants are fully isolated: one user's sessions are invisible to
// every other user id, and an unknown user id yields empty results rather
// than an error. Expiry is lazy, so an expired session behaves as absent on
// reads whether or not CleanupExpiredSessions has run.
type SessionStore interface {
	// CreateSession starts a new empty session for the user and returns a
	// detached copy of it.
	CreateSession(userID string) *Session

	// GetSession returns a clone of the session iff it exists for the user
	// and is not expired; otherwise ErrSessionNotFound.
	GetSession(userID, sessionID string) (*Session, error)

	// AddMessage appends a message to a live session, refreshing its
	// activity window, and returns a copy of the stored message.
	// ErrSessionNotFound when the session is absent or expired.
	AddMessage(userID, sessionID string, role Role, content string) (*Message, error)

	// ConversationHistory returns the last limit messages (all when limit
	// <= 0) in chronological order, or an empty slice for an absent or
	// expired session.
	ConversationHistory(userID, sessionID string, limit int) []Message

	// DeleteSession removes a session regardless of expiry state and reports
	// whether a removal occurred.
	DeleteSession(userID, sessionID string) bool

	// DeleteAllSessions removes every session for the user, returning the
	// count removed (expired but not yet swept sessions included).
	DeleteAllSessions(userID string) int

	// ListSessions returns clones of the user's live sessions ordered by
	// last activity, most recent first, truncated to limit (<= 0 applies
	// DefaultListLimit).
	ListSessions(userID string, limit int) []*Session

	// CleanupExpiredSessions removes exactly the user's expired sessions and
	// returns the count. The in-memory implementation never errors; the
	// error return exists for durable backends.
	CleanupExpiredSessions(userID string) (int, error)

	// SessionStats counts the user's resident, live and expired sessions
	// without mutating anything.
	SessionStats(userID string) SessionStats

	// UserIDs returns a snapshot of user ids currently holding sessions.
	UserIDs() []string
}
