package session

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/MarkAPhillips/weather-ai-assistant/core"
	"github.com/MarkAPhillips/weather-ai-assistant/logging"
	"github.com/MarkAPhillips/weather-ai-assistant/ttlcache"
)

// scopeCache holds one user's sessions keyed by session id.
type scopeCache = ttlcache.Cache[string, *core.Session]

// Options configures an InMemoryStore.
type Options struct {
	// TTL is the idle window after which a session expires. Activity
	// restarts the window. Defaults to core.DefaultSessionTTL.
	TTL time.Duration
	// NowFunc supplies the current time. Defaults to time.Now.
	NowFunc func() time.Time
	// Logger receives store lifecycle events. Defaults to a no-op.
	Logger logging.Logger
}

// InMemoryStore is a volatile SessionStore keeping sessions in process
// local maps, one scope per user. It is safe for concurrent access.
// Every returned session is cloned to prevent external mutation of
// internal state.
type InMemoryStore struct {
	mu     sync.RWMutex
	scopes map[string]*scopeCache
	ttl    time.Duration
	now    func() time.Time
	logger logging.Logger
}

var _ core.SessionStore = (*InMemoryStore)(nil)

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore(optFns ...func(o *Options)) *InMemoryStore {
	o := Options{
		TTL:     core.DefaultSessionTTL,
		NowFunc: time.Now,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&o)
	}
	return &InMemoryStore{
		scopes: make(map[string]*scopeCache),
		ttl:    o.TTL,
		now:    o.NowFunc,
		logger: o.Logger,
	}
}

// withScope runs fn against the user's scope, creating the scope first
// if needed. fn executes while the outer lock is held, so a concurrent
// prune cannot orphan the scope mid-operation.
func (s *InMemoryStore) withScope(userID string, fn func(sc *scopeCache)) {
	s.mu.RLock()
	if sc, ok := s.scopes[userID]; ok {
		fn(sc)
		s.mu.RUnlock()
		return
	}
	s.mu.RUnlock()

	s.mu.Lock()
	sc, ok := s.scopes[userID]
	if !ok {
		sc = ttlcache.New[string, *core.Session](s.ttl, func(o *ttlcache.Options) {
			o.NowFunc = s.now
		})
		s.scopes[userID] = sc
	}
	fn(sc)
	s.mu.Unlock()
}

// withExisting runs fn against the user's scope if one exists and
// reports whether it did. Unknown users are a silent no-op.
func (s *InMemoryStore) withExisting(userID string, fn func(sc *scopeCache)) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.scopes[userID]
	if !ok {
		return false
	}
	fn(sc)
	return true
}

// pruneEmptyScope removes the user's scope once its last session is
// gone, so abandoned users do not accumulate.
func (s *InMemoryStore) pruneEmptyScope(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sc, ok := s.scopes[userID]; ok && sc.Len() == 0 {
		delete(s.scopes, userID)
	}
}

// CreateSession starts a fresh conversation for the user and returns a
// copy of it.
func (s *InMemoryStore) CreateSession(userID string) *core.Session {
	sess := core.NewSession(userID, s.now())
	s.withScope(userID, func(sc *scopeCache) {
		sc.Put(sess.ID, sess)
	})
	s.logger.Debug("session created", "user_id", userID, "session_id", sess.ID)
	return sess.Clone()
}

// GetSession returns a copy of the session, or ErrSessionNotFound when
// it does not exist for this user or has sat idle past its TTL.
func (s *InMemoryStore) GetSession(userID, sessionID string) (*core.Session, error) {
	var found *core.Session
	s.withExisting(userID, func(sc *scopeCache) {
		if sess, ok := sc.Get(sessionID); ok {
			found = sess.Clone()
		}
	})
	if found == nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, core.ErrSessionNotFound)
	}
	return found, nil
}

// AddMessage appends a message to the session and restarts its idle
// window. The stored message, with its generated id and timestamp, is
// returned.
func (s *InMemoryStore) AddMessage(userID, sessionID string, role core.Role, content string) (*core.Message, error) {
	var msg *core.Message
	s.withExisting(userID, func(sc *scopeCache) {
		sess, ok := sc.Get(sessionID)
		if !ok {
			return
		}
		m := core.NewMessage(role, content, s.now())
		sess.Append(m)
		sc.Touch(sessionID)
		msg = &m
	})
	if msg == nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, core.ErrSessionNotFound)
	}
	return msg, nil
}

// ConversationHistory returns the session's most recent messages,
// oldest first. A limit of zero or less returns the full transcript.
// Unknown users or sessions yield an empty slice, never an error.
func (s *InMemoryStore) ConversationHistory(userID, sessionID string, limit int) []core.Message {
	history := []core.Message{}
	s.withExisting(userID, func(sc *scopeCache) {
		if sess, ok := sc.Get(sessionID); ok {
			history = sess.Recent(limit)
		}
	})
	return history
}

// DeleteSession removes the session and reports whether one was
// resident, expired entries included.
func (s *InMemoryStore) DeleteSession(userID, sessionID string) bool {
	deleted := false
	s.withExisting(userID, func(sc *scopeCache) {
		deleted = sc.Invalidate(sessionID)
	})
	if deleted {
		s.pruneEmptyScope(userID)
		s.logger.Debug("session deleted", "user_id", userID, "session_id", sessionID)
	}
	return deleted
}

// DeleteAllSessions drops every session the user has, returning how
// many were resident.
func (s *InMemoryStore) DeleteAllSessions(userID string) int {
	s.mu.Lock()
	sc, ok := s.scopes[userID]
	if ok {
		delete(s.scopes, userID)
	}
	s.mu.Unlock()
	if !ok {
		return 0
	}
	n := sc.Len()
	if n > 0 {
		s.logger.Debug("sessions cleared", "user_id", userID, "count", n)
	}
	return n
}

// ListSessions returns copies of the user's live sessions ordered by
// most recent activity first. A limit of zero or less applies
// core.DefaultListLimit.
func (s *InMemoryStore) ListSessions(userID string, limit int) []*core.Session {
	if limit <= 0 {
		limit = core.DefaultListLimit
	}
	sessions := []*core.Session{}
	s.withExisting(userID, func(sc *scopeCache) {
		for _, sess := range sc.Values() {
			sessions = append(sessions, sess.Clone())
		}
	})
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastActivity.After(sessions[j].LastActivity)
	})
	if len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions
}

// CleanupExpiredSessions removes the user's expired sessions and
// returns how many were dropped.
func (s *InMemoryStore) CleanupExpiredSessions(userID string) (int, error) {
	removed := 0
	s.withExisting(userID, func(sc *scopeCache) {
		removed = sc.Sweep()
	})
	if removed > 0 {
		s.pruneEmptyScope(userID)
		s.logger.Info("expired sessions removed", "user_id", userID, "count", removed)
	}
	return removed, nil
}

// SessionStats counts the user's resident sessions, split into live
// and expired-but-not-yet-removed.
func (s *InMemoryStore) SessionStats(userID string) core.SessionStats {
	var stats core.SessionStats
	s.withExisting(userID, func(sc *scopeCache) {
		total, valid := sc.Counts()
		stats = core.SessionStats{Total: total, Active: valid, Expired: total - valid}
	})
	return stats
}

// UserIDs returns the ids of every user with at least one resident
// session, sorted for stable iteration.
func (s *InMemoryStore) UserIDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.scopes))
	for id := range s.scopes {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}
