package mcp

import "sync"

// sessionHistoryCap bounds each recency ring buffer, per spec.md §5.
const sessionHistoryCap = 10

// Session is a per-transport record holding small recency ring-buffers;
// created lazily on first query. Grounded on server.go's
// watchers/watchersMu pattern: a process-wide map guarded by its own mutex.
type Session struct {
	TransportID      string
	RecentSearches    []string
	RecentEntities    []string
	RecentPaths       [][2]string
}

func newSession(transportID string) *Session {
	return &Session{TransportID: transportID}
}

func pushCapped[T any](buf []T, item T, cap int) []T {
	buf = append(buf, item)
	if len(buf) > cap {
		buf = buf[len(buf)-cap:]
	}
	return buf
}

// sessionStore is the process-wide map of transport-id to Session.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*Session)}
}

func (s *sessionStore) get(transportID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[transportID]
	if !ok {
		sess = newSession(transportID)
		s.sessions[transportID] = sess
	}
	return sess
}

func (s *sessionStore) recordSearch(transportID, query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessionLocked(transportID)
	sess.RecentSearches = pushCapped(sess.RecentSearches, query, sessionHistoryCap)
}

func (s *sessionStore) recordEntity(transportID, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessionLocked(transportID)
	sess.RecentEntities = pushCapped(sess.RecentEntities, id, sessionHistoryCap)
}

func (s *sessionStore) recordPath(transportID, src, dst string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessionLocked(transportID)
	sess.RecentPaths = pushCapped(sess.RecentPaths, [2]string{src, dst}, sessionHistoryCap)
}

// sessionLocked assumes s.mu is already held.
func (s *sessionStore) sessionLocked(transportID string) *Session {
	sess, ok := s.sessions[transportID]
	if !ok {
		sess = newSession(transportID)
		s.sessions[transportID] = sess
	}
	return sess
}
