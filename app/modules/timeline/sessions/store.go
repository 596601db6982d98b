// Package timelinesessions keeps each viewer's dragged event placements in memory.
package timelinesessions

import (
	"sync"
	"time"

	"github.com/tnt-tag-history/tnt-history/app/modules/timeline/layout"
)

const (
	// cleanupThreshold is the minimum map size before a cleanup pass runs.
	cleanupThreshold = 500
	// DefaultTTL is how long an untouched session keeps its overrides.
	DefaultTTL = 24 * time.Hour
)

type session struct {
	overrides layout.Overrides
	lastSeen  time.Time
}

// Store maps session id to overrides. Sessions idle for longer than the TTL
// are treated as empty and pruned inline once the map grows.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates a Store. ttl <= 0 uses DefaultTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Overrides returns a copy of the session's overrides. Unknown or expired
// sessions have none.
func (s *Store) Overrides(sessionID string) layout.Overrides {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.live(sessionID)
	if sess == nil {
		return layout.Overrides{}
	}
	sess.lastSeen = s.now()
	out := make(layout.Overrides, len(sess.overrides))
	for id, o := range sess.overrides {
		out[id] = o
	}
	return out
}

// Drag records a manual placement for eventID and returns it.
func (s *Store) Drag(sessionID, eventID string, column int, positionAtDragTime, scale float64) layout.Override {
	override := layout.NewOverride(column, positionAtDragTime, scale)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanupLocked()
	sess := s.live(sessionID)
	if sess == nil {
		sess = &session{overrides: layout.Overrides{}}
		s.sessions[sessionID] = sess
	}
	sess.overrides[eventID] = override
	sess.lastSeen = s.now()
	return override
}

// Reset drops every override of the session.
func (s *Store) Reset(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// PruneEvent removes eventID from every session and reports how many sessions held it.
func (s *Store) PruneEvent(eventID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for _, sess := range s.sessions {
		if _, ok := sess.overrides[eventID]; ok {
			delete(sess.overrides, eventID)
			pruned++
		}
	}
	return pruned
}

// Len returns the number of stored sessions, expired ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// live returns the session or nil when it is missing or expired. Callers hold mu.
func (s *Store) live(sessionID string) *session {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	if s.now().Sub(sess.lastSeen) > s.ttl {
		delete(s.sessions, sessionID)
		return nil
	}
	return sess
}

func (s *Store) cleanupLocked() {
	if len(s.sessions) <= cleanupThreshold {
		return
	}
	cutoff := s.now().Add(-s.ttl)
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}
