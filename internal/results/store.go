package results

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/submanager/internal/domain"
)

// Store keeps one ResultSet per session in memory and is safe for
// concurrent use. Sets are copied on the way in and out.
// Data is lost on restart.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*ResultSet
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*ResultSet),
	}
}

// Put replaces the session's result set.
func (s *Store) Put(ctx context.Context, sessionID string, rs *ResultSet) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}
	if rs == nil {
		return fmt.Errorf("result set is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sessionID] = rs.Clone()
	return nil
}

// Get returns a copy of the session's result set. The boolean is false when
// the session has no result yet.
func (s *Store) Get(ctx context.Context, sessionID string) (*ResultSet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rs, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return rs.Clone(), true
}

// MarkCancelled marks a subscription in the session's result set.
func (s *Store) MarkCancelled(ctx context.Context, sessionID, id string) (domain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs, ok := s.sessions[sessionID]
	if !ok {
		return domain.Subscription{}, fmt.Errorf("MarkCancelled: session %s: %w", sessionID, domain.ErrNotFound)
	}
	return rs.MarkCancelled(id)
}

// Remove deletes a subscription from the session's result set.
func (s *Store) Remove(ctx context.Context, sessionID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("Remove: session %s: %w", sessionID, domain.ErrNotFound)
	}
	return rs.Remove(id)
}

// Delete drops a session.
func (s *Store) Delete(ctx context.Context, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
}
