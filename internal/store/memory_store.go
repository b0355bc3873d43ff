package store

import (
	"context"
	"sync"
	"time"

	"github.com/Allen20077/8berries/internal/domain"
)

// MemorySessionStore is an in-memory chat.SessionStore implementation, used
// in tests and when no database path is configured.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	turns    map[string][]domain.Turn
	order    map[domain.Identity][]string // identity → session ids, creation order
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*domain.Session),
		turns:    make(map[string][]domain.Turn),
		order:    make(map[domain.Identity][]string),
	}
}

func (s *MemorySessionStore) GetOrCreate(_ context.Context, identity domain.Identity) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess := s.latestLocked(identity); sess != nil {
		out := *sess
		return &out, nil
	}
	return s.createLocked(identity, domain.DefaultSessionTitle), nil
}

func (s *MemorySessionStore) Create(_ context.Context, identity domain.Identity, title string) (*domain.Session, error) {
	if title == "" {
		title = domain.DefaultSessionTitle
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(identity, title), nil
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	out := *sess
	return &out, nil
}

func (s *MemorySessionStore) ListByIdentity(_ context.Context, identity domain.Identity) ([]domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pinned, rest []domain.Session
	for _, sess := range s.byUpdatedLocked(identity) {
		if sess.Pinned {
			pinned = append(pinned, *sess)
		} else {
			rest = append(rest, *sess)
		}
	}
	return append(pinned, rest...), nil
}

func (s *MemorySessionStore) AppendTurn(_ context.Context, sessionID string, turn domain.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}

	turn.SessionID = sessionID
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	s.turns[sessionID] = append(s.turns[sessionID], turn)
	sess.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemorySessionStore) ListTurns(_ context.Context, sessionID string) ([]domain.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return nil, domain.ErrSessionNotFound
	}

	turns := s.turns[sessionID]
	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (s *MemorySessionStore) Rename(_ context.Context, id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	sess.Title = title
	sess.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemorySessionStore) SetPinned(_ context.Context, id string, pinned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	sess.Pinned = pinned
	sess.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	delete(s.sessions, id)
	delete(s.turns, id)

	ids := s.order[sess.Identity]
	for i, sid := range ids {
		if sid == id {
			s.order[sess.Identity] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// locked helpers

func (s *MemorySessionStore) createLocked(identity domain.Identity, title string) *domain.Session {
	sess := newSession(identity, title)
	s.sessions[sess.ID] = sess
	s.order[identity] = append(s.order[identity], sess.ID)
	out := *sess
	return &out
}

// latestLocked returns the most recently updated session for the identity.
func (s *MemorySessionStore) latestLocked(identity domain.Identity) *domain.Session {
	var latest *domain.Session
	for _, id := range s.order[identity] {
		sess := s.sessions[id]
		if latest == nil || sess.UpdatedAt.After(latest.UpdatedAt) {
			latest = sess
		}
	}
	return latest
}

// byUpdatedLocked returns the identity's sessions most recently updated first.
func (s *MemorySessionStore) byUpdatedLocked(identity domain.Identity) []*domain.Session {
	ids := s.order[identity]
	out := make([]*domain.Session, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.sessions[id])
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].UpdatedAt.After(out[j-1].UpdatedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
