package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Allen20077/8berries/internal/domain"
)

// MemoryCredentialStore is an in-memory CredentialStore, used in tests and
// when no database is configured.
type MemoryCredentialStore struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewMemoryCredentialStore creates an empty in-memory credential store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{users: make(map[string]domain.User)}
}

func (s *MemoryCredentialStore) Lookup(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[normalize(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := user
	return &out, nil
}

func (s *MemoryCredentialStore) Create(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalize(user.Email)
	if _, exists := s.users[key]; exists {
		return domain.ErrUserExists
	}
	user.Email = key
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[key] = user
	return nil
}

func (s *MemoryCredentialStore) LinkGoogle(_ context.Context, email, googleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalize(email)
	user, ok := s.users[key]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.GoogleID = googleID
	s.users[key] = user
	return nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
