// Package auth handles local credentials, browser sessions, and the Google
// OAuth flow. The chat core never touches credentials; it only sees the
// identity string this package resolves.
package auth

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Allen20077/8berries/internal/domain"
	"github.com/Allen20077/8berries/internal/logging"
)

// Validation errors surfaced to the signup/login forms.
var (
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrMissingFields    = errors.New("email and password are required")
)

// CredentialStore is the persistence surface for account records.
type CredentialStore interface {
	Lookup(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user domain.User) error
	LinkGoogle(ctx context.Context, email, googleID string) error
}

// Service implements signup, login, and OAuth account provisioning.
type Service struct {
	creds CredentialStore
	log   *logging.Logger
}

// NewService creates an auth service.
func NewService(creds CredentialStore, log *logging.Logger) *Service {
	return &Service{creds: creds, log: log.Sub("auth")}
}

// SignUp registers a local account and returns its identity.
func (s *Service) SignUp(ctx context.Context, email, password, confirm string) (domain.Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", ErrMissingFields
	}
	if password != confirm {
		return "", ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	user := domain.User{Email: strings.ToLower(email), PasswordHash: string(hash)}
	if err := s.creds.Create(ctx, user); err != nil {
		return "", err
	}

	s.log.Info().Str("email", user.Email).Msg("account created")
	return domain.Identity(user.Email), nil
}

// LogIn verifies local credentials and returns the identity. Unknown email
// and wrong password both read as invalid credentials.
func (s *Service) LogIn(ctx context.Context, email, password string) (domain.Identity, error) {
	user, err := s.creds.Lookup(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if user.PasswordHash == "" {
		// OAuth-only account, no password to check.
		return "", domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", domain.ErrInvalidCredentials
	}
	return domain.Identity(user.Email), nil
}

// EnsureOAuthUser provisions or links an account for a completed OAuth
// exchange and returns the identity. Accounts without an email from the
// provider fall back to a subject-derived one.
func (s *Service) EnsureOAuthUser(ctx context.Context, email, googleID string) (domain.Identity, error) {
	if email == "" {
		email = googleID + "@google.com"
	}
	email = strings.ToLower(strings.TrimSpace(email))

	_, err := s.creds.Lookup(ctx, email)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		if err := s.creds.Create(ctx, domain.User{Email: email, GoogleID: googleID}); err != nil {
			return "", err
		}
		s.log.Info().Str("email", email).Msg("oauth account created")
	case err != nil:
		return "", err
	default:
		if err := s.creds.LinkGoogle(ctx, email, googleID); err != nil {
			return "", err
		}
	}
	return domain.Identity(email), nil
}
