package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Allen20077/8berries/internal/domain"
)

// SQLiteCredentialStore implements auth.CredentialStore backed by SQLite.
type SQLiteCredentialStore struct {
	db *DB
}

// NewSQLiteCredentialStore creates a credential store using the given database.
func NewSQLiteCredentialStore(db *DB) *SQLiteCredentialStore {
	return &SQLiteCredentialStore{db: db}
}

// Lookup returns the credential record for an email.
func (s *SQLiteCredentialStore) Lookup(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	var createdAt string
	err := s.db.sql.QueryRowContext(ctx,
		`SELECT email, password_hash, google_id, created_at FROM users WHERE email = ?`,
		normalizeEmail(email),
	).Scan(&user.Email, &user.PasswordHash, &user.GoogleID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("selecting user: %w", err)
	}
	user.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	return &user, nil
}

// Create inserts a new credential record. The existence check and the insert
// run inside one transaction so a duplicate email reads as ErrUserExists
// rather than a driver constraint error.
func (s *SQLiteCredentialStore) Create(ctx context.Context, user domain.User) error {
	user.Email = normalizeEmail(user.Email)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE email = ?`, user.Email).Scan(&exists)
	if err == nil {
		return domain.ErrUserExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking user: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, google_id, created_at) VALUES (?, ?, ?, ?)`,
		user.Email, user.PasswordHash, user.GoogleID, user.CreatedAt.Format(timeFormat)); err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return tx.Commit()
}

// LinkGoogle records the Google subject id on an existing account.
func (s *SQLiteCredentialStore) LinkGoogle(ctx context.Context, email, googleID string) error {
	res, err := s.db.sql.ExecContext(ctx,
		`UPDATE users SET google_id = ? WHERE email = ?`, googleID, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("linking google id: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
