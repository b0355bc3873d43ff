package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Allen20077/8berries/internal/domain"
)

// timeFormat keeps sub-second precision so turn timestamps replay faithfully.
const timeFormat = time.RFC3339Nano

// SQLiteSessionStore implements chat.SessionStore backed by SQLite.
type SQLiteSessionStore struct {
	db *DB
}

// NewSQLiteSessionStore creates a session store using the given database.
func NewSQLiteSessionStore(db *DB) *SQLiteSessionStore {
	return &SQLiteSessionStore{db: db}
}

// GetOrCreate returns the identity's default session, the most recently
// updated one, creating a fresh session when the identity has none. The
// select-then-insert runs inside one transaction so concurrent first-access
// from the same identity observes a single session.
func (s *SQLiteSessionStore) GetOrCreate(ctx context.Context, identity domain.Identity) (*domain.Session, error) {
	tx, err := s.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	sess, err := scanSession(tx.QueryRowContext(ctx,
		`SELECT id, identity, title, pinned, created_at, updated_at
		 FROM sessions WHERE identity = ?
		 ORDER BY updated_at DESC, created_at DESC LIMIT 1`, identity))
	if err == nil {
		return sess, tx.Commit()
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("selecting session: %w", err)
	}

	created := newSession(identity, domain.DefaultSessionTitle)
	if err := insertSession(ctx, tx, created); err != nil {
		return nil, err
	}
	return created, tx.Commit()
}

// Create provisions a new session for the identity.
func (s *SQLiteSessionStore) Create(ctx context.Context, identity domain.Identity, title string) (*domain.Session, error) {
	if title == "" {
		title = domain.DefaultSessionTitle
	}
	sess := newSession(identity, title)

	tx, err := s.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := insertSession(ctx, tx, sess); err != nil {
		return nil, err
	}
	return sess, tx.Commit()
}

// Get returns a session by ID.
func (s *SQLiteSessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := scanSession(s.db.sql.QueryRowContext(ctx,
		`SELECT id, identity, title, pinned, created_at, updated_at
		 FROM sessions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("selecting session: %w", err)
	}
	return sess, nil
}

// ListByIdentity returns the identity's sessions, pinned first, most
// recently updated first within each group.
func (s *SQLiteSessionStore) ListByIdentity(ctx context.Context, identity domain.Identity) ([]domain.Session, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT id, identity, title, pinned, created_at, updated_at
		 FROM sessions WHERE identity = ?
		 ORDER BY pinned DESC, updated_at DESC`, identity)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

// AppendTurn appends a turn to the session's ordered log.
func (s *SQLiteSessionStore) AppendTurn(ctx context.Context, sessionID string, turn domain.Turn) error {
	content, err := encodeTurnContent(turn)
	if err != nil {
		return err
	}

	ts := turn.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	tx, err := s.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := sessionExists(ctx, tx, sessionID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO turns (session_id, role, kind, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sessionID, turn.Role, turn.Kind, content, ts.Format(timeFormat)); err != nil {
		return fmt.Errorf("inserting turn: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET updated_at = ? WHERE id = ?`,
		time.Now().UTC().Format(timeFormat), sessionID); err != nil {
		return fmt.Errorf("touching session: %w", err)
	}

	return tx.Commit()
}

// ListTurns returns the session's turns, oldest first.
func (s *SQLiteSessionStore) ListTurns(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	tx, err := s.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := sessionExists(ctx, tx, sessionID); err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT session_id, role, kind, content, created_at
		 FROM turns WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing turns: %w", err)
	}
	defer rows.Close()

	turns := make([]domain.Turn, 0, 16)
	for rows.Next() {
		var turn domain.Turn
		var content, ts string
		if err := rows.Scan(&turn.SessionID, &turn.Role, &turn.Kind, &content, &ts); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		if err := decodeTurnContent(&turn, content); err != nil {
			return nil, err
		}
		turn.CreatedAt, _ = time.Parse(timeFormat, ts)
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return turns, tx.Commit()
}

// Rename sets the session title. Renaming to the current title is a no-op.
func (s *SQLiteSessionStore) Rename(ctx context.Context, id, title string) error {
	return s.updateSession(ctx, id, `UPDATE sessions SET title = ?, updated_at = ? WHERE id = ?`, title)
}

// SetPinned sets the pinned flag.
func (s *SQLiteSessionStore) SetPinned(ctx context.Context, id string, pinned bool) error {
	return s.updateSession(ctx, id, `UPDATE sessions SET pinned = ?, updated_at = ? WHERE id = ?`, pinned)
}

// Delete removes a session and, via cascade, its turns.
func (s *SQLiteSessionStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.sql.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (s *SQLiteSessionStore) updateSession(ctx context.Context, id, query string, value any) error {
	res, err := s.db.sql.ExecContext(ctx, query, value, time.Now().UTC().Format(timeFormat), id)
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// helpers

func newSession(identity domain.Identity, title string) *domain.Session {
	now := time.Now().UTC()
	return &domain.Session{
		ID:        uuid.NewString(),
		Identity:  identity,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func insertSession(ctx context.Context, tx *sql.Tx, sess *domain.Session) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (id, identity, title, pinned, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Identity, sess.Title, sess.Pinned,
		sess.CreatedAt.Format(timeFormat), sess.UpdatedAt.Format(timeFormat)); err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

func sessionExists(ctx context.Context, tx *sql.Tx, id string) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("checking session: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var sess domain.Session
	var createdAt, updatedAt string
	if err := row.Scan(&sess.ID, &sess.Identity, &sess.Title, &sess.Pinned, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	sess.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	sess.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)
	return &sess, nil
}

// encodeTurnContent stores text turns verbatim and chart turns as JSON.
func encodeTurnContent(turn domain.Turn) (string, error) {
	if turn.Kind == domain.KindChart {
		if turn.Chart == nil {
			return "", fmt.Errorf("chart turn without payload")
		}
		data, err := json.Marshal(turn.Chart)
		if err != nil {
			return "", fmt.Errorf("encoding chart: %w", err)
		}
		return string(data), nil
	}
	return turn.Text, nil
}

func decodeTurnContent(turn *domain.Turn, content string) error {
	if turn.Kind == domain.KindChart {
		var chart domain.ChartPayload
		if err := json.Unmarshal([]byte(content), &chart); err != nil {
			return fmt.Errorf("decoding chart turn: %w", err)
		}
		turn.Chart = &chart
		return nil
	}
	turn.Text = content
	return nil
}
