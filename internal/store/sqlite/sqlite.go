package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/parleychat/parley-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	is_guest      BOOLEAN NOT NULL DEFAULT 0,
	session_id    TEXT,
	display_name  TEXT,
	avatar_url    TEXT,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS rooms (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	name           TEXT NOT NULL UNIQUE,
	is_private     BOOLEAN NOT NULL DEFAULT 0,
	password_hash  TEXT,
	theme          TEXT,
	background_url TEXT,
	created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS password_reset (
	token      TEXT PRIMARY KEY,
	username   TEXT NOT NULL,
	expires_at DATETIME NOT NULL
);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// NewWithSetup creates a store and runs a setup function after the schema.
// Useful for tests to seed fixtures.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	s, err := New(dbPath)
	if err != nil {
		return nil, err
	}
	if setup != nil {
		if err := setup(s.db); err != nil {
			s.db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// mapErr converts driver-level errors into store sentinels.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return store.ErrNotFound
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return store.ErrDuplicate
	default:
		return err
	}
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (username, password_hash, is_guest)
		VALUES (?, ?, 0)
	`
	result, err := s.db.ExecContext(ctx, query, username, passwordHash)
	if err != nil {
		if mapped := mapErr(err); errors.Is(mapped, store.ErrDuplicate) {
			return nil, mapped
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// CreateGuestUser creates a temporary guest user with session ID.
func (s *SQLiteStore) CreateGuestUser(ctx context.Context, sessionID string) (*store.User, error) {
	query := `
		INSERT INTO users (username, password_hash, is_guest, session_id)
		VALUES (?, '', 1, ?)
	`
	guestUsername := "guest_" + sessionID[:8]

	result, err := s.db.ExecContext(ctx, query, guestUsername, sessionID)
	if err != nil {
		return nil, fmt.Errorf("insert guest user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, is_guest,
		       COALESCE(session_id, ''), COALESCE(display_name, ''), COALESCE(avatar_url, ''),
		       created_at
		FROM users
		WHERE id = ?
	`
	return scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, is_guest,
		       COALESCE(session_id, ''), COALESCE(display_name, ''), COALESCE(avatar_url, ''),
		       created_at
		FROM users
		WHERE username = ?
	`
	return scanUser(s.db.QueryRowContext(ctx, query, username))
}

// UpdateProfile updates display name and avatar for a user.
func (s *SQLiteStore) UpdateProfile(ctx context.Context, username, displayName, avatarURL string) error {
	query := `
		UPDATE users
		SET display_name = NULLIF(?, ''), avatar_url = NULLIF(?, '')
		WHERE username = ?
	`
	result, err := s.db.ExecContext(ctx, query, displayName, avatarURL, username)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// UpdatePassword replaces a user's password hash.
func (s *SQLiteStore) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE username = ?`, passwordHash, username)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// CreateResetToken stores a password reset token.
func (s *SQLiteStore) CreateResetToken(ctx context.Context, t *store.ResetToken) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO password_reset (token, username, expires_at) VALUES (?, ?, ?)`,
		t.Token, t.Username, t.ExpiresAt)
	if err != nil {
		if mapped := mapErr(err); errors.Is(mapped, store.ErrDuplicate) {
			return mapped
		}
		return fmt.Errorf("insert reset token: %w", err)
	}
	return nil
}

// GetResetToken retrieves a reset token by its value.
func (s *SQLiteStore) GetResetToken(ctx context.Context, token string) (*store.ResetToken, error) {
	var t store.ResetToken
	err := s.db.QueryRowContext(ctx,
		`SELECT token, username, expires_at FROM password_reset WHERE token = ?`, token).
		Scan(&t.Token, &t.Username, &t.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scan reset token: %w", err)
	}
	return &t, nil
}

// DeleteResetToken removes a reset token.
func (s *SQLiteStore) DeleteResetToken(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM password_reset WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete reset token: %w", err)
	}
	return nil
}

func scanUser(row *sql.Row) (*store.User, error) {
	var u store.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsGuest,
		&u.SessionID, &u.DisplayName, &u.AvatarURL, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// ==== RoomStore implementation ====

// CreateRoom persists a room record.
func (s *SQLiteStore) CreateRoom(ctx context.Context, rec *store.RoomRecord) (*store.RoomRecord, error) {
	query := `
		INSERT INTO rooms (name, is_private, password_hash, theme, background_url)
		VALUES (?, ?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''))
	`
	result, err := s.db.ExecContext(ctx, query,
		rec.Name, rec.IsPrivate, rec.PasswordHash, rec.Theme, rec.BackgroundURL)
	if err != nil {
		if mapped := mapErr(err); errors.Is(mapped, store.ErrDuplicate) {
			return nil, mapped
		}
		return nil, fmt.Errorf("insert room: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.getRoomByID(ctx, id)
}

// GetRoomByName retrieves a room record by name.
func (s *SQLiteStore) GetRoomByName(ctx context.Context, name string) (*store.RoomRecord, error) {
	query := `
		SELECT id, name, is_private,
		       COALESCE(password_hash, ''), COALESCE(theme, ''), COALESCE(background_url, ''),
		       created_at
		FROM rooms
		WHERE name = ?
	`
	return scanRoom(s.db.QueryRowContext(ctx, query, name))
}

// UpdateRoomMeta updates theme and background for a room.
func (s *SQLiteStore) UpdateRoomMeta(ctx context.Context, name, theme, backgroundURL string) error {
	query := `
		UPDATE rooms
		SET theme = NULLIF(?, ''), background_url = NULLIF(?, '')
		WHERE name = ?
	`
	result, err := s.db.ExecContext(ctx, query, theme, backgroundURL, name)
	if err != nil {
		return fmt.Errorf("update room meta: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListRooms lists all room records.
func (s *SQLiteStore) ListRooms(ctx context.Context) ([]*store.RoomRecord, error) {
	query := `
		SELECT id, name, is_private,
		       COALESCE(password_hash, ''), COALESCE(theme, ''), COALESCE(background_url, ''),
		       created_at
		FROM rooms
		ORDER BY name
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var out []*store.RoomRecord
	for rows.Next() {
		var r store.RoomRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.IsPrivate,
			&r.PasswordHash, &r.Theme, &r.BackgroundURL, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) getRoomByID(ctx context.Context, id int64) (*store.RoomRecord, error) {
	query := `
		SELECT id, name, is_private,
		       COALESCE(password_hash, ''), COALESCE(theme, ''), COALESCE(background_url, ''),
		       created_at
		FROM rooms
		WHERE id = ?
	`
	return scanRoom(s.db.QueryRowContext(ctx, query, id))
}

func scanRoom(row *sql.Row) (*store.RoomRecord, error) {
	var r store.RoomRecord
	err := row.Scan(&r.ID, &r.Name, &r.IsPrivate,
		&r.PasswordHash, &r.Theme, &r.BackgroundURL, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scan room: %w", err)
	}
	return &r, nil
}
