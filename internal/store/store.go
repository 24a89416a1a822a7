package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique constraint is violated.
var ErrDuplicate = errors.New("already exists")

// User represents a registered account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	IsGuest      bool
	SessionID    string // guest session tracking
	DisplayName  string
	AvatarURL    string
	CreatedAt    time.Time
}

// RoomRecord is the persisted part of a room: name, access gating and
// display metadata. Live membership and history are not persisted.
type RoomRecord struct {
	ID            int64
	Name          string
	IsPrivate     bool
	PasswordHash  string // empty means open
	Theme         string
	BackgroundURL string
	CreatedAt     time.Time
}

// ResetToken is a single-use password reset grant with an expiry.
type ResetToken struct {
	Username  string
	Token     string
	ExpiresAt time.Time
}

// UserStore handles account persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// CreateGuestUser creates a temporary guest user with session ID.
	CreateGuestUser(ctx context.Context, sessionID string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// UpdateProfile updates display name and avatar for a user.
	UpdateProfile(ctx context.Context, username, displayName, avatarURL string) error

	// UpdatePassword replaces a user's password hash.
	UpdatePassword(ctx context.Context, username, passwordHash string) error

	// CreateResetToken stores a password reset token for a user.
	CreateResetToken(ctx context.Context, t *ResetToken) error

	// GetResetToken retrieves a reset token. Expiry is the caller's concern.
	GetResetToken(ctx context.Context, token string) (*ResetToken, error)

	// DeleteResetToken removes a reset token after use.
	DeleteResetToken(ctx context.Context, token string) error
}

// RoomStore handles room record persistence.
type RoomStore interface {
	// CreateRoom persists a room record. Returns ErrDuplicate if the name is taken.
	CreateRoom(ctx context.Context, rec *RoomRecord) (*RoomRecord, error)

	// GetRoomByName retrieves a room record by name.
	GetRoomByName(ctx context.Context, name string) (*RoomRecord, error)

	// UpdateRoomMeta updates theme and background for a room.
	UpdateRoomMeta(ctx context.Context, name, theme, backgroundURL string) error

	// ListRooms lists all room records.
	ListRooms(ctx context.Context) ([]*RoomRecord, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	RoomStore

	// Close closes the underlying database connection.
	Close() error
}
