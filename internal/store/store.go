package store

import (
	"context"
	"errors"

	"github.com/filevault/filevault/internal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Users() Users
	Files() Files

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// Use it for multi-step operations that must be atomic (e.g., refresh rotation).
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the email or username is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// UpdateAccountDetails overwrites full_name and email and bumps updated_at.
	// Returns ErrNotFound when the user does not exist.
	UpdateAccountDetails(ctx context.Context, userID, fullName, email string) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error

	// UpdateAvatar overwrites the avatar URL and media public id.
	UpdateAvatar(ctx context.Context, userID, url, publicID string) error

	// UpdateRefreshFingerprint stores the fingerprint of the single active
	// refresh token, or clears it when fp is nil.
	UpdateRefreshFingerprint(ctx context.Context, userID string, fp *string) error
}

type Files interface {
	// CreateFile inserts a new file record bound to its media descriptor.
	CreateFile(ctx context.Context, f domain.File) error

	// GetFileByPublicID returns the file whose descriptor carries the given
	// media public id.
	GetFileByPublicID(ctx context.Context, publicID string) (domain.File, error)

	// UpdateFileName sets the descriptor's display name.
	// Returns ErrNotFound when no file carries the public id.
	UpdateFileName(ctx context.Context, publicID, name string) error

	// DeleteFileByPublicID removes the file record.
	// Returns ErrNotFound when no file carries the public id.
	DeleteFileByPublicID(ctx context.Context, publicID string) error

	// SearchFilesByName returns the user's files whose descriptor name
	// contains pattern, case-insensitively.
	SearchFilesByName(ctx context.Context, userID, pattern string) ([]domain.File, error)

	// ListFilesByUser returns all files owned by the user, newest first.
	ListFilesByUser(ctx context.Context, userID string) ([]domain.File, error)
}
