// Package auth provides authentication for the Quarry API: JWT access
// tokens carrying the active stage, Argon2id password hashing, and the
// stage-switching session flow.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/quarrylabs/quarry-cms/internal/database"
)

// User represents a user row from the users table.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Repository provides database access for authentication operations.
type Repository struct {
	db *database.DB
}

// NewRepository creates a new auth Repository backed by the given database.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// GetUserByEmail returns the user with the given email, or an error wrapping
// pgx.ErrNoRows if no such user exists.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.Pool().QueryRow(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`,
		email,
	)

	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		return nil, fmt.Errorf("querying user by email: %w", err)
	}
	return &u, nil
}

// GetUserByID returns the user with the given UUID, or an error wrapping
// pgx.ErrNoRows if no such user exists.
func (r *Repository) GetUserByID(ctx context.Context, userID string) (*User, error) {
	row := r.db.Pool().QueryRow(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE id = $1`,
		userID,
	)

	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		return nil, fmt.Errorf("querying user by id: %w", err)
	}
	return &u, nil
}

// CreateUser inserts a new user with the given email and password hash. If a
// user with the same email already exists, this is treated as success and
// the existing user is returned. This eliminates the TOCTOU race in
// EnsureAdmin.
func (r *Repository) CreateUser(ctx context.Context, email, passwordHash string) (*User, error) {
	row := r.db.Pool().QueryRow(ctx,
		`INSERT INTO users (email, password_hash) VALUES ($1, $2)
		 ON CONFLICT (email) DO NOTHING
		 RETURNING id, email, password_hash, created_at`,
		email, passwordHash,
	)

	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// ON CONFLICT DO NOTHING returns no rows when the user exists.
			return r.GetUserByEmail(ctx, email)
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return &u, nil
}
