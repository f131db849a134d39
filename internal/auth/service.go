package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5"

	"github.com/quarrylabs/quarry-cms/internal/stage"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 64
)

// Sentinel errors for authentication failures.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnknownStage       = errors.New("unknown stage")
	ErrPasswordTooShort   = fmt.Errorf("password must be at least %d characters", minPasswordLength)
	ErrPasswordTooLong    = fmt.Errorf("password must be at most %d characters", maxPasswordLength)
)

// Service provides authentication business logic: password hashing, JWT
// creation, and the stage-switching session flow. There are no refresh
// tokens; a session is one self-contained access token and switching stages
// simply reissues it with the new stage claims.
type Service struct {
	repo         *Repository
	stages       *stage.Repository
	jwtSecret    string
	defaultStage string
}

// NewService creates a new auth Service. defaultStage is the key of the
// stage new sessions start in.
func NewService(repo *Repository, stages *stage.Repository, jwtSecret, defaultStage string) *Service {
	return &Service{
		repo:         repo,
		stages:       stages,
		jwtSecret:    jwtSecret,
		defaultStage: defaultStage,
	}
}

// EnsureAdmin creates the initial admin user if one with the given email
// does not yet exist.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	if err := validatePassword(password); err != nil {
		return fmt.Errorf("initial admin password: %w", err)
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing initial admin password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, email, hash)
	if err != nil {
		return fmt.Errorf("creating initial admin: %w", err)
	}

	slog.Info("initial admin ensured", "email", user.Email, "id", user.ID)
	return nil
}

// HashPassword hashes a password using Argon2id with secure default parameters.
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return hash, nil
}

// VerifyPassword checks whether the given plain-text password matches the
// provided Argon2id hash.
func (s *Service) VerifyPassword(hash, password string) (bool, error) {
	match, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		return false, fmt.Errorf("verifying password: %w", err)
	}
	return match, nil
}

// Login validates the given credentials and, on success, returns a signed
// access token scoped to the default stage.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("looking up user: %w", err)
	}

	match, err := s.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return "", fmt.Errorf("verifying password: %w", err)
	}
	if !match {
		return "", ErrInvalidCredentials
	}

	st, err := s.stages.GetByKey(ctx, s.defaultStage)
	if err != nil {
		return "", fmt.Errorf("loading default stage: %w", err)
	}

	return CreateAccessToken(user.ID, user.Email, st, s.jwtSecret)
}

// SwitchStage reissues the caller's access token scoped to the given stage.
// The caller keeps working under the old token until they adopt the new one.
func (s *Service) SwitchStage(ctx context.Context, identity Identity, stageKey string) (string, error) {
	st, err := s.stages.GetByKey(ctx, stageKey)
	if err != nil {
		if errors.Is(err, stage.ErrNotFound) {
			return "", ErrUnknownStage
		}
		return "", fmt.Errorf("loading stage: %w", err)
	}

	return CreateAccessToken(identity.UserID, identity.Email, st, s.jwtSecret)
}

// validatePassword checks that the password meets the length policy. Uses
// rune count rather than byte length so that multi-byte UTF-8 characters
// are counted correctly.
func validatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLength {
		return ErrPasswordTooShort
	}
	if n > maxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}
