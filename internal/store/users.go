package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/punchamoorthee/cardfees/internal/domain"
)

const userColumns = `id, name, email, password_hash, email_verified, verification_token,
	reset_token, reset_expires_at, created_at`

// CreateUser inserts a new account. Emails are stored lower-cased.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, NULL, NULL, $7)`,
		u.ID, u.Name, strings.ToLower(u.Email), u.PasswordHash, u.EmailVerified,
		nullable(u.VerificationToken), u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("user insert failed: %w", err)
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getUser(ctx, `lower(email) = lower($1)`, email)
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.getUser(ctx, `id = $1`, id)
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*domain.User, error) {
	var (
		u                   domain.User
		verifyTok, resetTok *string
	)
	err := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.EmailVerified, &verifyTok,
		&resetTok, &u.ResetExpiresAt, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("user query failed: %w", err)
	}
	if verifyTok != nil {
		u.VerificationToken = *verifyTok
	}
	if resetTok != nil {
		u.ResetToken = *resetTok
	}
	return &u, nil
}

// VerifyEmail marks the owner of token as verified and burns the token.
func (s *Store) VerifyEmail(ctx context.Context, token string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET email_verified = true, verification_token = NULL WHERE verification_token = $1`,
		token,
	)
	if err != nil {
		return fmt.Errorf("email verification failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetResetToken stores a password reset token that is valid until expires.
func (s *Store) SetResetToken(ctx context.Context, userID uuid.UUID, token string, expires time.Time) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET reset_token = $2, reset_expires_at = $3 WHERE id = $1`,
		userID, token, expires,
	)
	if err != nil {
		return fmt.Errorf("reset token update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetPassword swaps the password hash for the holder of an unexpired token.
func (s *Store) ResetPassword(ctx context.Context, token, passwordHash string, now time.Time) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users
		    SET password_hash = $2, reset_token = NULL, reset_expires_at = NULL
		  WHERE reset_token = $1 AND reset_expires_at > $3`,
		token, passwordHash, now,
	)
	if err != nil {
		return fmt.Errorf("password reset failed: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	err = s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE reset_token = $1)`, token).Scan(&exists)
	if err != nil {
		return fmt.Errorf("reset token lookup failed: %w", err)
	}
	if exists {
		return ErrTokenExpired
	}
	return ErrNotFound
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
