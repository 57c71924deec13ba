// Package repository implements auth persistence on PostgreSQL: users,
// emailed verification codes and refresh-token sessions.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Shlok2903/spendora/internal/domain/auth/common"
	"github.com/Shlok2903/spendora/pkg/db"
)

// User is an account row.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// OTPVerification is a pending emailed verification code. The stored secret
// derives the code; the code itself is never persisted.
type OTPVerification struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Purpose    string
	Secret     string
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// Session is a refresh-token session. Only the token hash is stored.
type Session struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	RefreshTokenHash string
	UserAgent        *string
	ClientIP         *string
	ExpiresAt        time.Time
	RevokedAt        *time.Time
	CreatedAt        time.Time
}

// AuthRepository is the persistence surface the auth service needs.
type AuthRepository interface {
	CreateUser(ctx context.Context, email, username, passwordHash string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	MarkUserVerified(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateUsername(ctx context.Context, id uuid.UUID, username string) error

	CreateOTP(ctx context.Context, otp *OTPVerification) error
	GetActiveOTP(ctx context.Context, userID uuid.UUID, purpose string, now time.Time) (*OTPVerification, error)
	ConsumeOTP(ctx context.Context, id uuid.UUID, now time.Time) error

	CreateSession(ctx context.Context, session *Session) error
	GetSessionByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*Session, error)
	DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error
	RevokeUserSessions(ctx context.Context, userID uuid.UUID, now time.Time) error
}

// PostgresAuthRepository implements AuthRepository on pgx.
type PostgresAuthRepository struct {
	db db.Conn
}

// NewPostgresAuthRepository creates a new auth repository.
func NewPostgresAuthRepository(db db.Conn) *PostgresAuthRepository {
	return &PostgresAuthRepository{db: db}
}

var _ AuthRepository = (*PostgresAuthRepository)(nil)

const userColumns = `id, email, username, password_hash, is_verified, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new unverified user.
func (r *PostgresAuthRepository) CreateUser(ctx context.Context, email, username, passwordHash string) (*User, error) {
	query := `
		INSERT INTO users (id, email, username, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRow(ctx, query, uuid.New(), email, username, passwordHash))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// GetUserByEmail looks a user up by email.
func (r *PostgresAuthRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	u, err := scanUser(r.db.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

// GetUserByID looks a user up by id.
func (r *PostgresAuthRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return u, nil
}

// MarkUserVerified flags the user's email as verified.
func (r *PostgresAuthRepository) MarkUserVerified(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET is_verified = TRUE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrUserNotFound
	}
	return nil
}

// UpdatePassword replaces the user's password hash.
func (r *PostgresAuthRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrUserNotFound
	}
	return nil
}

// UpdateUsername replaces the user's display name.
func (r *PostgresAuthRepository) UpdateUsername(ctx context.Context, id uuid.UUID, username string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET username = $1, updated_at = now() WHERE id = $2`, username, id)
	if err != nil {
		return fmt.Errorf("failed to update username: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrUserNotFound
	}
	return nil
}

// CreateOTP stores a new verification secret, superseding any previous one
// for the same purpose.
func (r *PostgresAuthRepository) CreateOTP(ctx context.Context, otp *OTPVerification) error {
	if otp.ID == uuid.Nil {
		otp.ID = uuid.New()
	}

	// Old codes for the same purpose stop being valid once a new one is
	// issued.
	_, err := r.db.Exec(ctx,
		`UPDATE otp_verifications SET consumed_at = now() WHERE user_id = $1 AND purpose = $2 AND consumed_at IS NULL`,
		otp.UserID, otp.Purpose)
	if err != nil {
		return fmt.Errorf("failed to supersede previous codes: %w", err)
	}

	query := `
		INSERT INTO otp_verifications (id, user_id, purpose, secret, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err = r.db.QueryRow(ctx, query, otp.ID, otp.UserID, otp.Purpose, otp.Secret, otp.ExpiresAt).Scan(&otp.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create verification code: %w", err)
	}
	return nil
}

// GetActiveOTP returns the user's newest unconsumed, unexpired code for the
// purpose.
func (r *PostgresAuthRepository) GetActiveOTP(ctx context.Context, userID uuid.UUID, purpose string, now time.Time) (*OTPVerification, error) {
	query := `
		SELECT id, user_id, purpose, secret, expires_at, consumed_at, created_at
		FROM otp_verifications
		WHERE user_id = $1 AND purpose = $2 AND consumed_at IS NULL AND expires_at > $3
		ORDER BY created_at DESC
		LIMIT 1`

	var otp OTPVerification
	err := r.db.QueryRow(ctx, query, userID, purpose, now).Scan(
		&otp.ID, &otp.UserID, &otp.Purpose, &otp.Secret, &otp.ExpiresAt, &otp.ConsumedAt, &otp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrOTPNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get verification code: %w", err)
	}
	return &otp, nil
}

// ConsumeOTP marks a code as used.
func (r *PostgresAuthRepository) ConsumeOTP(ctx context.Context, id uuid.UUID, now time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE otp_verifications SET consumed_at = $1 WHERE id = $2 AND consumed_at IS NULL`, now, id)
	if err != nil {
		return fmt.Errorf("failed to consume verification code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrOTPNotFound
	}
	return nil
}

// CreateSession stores a refresh-token session.
func (r *PostgresAuthRepository) CreateSession(ctx context.Context, session *Session) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}

	query := `
		INSERT INTO sessions (id, user_id, refresh_token_hash, user_agent, client_ip, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		session.ID, session.UserID, session.RefreshTokenHash,
		session.UserAgent, session.ClientIP, session.ExpiresAt,
	).Scan(&session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSessionByTokenHash returns the live session for a refresh token hash.
func (r *PostgresAuthRepository) GetSessionByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*Session, error) {
	query := `
		SELECT id, user_id, refresh_token_hash, user_agent, client_ip, expires_at, revoked_at, created_at
		FROM sessions
		WHERE refresh_token_hash = $1 AND revoked_at IS NULL AND expires_at > $2`

	var s Session
	err := r.db.QueryRow(ctx, query, tokenHash, now).Scan(
		&s.ID, &s.UserID, &s.RefreshTokenHash, &s.UserAgent, &s.ClientIP, &s.ExpiresAt, &s.RevokedAt, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

// DeleteSessionByTokenHash removes one session.
func (r *PostgresAuthRepository) DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE refresh_token_hash = $1`, tokenHash)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrSessionNotFound
	}
	return nil
}

// RevokeUserSessions revokes every live session of a user.
func (r *PostgresAuthRepository) RevokeUserSessions(ctx context.Context, userID uuid.UUID, now time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE sessions SET revoked_at = $1 WHERE user_id = $2 AND revoked_at IS NULL`, now, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	return nil
}
