// Package service implements auth business logic: registration with emailed
// verification codes, credential login, JWT sessions and password recovery.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Shlok2903/spendora/internal/domain/auth/common"
	"github.com/Shlok2903/spendora/internal/domain/auth/repository"
)

const (
	purposeEmailVerification = "email_verification"
	purposePasswordReset     = "password_reset"

	defaultSessionTTL = 30 * 24 * time.Hour
)

// EmailSender delivers verification and recovery codes.
type EmailSender interface {
	SendVerificationCode(ctx context.Context, to, code string) error
	SendPasswordResetCode(ctx context.Context, to, code string) error
}

// SessionMetadata captures client information stored with a session.
type SessionMetadata struct {
	UserAgent string
	ClientIP  string
}

// RegisterParams contains the required data for user registration.
type RegisterParams struct {
	Email    string
	Username string
	Password string
}

// LoginParams represents the payload for a login attempt.
type LoginParams struct {
	Email    string
	Password string
	Metadata SessionMetadata
}

// LoginResult is produced after a successful login or email verification.
type LoginResult struct {
	User   *repository.User
	Tokens *TokenPair
}

// RefreshTokenParams contains the data needed to refresh tokens.
type RefreshTokenParams struct {
	RefreshToken string
	Metadata     SessionMetadata
}

// AuthService coordinates auth business logic.
type AuthService struct {
	repo         repository.AuthRepository
	tokenManager TokenManager
	email        EmailSender
	sessionTTL   time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

// NewAuthService constructs a new AuthService.
func NewAuthService(
	repo repository.AuthRepository,
	tokenManager TokenManager,
	email EmailSender,
	logger *slog.Logger,
	sessionTTL time.Duration,
) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}

	return &AuthService{
		repo:         repo,
		tokenManager: tokenManager,
		email:        email,
		sessionTTL:   sessionTTL,
		logger:       logger,
		now:          time.Now,
	}
}

// Register creates an unverified user and emails a verification code. The
// account cannot log in until the code is confirmed.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (*repository.User, error) {
	if err := ValidateEmail(params.Email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(params.Password); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetUserByEmail(ctx, params.Email); err == nil {
		return nil, common.ErrUserAlreadyExists
	} else if !errors.Is(err, common.ErrUserNotFound) {
		return nil, err
	}

	passwordHash, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.CreateUser(ctx, params.Email, params.Username, passwordHash)
	if err != nil {
		return nil, err
	}

	if err := s.issueCode(ctx, user, purposeEmailVerification); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID.String()))
	return user, nil
}

// VerifyEmail confirms an emailed code, marks the account verified and logs
// the user in.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string, meta SessionMetadata) (*LoginResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := s.redeemCode(ctx, user.ID, purposeEmailVerification, code); err != nil {
		return nil, err
	}

	if err := s.repo.MarkUserVerified(ctx, user.ID); err != nil {
		return nil, err
	}
	user.IsVerified = true

	tokens, err := s.issueSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Tokens: tokens}, nil
}

// ResendVerificationCode issues a fresh code for an unverified account.
func (s *AuthService) ResendVerificationCode(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return nil
	}
	return s.issueCode(ctx, user, purposeEmailVerification)
}

// Login authenticates a user against stored credentials.
func (s *AuthService) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, params.Email)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	if !ComparePassword(user.PasswordHash, params.Password) {
		return nil, common.ErrInvalidCredentials
	}
	if !user.IsVerified {
		return nil, common.ErrNotVerified
	}

	tokens, err := s.issueSession(ctx, user, params.Metadata)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Tokens: tokens}, nil
}

// Logout removes the refresh token session.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return fmt.Errorf("refresh token required")
	}

	if err := s.repo.DeleteSessionByTokenHash(ctx, hashToken(refreshToken)); err != nil && !errors.Is(err, common.ErrSessionNotFound) {
		return err
	}
	return nil
}

// RefreshTokens validates the refresh token, rotates the session and issues
// a new pair.
func (s *AuthService) RefreshTokens(ctx context.Context, params RefreshTokenParams) (*TokenPair, error) {
	claims, err := s.tokenManager.ValidateRefreshToken(params.RefreshToken)
	if err != nil {
		return nil, err
	}

	hashed := hashToken(params.RefreshToken)
	if _, err := s.repo.GetSessionByTokenHash(ctx, hashed, s.now()); err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.DeleteSessionByTokenHash(ctx, hashed); err != nil && !errors.Is(err, common.ErrSessionNotFound) {
		return nil, err
	}

	return s.issueSession(ctx, user, params.Metadata)
}

// ValidateAccessToken validates an access token and returns its claims.
func (s *AuthService) ValidateAccessToken(_ context.Context, accessToken string) (*Claims, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("access token required")
	}
	return s.tokenManager.ValidateAccessToken(accessToken)
}

// RequestPasswordReset emails a recovery code. Unknown addresses are ignored
// so the endpoint does not leak which emails exist.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return nil
		}
		return err
	}
	return s.issueCode(ctx, user, purposePasswordReset)
}

// ResetPassword confirms a recovery code, replaces the password and revokes
// existing sessions.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	if err := s.redeemCode(ctx, user.ID, purposePasswordReset, code); err != nil {
		return err
	}

	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		return err
	}

	if err := s.repo.RevokeUserSessions(ctx, user.ID, s.now()); err != nil {
		s.logger.WarnContext(ctx, "failed to revoke sessions after reset", slog.String("error", err.Error()))
	}
	return nil
}

// ChangePassword replaces the password for an authenticated user.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !ComparePassword(user.PasswordHash, currentPassword) {
		return common.ErrInvalidCredentials
	}

	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, user.ID, passwordHash)
}

// issueCode creates and emails a verification code for the purpose.
func (s *AuthService) issueCode(ctx context.Context, user *repository.User, purpose string) error {
	secret, err := GenerateOTPSecret(user.Email)
	if err != nil {
		return err
	}

	otp := &repository.OTPVerification{
		UserID:    user.ID,
		Purpose:   purpose,
		Secret:    secret,
		ExpiresAt: s.now().Add(OTPValidity),
	}
	if err := s.repo.CreateOTP(ctx, otp); err != nil {
		return err
	}

	code, err := GenerateOTPCode(secret, otp.CreatedAt)
	if err != nil {
		return err
	}

	switch purpose {
	case purposePasswordReset:
		err = s.email.SendPasswordResetCode(ctx, user.Email, code)
	default:
		err = s.email.SendVerificationCode(ctx, user.Email, code)
	}
	if err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

// redeemCode checks and consumes the active code for the purpose.
func (s *AuthService) redeemCode(ctx context.Context, userID uuid.UUID, purpose, code string) error {
	otp, err := s.repo.GetActiveOTP(ctx, userID, purpose, s.now())
	if err != nil {
		if errors.Is(err, common.ErrOTPNotFound) {
			return common.ErrOTPExpired
		}
		return err
	}

	if !ValidateOTPCode(otp.Secret, code, otp.CreatedAt) {
		return common.ErrInvalidOTP
	}
	return s.repo.ConsumeOTP(ctx, otp.ID, s.now())
}

// issueSession generates a token pair and persists the refresh session.
func (s *AuthService) issueSession(ctx context.Context, user *repository.User, meta SessionMetadata) (*TokenPair, error) {
	tokens, err := s.tokenManager.GenerateTokenPair(user.ID.String(), user.Email)
	if err != nil {
		return nil, err
	}

	session := &repository.Session{
		UserID:           user.ID,
		RefreshTokenHash: hashToken(tokens.RefreshToken),
		ExpiresAt:        s.now().Add(s.sessionTTL),
	}
	if meta.UserAgent != "" {
		session.UserAgent = &meta.UserAgent
	}
	if meta.ClientIP != "" {
		session.ClientIP = &meta.ClientIP
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return tokens, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
