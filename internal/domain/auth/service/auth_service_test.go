package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shlok2903/spendora/internal/domain/auth/common"
	"github.com/Shlok2903/spendora/internal/domain/auth/repository"
)

type fakeAuthRepo struct {
	users    map[uuid.UUID]*repository.User
	otps     []*repository.OTPVerification
	sessions map[string]*repository.Session

	createUserErr error
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{
		users:    make(map[uuid.UUID]*repository.User),
		sessions: make(map[string]*repository.Session),
	}
}

func (f *fakeAuthRepo) CreateUser(_ context.Context, email, username, passwordHash string) (*repository.User, error) {
	if f.createUserErr != nil {
		return nil, f.createUserErr
	}
	u := &repository.User{
		ID:           uuid.New(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeAuthRepo) GetUserByEmail(_ context.Context, email string) (*repository.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, common.ErrUserNotFound
}

func (f *fakeAuthRepo) GetUserByID(_ context.Context, id uuid.UUID) (*repository.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeAuthRepo) MarkUserVerified(_ context.Context, id uuid.UUID) error {
	u, ok := f.users[id]
	if !ok {
		return common.ErrUserNotFound
	}
	u.IsVerified = true
	return nil
}

func (f *fakeAuthRepo) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	u, ok := f.users[id]
	if !ok {
		return common.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeAuthRepo) UpdateUsername(_ context.Context, id uuid.UUID, username string) error {
	u, ok := f.users[id]
	if !ok {
		return common.ErrUserNotFound
	}
	u.Username = username
	return nil
}

func (f *fakeAuthRepo) CreateOTP(_ context.Context, otp *repository.OTPVerification) error {
	now := time.Now()
	for _, existing := range f.otps {
		if existing.UserID == otp.UserID && existing.Purpose == otp.Purpose && existing.ConsumedAt == nil {
			consumed := now
			existing.ConsumedAt = &consumed
		}
	}
	otp.ID = uuid.New()
	otp.CreatedAt = now
	f.otps = append(f.otps, otp)
	return nil
}

func (f *fakeAuthRepo) GetActiveOTP(_ context.Context, userID uuid.UUID, purpose string, now time.Time) (*repository.OTPVerification, error) {
	var newest *repository.OTPVerification
	for _, otp := range f.otps {
		if otp.UserID != userID || otp.Purpose != purpose || otp.ConsumedAt != nil {
			continue
		}
		if !otp.ExpiresAt.After(now) {
			continue
		}
		if newest == nil || otp.CreatedAt.After(newest.CreatedAt) {
			newest = otp
		}
	}
	if newest == nil {
		return nil, common.ErrOTPNotFound
	}
	return newest, nil
}

func (f *fakeAuthRepo) ConsumeOTP(_ context.Context, id uuid.UUID, now time.Time) error {
	for _, otp := range f.otps {
		if otp.ID == id && otp.ConsumedAt == nil {
			otp.ConsumedAt = &now
			return nil
		}
	}
	return common.ErrOTPNotFound
}

func (f *fakeAuthRepo) CreateSession(_ context.Context, session *repository.Session) error {
	session.ID = uuid.New()
	session.CreatedAt = time.Now()
	f.sessions[session.RefreshTokenHash] = session
	return nil
}

func (f *fakeAuthRepo) GetSessionByTokenHash(_ context.Context, tokenHash string, now time.Time) (*repository.Session, error) {
	s, ok := f.sessions[tokenHash]
	if !ok || s.RevokedAt != nil || !s.ExpiresAt.After(now) {
		return nil, common.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeAuthRepo) DeleteSessionByTokenHash(_ context.Context, tokenHash string) error {
	if _, ok := f.sessions[tokenHash]; !ok {
		return common.ErrSessionNotFound
	}
	delete(f.sessions, tokenHash)
	return nil
}

func (f *fakeAuthRepo) RevokeUserSessions(_ context.Context, userID uuid.UUID, now time.Time) error {
	for _, s := range f.sessions {
		if s.UserID == userID {
			revoked := now
			s.RevokedAt = &revoked
		}
	}
	return nil
}

type fakeEmailSender struct {
	verificationCodes map[string]string
	resetCodes        map[string]string
	sendErr           error
}

func newFakeEmailSender() *fakeEmailSender {
	return &fakeEmailSender{
		verificationCodes: make(map[string]string),
		resetCodes:        make(map[string]string),
	}
}

func (f *fakeEmailSender) SendVerificationCode(_ context.Context, to, code string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.verificationCodes[to] = code
	return nil
}

func (f *fakeEmailSender) SendPasswordResetCode(_ context.Context, to, code string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.resetCodes[to] = code
	return nil
}

func newTestAuthService(t *testing.T) (*AuthService, *fakeAuthRepo, *fakeEmailSender) {
	t.Helper()

	repo := newFakeAuthRepo()
	email := newFakeEmailSender()
	tm := NewTokenManager([]byte("access-secret"), []byte("refresh-secret"), 15*time.Minute, 30*24*time.Hour)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	return NewAuthService(repo, tm, email, logger, 30*24*time.Hour), repo, email
}

func register(t *testing.T, svc *AuthService) *repository.User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterParams{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	return user
}

func TestRegister(t *testing.T) {
	t.Run("creates unverified user and emails a code", func(t *testing.T) {
		svc, repo, email := newTestAuthService(t)

		user := register(t, svc)

		assert.False(t, user.IsVerified)
		assert.NotEqual(t, "hunter2hunter2", user.PasswordHash)
		assert.NotEmpty(t, email.verificationCodes["alice@example.com"])
		assert.Len(t, repo.otps, 1)
		assert.Equal(t, "email_verification", repo.otps[0].Purpose)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)
		register(t, svc)

		_, err := svc.Register(context.Background(), RegisterParams{
			Email:    "alice@example.com",
			Username: "alice2",
			Password: "hunter2hunter2",
		})
		assert.ErrorIs(t, err, common.ErrUserAlreadyExists)
	})

	t.Run("rejects weak password", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)

		_, err := svc.Register(context.Background(), RegisterParams{
			Email:    "bob@example.com",
			Username: "bob",
			Password: "short",
		})
		assert.ErrorIs(t, err, ErrWeakPassword)
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)

		_, err := svc.Register(context.Background(), RegisterParams{
			Email:    "not-an-email",
			Username: "bob",
			Password: "hunter2hunter2",
		})
		assert.ErrorIs(t, err, ErrInvalidEmail)
	})
}

func TestVerifyEmail(t *testing.T) {
	t.Run("correct code verifies and logs in", func(t *testing.T) {
		svc, repo, email := newTestAuthService(t)
		user := register(t, svc)

		result, err := svc.VerifyEmail(context.Background(), user.Email, email.verificationCodes[user.Email], SessionMetadata{})
		require.NoError(t, err)

		assert.True(t, result.User.IsVerified)
		assert.NotEmpty(t, result.Tokens.AccessToken)
		assert.NotEmpty(t, result.Tokens.RefreshToken)
		assert.True(t, repo.users[user.ID].IsVerified)
		assert.NotNil(t, repo.otps[0].ConsumedAt)
	})

	t.Run("wrong code is rejected", func(t *testing.T) {
		svc, repo, _ := newTestAuthService(t)
		user := register(t, svc)

		_, err := svc.VerifyEmail(context.Background(), user.Email, "000000", SessionMetadata{})
		assert.ErrorIs(t, err, common.ErrInvalidOTP)
		assert.Nil(t, repo.otps[0].ConsumedAt)
	})

	t.Run("consumed code cannot be replayed", func(t *testing.T) {
		svc, _, email := newTestAuthService(t)
		user := register(t, svc)

		code := email.verificationCodes[user.Email]
		_, err := svc.VerifyEmail(context.Background(), user.Email, code, SessionMetadata{})
		require.NoError(t, err)

		_, err = svc.VerifyEmail(context.Background(), user.Email, code, SessionMetadata{})
		assert.ErrorIs(t, err, common.ErrOTPExpired)
	})

	t.Run("resending invalidates the previous code", func(t *testing.T) {
		svc, repo, email := newTestAuthService(t)
		user := register(t, svc)

		require.NoError(t, svc.ResendVerificationCode(context.Background(), user.Email))

		assert.Len(t, repo.otps, 2)
		assert.NotNil(t, repo.otps[0].ConsumedAt)
		assert.Nil(t, repo.otps[1].ConsumedAt)
		assert.NotEmpty(t, email.verificationCodes[user.Email])
	})
}

func TestLogin(t *testing.T) {
	verifiedUser := func(t *testing.T, svc *AuthService, email *fakeEmailSender) *repository.User {
		t.Helper()
		user := register(t, svc)
		_, err := svc.VerifyEmail(context.Background(), user.Email, email.verificationCodes[user.Email], SessionMetadata{})
		require.NoError(t, err)
		return user
	}

	t.Run("verified user with correct password", func(t *testing.T) {
		svc, repo, email := newTestAuthService(t)
		user := verifiedUser(t, svc, email)

		result, err := svc.Login(context.Background(), LoginParams{
			Email:    user.Email,
			Password: "hunter2hunter2",
			Metadata: SessionMetadata{UserAgent: "test-agent", ClientIP: "10.0.0.1"},
		})
		require.NoError(t, err)

		assert.NotEmpty(t, result.Tokens.AccessToken)
		session, ok := repo.sessions[hashToken(result.Tokens.RefreshToken)]
		require.True(t, ok)
		assert.Equal(t, "test-agent", *session.UserAgent)
		assert.Equal(t, "10.0.0.1", *session.ClientIP)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, _, email := newTestAuthService(t)
		user := verifiedUser(t, svc, email)

		_, err := svc.Login(context.Background(), LoginParams{Email: user.Email, Password: "wrong-password"})
		assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	})

	t.Run("unknown email maps to invalid credentials", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)

		_, err := svc.Login(context.Background(), LoginParams{Email: "ghost@example.com", Password: "whatever123"})
		assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	})

	t.Run("unverified account cannot log in", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)
		user := register(t, svc)

		_, err := svc.Login(context.Background(), LoginParams{Email: user.Email, Password: "hunter2hunter2"})
		assert.ErrorIs(t, err, common.ErrNotVerified)
	})
}

func TestRefreshTokens(t *testing.T) {
	login := func(t *testing.T, svc *AuthService, email *fakeEmailSender) *LoginResult {
		t.Helper()
		user := register(t, svc)
		result, err := svc.VerifyEmail(context.Background(), user.Email, email.verificationCodes[user.Email], SessionMetadata{})
		require.NoError(t, err)
		return result
	}

	t.Run("rotates the session", func(t *testing.T) {
		svc, repo, email := newTestAuthService(t)
		result := login(t, svc, email)

		tokens, err := svc.RefreshTokens(context.Background(), RefreshTokenParams{RefreshToken: result.Tokens.RefreshToken})
		require.NoError(t, err)

		_, old := repo.sessions[hashToken(result.Tokens.RefreshToken)]
		assert.False(t, old)
		_, fresh := repo.sessions[hashToken(tokens.RefreshToken)]
		assert.True(t, fresh)
	})

	t.Run("rejects an unknown refresh token", func(t *testing.T) {
		svc, _, email := newTestAuthService(t)
		result := login(t, svc, email)

		require.NoError(t, svc.Logout(context.Background(), result.Tokens.RefreshToken))

		_, err := svc.RefreshTokens(context.Background(), RefreshTokenParams{RefreshToken: result.Tokens.RefreshToken})
		assert.ErrorIs(t, err, common.ErrSessionNotFound)
	})

	t.Run("rejects an access token used as refresh token", func(t *testing.T) {
		svc, _, email := newTestAuthService(t)
		result := login(t, svc, email)

		_, err := svc.RefreshTokens(context.Background(), RefreshTokenParams{RefreshToken: result.Tokens.AccessToken})
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestPasswordReset(t *testing.T) {
	t.Run("full reset flow revokes sessions", func(t *testing.T) {
		svc, repo, email := newTestAuthService(t)
		user := register(t, svc)
		result, err := svc.VerifyEmail(context.Background(), user.Email, email.verificationCodes[user.Email], SessionMetadata{})
		require.NoError(t, err)

		require.NoError(t, svc.RequestPasswordReset(context.Background(), user.Email))
		code := email.resetCodes[user.Email]
		require.NotEmpty(t, code)

		require.NoError(t, svc.ResetPassword(context.Background(), user.Email, code, "newpassword99"))

		_, err = svc.Login(context.Background(), LoginParams{Email: user.Email, Password: "hunter2hunter2"})
		assert.ErrorIs(t, err, common.ErrInvalidCredentials)

		_, err = svc.Login(context.Background(), LoginParams{Email: user.Email, Password: "newpassword99"})
		assert.NoError(t, err)

		session := repo.sessions[hashToken(result.Tokens.RefreshToken)]
		require.NotNil(t, session)
		assert.NotNil(t, session.RevokedAt)
	})

	t.Run("unknown email is silently accepted", func(t *testing.T) {
		svc, _, email := newTestAuthService(t)

		require.NoError(t, svc.RequestPasswordReset(context.Background(), "ghost@example.com"))
		assert.Empty(t, email.resetCodes)
	})

	t.Run("wrong code does not change the password", func(t *testing.T) {
		svc, _, email := newTestAuthService(t)
		user := register(t, svc)
		_, err := svc.VerifyEmail(context.Background(), user.Email, email.verificationCodes[user.Email], SessionMetadata{})
		require.NoError(t, err)

		require.NoError(t, svc.RequestPasswordReset(context.Background(), user.Email))

		err = svc.ResetPassword(context.Background(), user.Email, "000000", "newpassword99")
		assert.ErrorIs(t, err, common.ErrInvalidOTP)

		_, err = svc.Login(context.Background(), LoginParams{Email: user.Email, Password: "hunter2hunter2"})
		assert.NoError(t, err)
	})
}

func TestChangePassword(t *testing.T) {
	svc, _, email := newTestAuthService(t)
	user := register(t, svc)
	_, err := svc.VerifyEmail(context.Background(), user.Email, email.verificationCodes[user.Email], SessionMetadata{})
	require.NoError(t, err)

	t.Run("wrong current password", func(t *testing.T) {
		err := svc.ChangePassword(context.Background(), user.ID, "wrong-password", "newpassword99")
		assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	})

	t.Run("replaces password", func(t *testing.T) {
		require.NoError(t, svc.ChangePassword(context.Background(), user.ID, "hunter2hunter2", "newpassword99"))

		_, err := svc.Login(context.Background(), LoginParams{Email: user.Email, Password: "newpassword99"})
		assert.NoError(t, err)
	})
}
