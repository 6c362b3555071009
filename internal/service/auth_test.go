package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"surveyapi/internal/auth"
	"surveyapi/internal/config"
	"surveyapi/internal/model"
	"surveyapi/internal/repository"
	repoMocks "surveyapi/internal/repository/mocks"
)

type authFixture struct {
	svc     *authService
	users   *repoMocks.MockUserRepository
	roles   *repoMocks.MockRoleRepository
	tokens  *auth.TokenManager
	revoked *auth.MemoryRevocationStore
	mailer  *recordingMailer
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users: new(repoMocks.MockUserRepository),
		roles: new(repoMocks.MockRoleRepository),
		tokens: auth.NewTokenManager(config.AuthConfig{
			JWTSecret:          "test-secret",
			Issuer:             "surveyapi-test",
			AccessTokenTTL:     15 * time.Minute,
			RefreshTokenTTL:    24 * time.Hour,
			ActivationTokenTTL: time.Hour,
			ResetTokenTTL:      time.Hour,
		}),
		revoked: auth.NewMemoryRevocationStore(),
		mailer:  &recordingMailer{},
	}
	f.svc = NewAuthService(f.users, f.roles, f.tokens, f.revoked, f.mailer, "http://front.test/", discardLogger()).(*authService)
	return f
}

func activeUser(t *testing.T, password string) *model.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	return &model.User{
		ID:           "11111111-1111-1111-1111-111111111111",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hash,
		IsActive:     true,
		Role:         &model.Role{Name: model.RoleClient},
	}
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates inactive client and mails activation link", func(t *testing.T) {
		f := newAuthFixture()
		role := &model.Role{ID: "r1", Name: model.RoleClient}
		f.users.On("FindByUsername", mock.Anything, "alice").Return(nil, sql.ErrNoRows)
		f.users.On("FindByEmail", mock.Anything, "alice@example.com").Return(nil, sql.ErrNoRows)
		f.roles.On("FindByName", mock.Anything, model.RoleClient).Return(role, nil)
		f.users.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
			return !u.IsActive && u.Role == role && u.PasswordHash != "secret-pass-1"
		})).Return(func(_ context.Context, u *model.User) *model.User { return u }, nil)

		u, err := f.svc.Register(ctx, RegisterInput{Username: " alice ", Email: "alice@example.com", Password: "secret-pass-1"})

		require.NoError(t, err)
		assert.False(t, u.IsActive)
		require.Len(t, f.mailer.sent, 1)
		msg := f.mailer.sent[0]
		assert.Equal(t, "alice@example.com", msg.To)
		assert.True(t, strings.HasPrefix(msg.Link, "http://front.test/activate/"+auth.EncodeUID(u.ID)+"/"))
		f.users.AssertExpectations(t)
	})

	t.Run("duplicate username", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("FindByUsername", mock.Anything, "alice").Return(&model.User{ID: "other"}, nil)

		_, err := f.svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "secret-pass-1"})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "ALREADY_EXISTS", verr.Code)
		assert.Equal(t, "username", verr.Field)
	})

	t.Run("conflict raced at insert", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("FindByUsername", mock.Anything, "alice").Return(nil, sql.ErrNoRows)
		f.users.On("FindByEmail", mock.Anything, "alice@example.com").Return(nil, sql.ErrNoRows)
		f.roles.On("FindByName", mock.Anything, model.RoleClient).Return(&model.Role{Name: model.RoleClient}, nil)
		f.users.On("Create", mock.Anything, mock.Anything).Return(nil, &repository.ConflictError{Field: "email"})

		_, err := f.svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "secret-pass-1"})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "email", verr.Field)
		assert.Empty(t, f.mailer.sent)
	})

	t.Run("numeric password", func(t *testing.T) {
		f := newAuthFixture()
		_, err := f.svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "12345678"})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "password", verr.Field)
	})

	t.Run("invalid email", func(t *testing.T) {
		f := newAuthFixture()
		_, err := f.svc.Register(ctx, RegisterInput{Username: "alice", Email: "not-an-email", Password: "secret-pass-1"})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "email", verr.Field)
	})

	t.Run("mail failure does not fail registration", func(t *testing.T) {
		f := newAuthFixture()
		f.mailer.err = errors.New("broker down")
		f.users.On("FindByUsername", mock.Anything, "alice").Return(nil, sql.ErrNoRows)
		f.users.On("FindByEmail", mock.Anything, "alice@example.com").Return(nil, sql.ErrNoRows)
		f.roles.On("FindByName", mock.Anything, model.RoleClient).Return(&model.Role{Name: model.RoleClient}, nil)
		f.users.On("Create", mock.Anything, mock.Anything).Return(func(_ context.Context, u *model.User) *model.User { return u }, nil)

		_, err := f.svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "secret-pass-1"})
		assert.NoError(t, err)
	})
}

func TestAuthService_Activate(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	u := activeUser(t, "secret-pass-1")
	u.IsActive = false

	token, _, err := f.tokens.Issue(u.ID, auth.TokenActivation, "")
	require.NoError(t, err)

	f.users.On("FindByID", mock.Anything, u.ID).Return(u, nil)
	f.users.On("SetActive", mock.Anything, u.ID, true).Return(nil)

	require.NoError(t, f.svc.Activate(ctx, auth.EncodeUID(u.ID), token))
	f.users.AssertCalled(t, "SetActive", mock.Anything, u.ID, true)

	t.Run("uid of another user", func(t *testing.T) {
		err := f.svc.Activate(ctx, auth.EncodeUID("22222222-2222-2222-2222-222222222222"), token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("access token is not an activation token", func(t *testing.T) {
		access, _, err := f.tokens.Issue(u.ID, auth.TokenAccess, "")
		require.NoError(t, err)
		assert.ErrorIs(t, f.svc.Activate(ctx, auth.EncodeUID(u.ID), access), ErrInvalidToken)
	})

	t.Run("garbage uid", func(t *testing.T) {
		assert.ErrorIs(t, f.svc.Activate(ctx, "%%%", token), ErrInvalidToken)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("by username", func(t *testing.T) {
		f := newAuthFixture()
		u := activeUser(t, "secret-pass-1")
		f.users.On("FindByUsername", mock.Anything, "alice").Return(u, nil)
		f.users.On("TouchLastLogin", mock.Anything, u.ID, mock.AnythingOfType("time.Time")).Return(nil)

		res, err := f.svc.Login(ctx, "alice", "secret-pass-1")

		require.NoError(t, err)
		assert.NotEmpty(t, res.Access)
		assert.NotEmpty(t, res.Refresh)
		assert.Equal(t, 15*time.Minute, res.AccessTTL)
		assert.Equal(t, 24*time.Hour, res.RefreshTTL)
		assert.NotNil(t, res.User.LastLogin)

		claims, err := f.tokens.Parse(res.Access, auth.TokenAccess)
		require.NoError(t, err)
		assert.Equal(t, u.ID, claims.Subject)
	})

	t.Run("by email", func(t *testing.T) {
		f := newAuthFixture()
		u := activeUser(t, "secret-pass-1")
		f.users.On("FindByEmail", mock.Anything, "alice@example.com").Return(u, nil)
		f.users.On("TouchLastLogin", mock.Anything, u.ID, mock.Anything).Return(nil)

		_, err := f.svc.Login(ctx, "alice@example.com", "secret-pass-1")
		assert.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("FindByUsername", mock.Anything, "alice").Return(activeUser(t, "secret-pass-1"), nil)

		_, err := f.svc.Login(ctx, "alice", "nope-nope-nope")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("FindByUsername", mock.Anything, "bob").Return(nil, sql.ErrNoRows)

		_, err := f.svc.Login(ctx, "bob", "secret-pass-1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("inactive account", func(t *testing.T) {
		f := newAuthFixture()
		u := activeUser(t, "secret-pass-1")
		u.IsActive = false
		f.users.On("FindByUsername", mock.Anything, "alice").Return(u, nil)

		_, err := f.svc.Login(ctx, "alice", "secret-pass-1")
		assert.ErrorIs(t, err, ErrAccountInactive)
		f.users.AssertNotCalled(t, "TouchLastLogin", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAuthService_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	u := activeUser(t, "secret-pass-1")
	f.users.On("FindByUsername", mock.Anything, "alice").Return(u, nil)
	f.users.On("FindByID", mock.Anything, u.ID).Return(u, nil)
	f.users.On("TouchLastLogin", mock.Anything, u.ID, mock.Anything).Return(nil)

	login, err := f.svc.Login(ctx, "alice", "secret-pass-1")
	require.NoError(t, err)

	who, err := f.svc.Authenticate(ctx, login.Access)
	require.NoError(t, err)
	assert.Equal(t, u.ID, who.ID)

	refreshed, err := f.svc.Refresh(ctx, login.Refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Access)

	_, err = f.svc.Refresh(ctx, login.Access)
	assert.ErrorIs(t, err, ErrInvalidToken, "access token cannot refresh")

	require.NoError(t, f.svc.Logout(ctx, login.Access, login.Refresh))

	_, err = f.svc.Authenticate(ctx, login.Access)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = f.svc.Refresh(ctx, login.Refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	assert.NoError(t, f.svc.Logout(ctx, "garbage", ""), "logout never fails on bad tokens")
}

func TestAuthService_Authenticate_InactiveUser(t *testing.T) {
	f := newAuthFixture()
	u := activeUser(t, "secret-pass-1")
	u.IsActive = false
	f.users.On("FindByID", mock.Anything, u.ID).Return(u, nil)
	token, _, err := f.tokens.Issue(u.ID, auth.TokenAccess, "")
	require.NoError(t, err)

	_, err = f.svc.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.svc.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthService_PasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email is silent", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, sql.ErrNoRows)

		assert.NoError(t, f.svc.RequestPasswordReset(ctx, "ghost@example.com"))
		assert.Empty(t, f.mailer.sent)
	})

	t.Run("full flow and token single use", func(t *testing.T) {
		f := newAuthFixture()
		u := activeUser(t, "secret-pass-1")
		f.users.On("FindByEmail", mock.Anything, u.Email).Return(u, nil)
		f.users.On("FindByID", mock.Anything, u.ID).Return(u, nil)
		f.users.On("UpdatePassword", mock.Anything, u.ID, mock.AnythingOfType("string")).
			Run(func(args mock.Arguments) { u.PasswordHash = args.String(2) }).
			Return(nil)

		require.NoError(t, f.svc.RequestPasswordReset(ctx, u.Email))
		require.Len(t, f.mailer.sent, 1)
		link := f.mailer.sent[0].Link
		prefix := "http://front.test/reset-password/" + auth.EncodeUID(u.ID) + "/"
		require.True(t, strings.HasPrefix(link, prefix))
		token := strings.TrimPrefix(link, prefix)

		require.NoError(t, f.svc.ConfirmPasswordReset(ctx, auth.EncodeUID(u.ID), token, "brand-new-pass"))
		assert.NoError(t, auth.VerifyPassword("brand-new-pass", u.PasswordHash))

		err := f.svc.ConfirmPasswordReset(ctx, auth.EncodeUID(u.ID), token, "another-pass-2")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("weak new password", func(t *testing.T) {
		f := newAuthFixture()
		u := activeUser(t, "secret-pass-1")
		f.users.On("FindByID", mock.Anything, u.ID).Return(u, nil)
		token, _, err := f.tokens.Issue(u.ID, auth.TokenPasswordReset, auth.PasswordFingerprint(u.PasswordHash))
		require.NoError(t, err)

		err = f.svc.ConfirmPasswordReset(ctx, auth.EncodeUID(u.ID), token, "short")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "new_password", verr.Field)
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	u := activeUser(t, "secret-pass-1")
	f.users.On("UpdatePassword", mock.Anything, u.ID, mock.AnythingOfType("string")).Return(nil)

	err := f.svc.ChangePassword(ctx, u, "wrong-old-pass", "brand-new-pass")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "old_password", verr.Field)

	assert.NoError(t, f.svc.ChangePassword(ctx, u, "secret-pass-1", "brand-new-pass"))
	assert.ErrorIs(t, f.svc.ChangePassword(ctx, nil, "a", "b"), ErrUnauthenticated)
}
