package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"surveyapi/internal/auth"
	"surveyapi/internal/model"
	"surveyapi/internal/notify"
	"surveyapi/internal/repository"
)

// RegisterInput is the payload of a self-service signup.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult carries the issued token pair. The TTLs size the auth cookies.
type LoginResult struct {
	Access     string        `json:"access"`
	Refresh    string        `json:"refresh"`
	User       *model.User   `json:"user"`
	AccessTTL  time.Duration `json:"-"`
	RefreshTTL time.Duration `json:"-"`
}

// RefreshResult carries a new access token.
type RefreshResult struct {
	Access    string        `json:"access"`
	AccessTTL time.Duration `json:"-"`
}

// AuthService covers account registration, activation, sessions and password recovery.
type AuthService interface {
	// Register creates an inactive client account and mails its activation link.
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Activate(ctx context.Context, uid, token string) error
	// Login accepts a username or an email as identifier.
	Login(ctx context.Context, identifier, password string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error)
	// Logout revokes whichever of the two tokens is valid.
	Logout(ctx context.Context, accessToken, refreshToken string) error
	// Authenticate resolves an access token to an active user.
	Authenticate(ctx context.Context, accessToken string) (*model.User, error)
	// RequestPasswordReset never reveals whether email belongs to an account.
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, uid, token, newPassword string) error
	ChangePassword(ctx context.Context, actor *model.User, oldPassword, newPassword string) error
	ValidatePassword(password string) []string
}

type authService struct {
	users       repository.UserRepository
	roles       repository.RoleRepository
	tokens      *auth.TokenManager
	revocations auth.RevocationStore
	mailer      notify.Mailer
	frontendURL string
	logger      *slog.Logger
	now         func() time.Time
}

// NewAuthService constructs a new AuthService.
func NewAuthService(
	users repository.UserRepository,
	roles repository.RoleRepository,
	tokens *auth.TokenManager,
	revocations auth.RevocationStore,
	mailer notify.Mailer,
	frontendURL string,
	logger *slog.Logger,
) AuthService {
	return &authService{
		users:       users,
		roles:       roles,
		tokens:      tokens,
		revocations: revocations,
		mailer:      mailer,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
		now:         time.Now,
	}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if problems := auth.ValidatePassword(in.Password); len(problems) > 0 {
		return nil, invalid("password", strings.Join(problems, " "))
	}
	if err := ensureUnique(ctx, s.users, "", username, email); err != nil {
		return nil, err
	}

	role, err := s.roles.FindByName(ctx, model.RoleClient)
	if err != nil {
		return nil, fmt.Errorf("load default role: %w", err)
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u, err := s.users.Create(ctx, &model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     false,
		RegisterDate: s.now().UTC(),
	})
	if err != nil {
		return nil, mapConflict(err)
	}

	token, _, err := s.tokens.Issue(u.ID, auth.TokenActivation, "")
	if err != nil {
		return nil, err
	}
	link := fmt.Sprintf("%s/activate/%s/%s", s.frontendURL, auth.EncodeUID(u.ID), token)
	if err := s.mailer.Send(ctx, notify.ActivationMessage(u.Email, u.Username, link)); err != nil {
		s.logger.Error("activation_mail_failed", "component", "auth", "user_id", u.ID, "error", err.Error())
	}
	return u, nil
}

func (s *authService) Activate(ctx context.Context, uid, token string) error {
	u, _, err := s.userFromLink(ctx, uid, token, auth.TokenActivation)
	if err != nil {
		return err
	}
	if u.IsActive {
		return nil
	}
	return s.users.SetActive(ctx, u.ID, true)
}

func (s *authService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, invalid("", "username and password are required")
	}

	var (
		u   *model.User
		err error
	)
	if strings.Contains(identifier, "@") {
		u, err = s.users.FindByEmail(ctx, identifier)
	} else {
		u, err = s.users.FindByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := auth.VerifyPassword(password, u.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrAccountInactive
	}

	access, _, err := s.tokens.Issue(u.ID, auth.TokenAccess, "")
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.tokens.Issue(u.ID, auth.TokenRefresh, "")
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		return nil, err
	}
	u.LastLogin = &now

	return &LoginResult{
		Access:     access,
		Refresh:    refresh,
		User:       u,
		AccessTTL:  s.tokens.TTL(auth.TokenAccess),
		RefreshTTL: s.tokens.TTL(auth.TokenRefresh),
	}, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	if refreshToken == "" {
		return nil, invalid("refresh", "refresh token is required")
	}
	claims, err := s.tokens.Parse(refreshToken, auth.TokenRefresh)
	if err != nil {
		return nil, ErrInvalidToken
	}
	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidToken
	}
	u, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInvalidToken
	}

	access, _, err := s.tokens.Issue(u.ID, auth.TokenAccess, "")
	if err != nil {
		return nil, err
	}
	return &RefreshResult{Access: access, AccessTTL: s.tokens.TTL(auth.TokenAccess)}, nil
}

func (s *authService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	var errs []error
	for _, t := range []struct {
		raw string
		typ auth.TokenType
	}{
		{raw: accessToken, typ: auth.TokenAccess},
		{raw: refreshToken, typ: auth.TokenRefresh},
	} {
		if t.raw == "" {
			continue
		}
		claims, err := s.tokens.Parse(t.raw, t.typ)
		if err != nil {
			continue
		}
		if err := s.revocations.Revoke(ctx, claims.ID, s.tokens.Remaining(claims)); err != nil {
			errs = append(errs, fmt.Errorf("revoke %s token: %w", t.typ, err))
		}
	}
	return errors.Join(errs...)
}

func (s *authService) Authenticate(ctx context.Context, accessToken string) (*model.User, error) {
	if accessToken == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := s.tokens.Parse(accessToken, auth.TokenAccess)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrUnauthenticated
	}
	u, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrUnauthenticated
	}
	return u, nil
}

func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return err
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}
	if !u.IsActive {
		return nil
	}

	token, _, err := s.tokens.Issue(u.ID, auth.TokenPasswordReset, auth.PasswordFingerprint(u.PasswordHash))
	if err != nil {
		return err
	}
	link := fmt.Sprintf("%s/reset-password/%s/%s", s.frontendURL, auth.EncodeUID(u.ID), token)
	if err := s.mailer.Send(ctx, notify.PasswordResetMessage(u.Email, u.Username, link)); err != nil {
		s.logger.Error("password_reset_mail_failed", "component", "auth", "user_id", u.ID, "error", err.Error())
	}
	return nil
}

func (s *authService) ConfirmPasswordReset(ctx context.Context, uid, token, newPassword string) error {
	u, claims, err := s.userFromLink(ctx, uid, token, auth.TokenPasswordReset)
	if err != nil {
		return err
	}
	if claims.Fingerprint != auth.PasswordFingerprint(u.PasswordHash) {
		return ErrInvalidToken
	}
	if problems := auth.ValidatePassword(newPassword); len(problems) > 0 {
		return invalid("new_password", strings.Join(problems, " "))
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, u.ID, hash)
}

func (s *authService) ChangePassword(ctx context.Context, actor *model.User, oldPassword, newPassword string) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if err := auth.VerifyPassword(oldPassword, actor.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return invalid("old_password", "old password is incorrect")
		}
		return err
	}
	if problems := auth.ValidatePassword(newPassword); len(problems) > 0 {
		return invalid("new_password", strings.Join(problems, " "))
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, actor.ID, hash)
}

func (s *authService) ValidatePassword(password string) []string {
	return auth.ValidatePassword(password)
}

// userFromLink resolves the uid/token pair of an emailed link.
func (s *authService) userFromLink(ctx context.Context, uid, token string, typ auth.TokenType) (*model.User, *auth.Claims, error) {
	userID, err := auth.DecodeUID(uid)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}
	claims, err := s.tokens.Parse(token, typ)
	if err != nil || claims.Subject != userID {
		return nil, nil, ErrInvalidToken
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, err
	}
	return u, claims, nil
}

func validateUsername(username string) error {
	if username == "" {
		return invalid("username", "this field is required")
	}
	if len(username) > 150 {
		return invalid("username", "ensure this field has no more than 150 characters")
	}
	if strings.ContainsAny(username, " @\t\n") {
		return invalid("username", "may contain only letters, digits and . + - _")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return invalid("email", "this field is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || len(email) > 254 {
		return invalid("email", "enter a valid email address")
	}
	return nil
}

// ensureUnique rejects a username or email already used by a user other than selfID.
func ensureUnique(ctx context.Context, users repository.UserRepository, selfID, username, email string) error {
	if username != "" {
		u, err := users.FindByUsername(ctx, username)
		if err == nil && u.ID != selfID {
			return alreadyExists("username")
		}
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
	}
	if email != "" {
		u, err := users.FindByEmail(ctx, email)
		if err == nil && u.ID != selfID {
			return alreadyExists("email")
		}
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
	}
	return nil
}

// mapConflict turns repository unique violations into ALREADY_EXISTS validation errors.
func mapConflict(err error) error {
	var conflict *repository.ConflictError
	if errors.As(err, &conflict) {
		return alreadyExists(conflict.Field)
	}
	return err
}
