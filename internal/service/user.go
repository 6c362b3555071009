package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"surveyapi/internal/auth"
	"surveyapi/internal/model"
	"surveyapi/internal/repository"
)

// ProfileInput changes the caller's own account. Nil fields are left untouched.
type ProfileInput struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

// AdminUserInput is used by administrators to create or edit accounts.
// On update nil fields are left untouched.
type AdminUserInput struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	RoleID   *string `json:"role_id"`
	IsActive *bool   `json:"is_active"`
	IsStaff  *bool   `json:"is_staff"`
}

// UserListResult is the service-level DTO for paginated users.
type UserListResult struct {
	Items []model.User `json:"data"`
	Total int          `json:"total"`
}

// UserService manages profiles, roles and, for administrators, every account.
type UserService interface {
	Profile(ctx context.Context, actor *model.User) (*model.User, error)
	UpdateProfile(ctx context.Context, actor *model.User, in ProfileInput) (*model.User, error)
	ListRoles(ctx context.Context, actor *model.User) ([]model.Role, error)

	List(ctx context.Context, actor *model.User, limit, offset int) (*UserListResult, error)
	Get(ctx context.Context, actor *model.User, id string) (*model.User, error)
	Create(ctx context.Context, actor *model.User, in AdminUserInput) (*model.User, error)
	Update(ctx context.Context, actor *model.User, id string, in AdminUserInput) (*model.User, error)
	Delete(ctx context.Context, actor *model.User, id string) error
	SetActive(ctx context.Context, actor *model.User, id string, active bool) (*model.User, error)
}

type userService struct {
	users repository.UserRepository
	roles repository.RoleRepository
	now   func() time.Time
}

// NewUserService constructs a new UserService.
func NewUserService(users repository.UserRepository, roles repository.RoleRepository) UserService {
	return &userService{users: users, roles: roles, now: time.Now}
}

func (s *userService) Profile(ctx context.Context, actor *model.User) (*model.User, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	u, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (s *userService) UpdateProfile(ctx context.Context, actor *model.User, in ProfileInput) (*model.User, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	u, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, notFound(err)
	}
	if err := s.applyIdentity(ctx, u, in.Username, in.Email); err != nil {
		return nil, err
	}
	out, err := s.users.Update(ctx, u)
	if err != nil {
		return nil, mapConflict(err)
	}
	return out, nil
}

func (s *userService) ListRoles(ctx context.Context, actor *model.User) ([]model.Role, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.roles.List(ctx)
}

func (s *userService) List(ctx context.Context, actor *model.User, limit, offset int) (*UserListResult, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	limit, offset = pageBounds(limit, offset)
	res, err := s.users.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &UserListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *userService) Get(ctx context.Context, actor *model.User, id string) (*model.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (s *userService) Create(ctx context.Context, actor *model.User, in AdminUserInput) (*model.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if in.Username == nil {
		return nil, invalid("username", "this field is required")
	}
	if in.Email == nil {
		return nil, invalid("email", "this field is required")
	}
	if in.Password == nil {
		return nil, invalid("password", "this field is required")
	}

	u := &model.User{ID: uuid.NewString(), RegisterDate: s.now().UTC()}
	if err := s.applyIdentity(ctx, u, in.Username, in.Email); err != nil {
		return nil, err
	}
	if err := s.applyAdminFields(ctx, u, in); err != nil {
		return nil, err
	}

	out, err := s.users.Create(ctx, u)
	if err != nil {
		return nil, mapConflict(err)
	}
	return out, nil
}

func (s *userService) Update(ctx context.Context, actor *model.User, id string, in AdminUserInput) (*model.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := s.applyIdentity(ctx, u, in.Username, in.Email); err != nil {
		return nil, err
	}
	if err := s.applyAdminFields(ctx, u, in); err != nil {
		return nil, err
	}
	out, err := s.users.Update(ctx, u)
	if err != nil {
		return nil, mapConflict(notFound(err))
	}
	return out, nil
}

func (s *userService) Delete(ctx context.Context, actor *model.User, id string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if actor.ID == id {
		return invalid("id", "you cannot delete your own account")
	}
	return notFound(s.users.Delete(ctx, id))
}

func (s *userService) SetActive(ctx context.Context, actor *model.User, id string, active bool) (*model.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if err := s.users.SetActive(ctx, id, active); err != nil {
		return nil, notFound(err)
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// applyIdentity validates and copies a new username and email onto u.
func (s *userService) applyIdentity(ctx context.Context, u *model.User, username, email *string) error {
	var newUsername, newEmail string
	if username != nil {
		newUsername = strings.TrimSpace(*username)
		if err := validateUsername(newUsername); err != nil {
			return err
		}
	}
	if email != nil {
		newEmail = strings.TrimSpace(*email)
		if err := validateEmail(newEmail); err != nil {
			return err
		}
	}
	if err := ensureUnique(ctx, s.users, u.ID, newUsername, newEmail); err != nil {
		return err
	}
	if newUsername != "" {
		u.Username = newUsername
	}
	if newEmail != "" {
		u.Email = newEmail
	}
	return nil
}

func (s *userService) applyAdminFields(ctx context.Context, u *model.User, in AdminUserInput) error {
	if in.Password != nil {
		if problems := auth.ValidatePassword(*in.Password); len(problems) > 0 {
			return invalid("password", strings.Join(problems, " "))
		}
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
	}
	if in.RoleID != nil {
		if *in.RoleID == "" {
			u.Role = nil
		} else {
			if _, err := uuid.Parse(*in.RoleID); err != nil {
				return invalid("role_id", "unknown role")
			}
			role, err := s.roles.FindByID(ctx, *in.RoleID)
			if err != nil {
				if errors.Is(notFound(err), ErrNotFound) {
					return invalid("role_id", "unknown role")
				}
				return err
			}
			u.Role = role
		}
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if in.IsStaff != nil {
		u.IsStaff = *in.IsStaff
	}
	// Accounts always carry a role; an empty role_id resets it to client.
	if u.Role == nil {
		role, err := s.roles.FindByName(ctx, model.RoleClient)
		if err != nil {
			return fmt.Errorf("load default role: %w", err)
		}
		u.Role = role
	}
	return nil
}
