package repository

import (
	"context"
	"time"

	"surveyapi/internal/model"
)

// UserRepository persists accounts. Role is loaded alongside the user.
type UserRepository interface {
	// Create inserts a user; a nil Role leaves role_id NULL.
	Create(ctx context.Context, u *model.User) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, pq PageQuery) (*PageResult[model.User], error)
	// Update writes username, email, password hash, role, active and staff flags.
	Update(ctx context.Context, u *model.User) (*model.User, error)
	SetActive(ctx context.Context, id string, active bool) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// RoleRepository reads the role catalogue.
type RoleRepository interface {
	List(ctx context.Context) ([]model.Role, error)
	FindByID(ctx context.Context, id string) (*model.Role, error)
	FindByName(ctx context.Context, name string) (*model.Role, error)
}
