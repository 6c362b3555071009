package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"surveyapi/internal/model"
	"surveyapi/internal/repository"
	repoMocks "surveyapi/internal/repository/mocks"
)

func TestUserService_AdminOnly(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(new(repoMocks.MockUserRepository), new(repoMocks.MockRoleRepository))
	client := clientUser("c1")

	_, err := svc.List(ctx, client, 10, 0)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.ListRoles(ctx, client)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Get(ctx, client, "u1")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Create(ctx, nil, AdminUserInput{})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, client, "u1"), ErrForbidden)
	_, err = svc.SetActive(ctx, client, "u1", true)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUserService_StaffCountsAsAdmin(t *testing.T) {
	users := new(repoMocks.MockUserRepository)
	svc := NewUserService(users, new(repoMocks.MockRoleRepository))
	staff := &model.User{ID: "s1", IsStaff: true, IsActive: true}
	users.On("List", mock.Anything, repository.PageQuery{Limit: 100, Offset: 0}).
		Return(&repository.PageResult[model.User]{Items: []model.User{*staff}, Total: 1}, nil)

	res, err := svc.List(context.Background(), staff, 500, -3)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
}

func TestUserService_Create(t *testing.T) {
	ctx := context.Background()
	admin := adminUser()

	t.Run("with role", func(t *testing.T) {
		users := new(repoMocks.MockUserRepository)
		roles := new(repoMocks.MockRoleRepository)
		svc := NewUserService(users, roles)
		roleID := "7b0e4c4e-0d8f-4a53-9a4a-5e1c6b0c2d11"
		role := &model.Role{ID: roleID, Name: model.RoleVoter}
		users.On("FindByUsername", mock.Anything, "bob").Return(nil, sql.ErrNoRows)
		users.On("FindByEmail", mock.Anything, "bob@example.com").Return(nil, sql.ErrNoRows)
		roles.On("FindByID", mock.Anything, roleID).Return(role, nil)
		users.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
			return u.Username == "bob" && u.Role == role && u.IsActive && u.PasswordHash != ""
		})).Return(func(_ context.Context, u *model.User) *model.User { return u }, nil)

		u, err := svc.Create(ctx, admin, AdminUserInput{
			Username: ptr("bob"),
			Email:    ptr("bob@example.com"),
			Password: ptr("secret-pass-1"),
			RoleID:   ptr(roleID),
			IsActive: ptr(true),
		})

		require.NoError(t, err)
		assert.Equal(t, model.RoleVoter, u.RoleName())
		users.AssertExpectations(t)
	})

	t.Run("unknown role", func(t *testing.T) {
		users := new(repoMocks.MockUserRepository)
		roles := new(repoMocks.MockRoleRepository)
		svc := NewUserService(users, roles)
		users.On("FindByUsername", mock.Anything, "bob").Return(nil, sql.ErrNoRows)
		users.On("FindByEmail", mock.Anything, "bob@example.com").Return(nil, sql.ErrNoRows)
		roles.On("FindByID", mock.Anything, mock.Anything).Return(nil, sql.ErrNoRows)

		_, err := svc.Create(ctx, admin, AdminUserInput{
			Username: ptr("bob"),
			Email:    ptr("bob@example.com"),
			Password: ptr("secret-pass-1"),
			RoleID:   ptr("7b0e4c4e-0d8f-4a53-9a4a-5e1c6b0c2d11"),
		})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "role_id", verr.Field)
	})

	t.Run("defaults to client role", func(t *testing.T) {
		users := new(repoMocks.MockUserRepository)
		roles := new(repoMocks.MockRoleRepository)
		svc := NewUserService(users, roles)
		client := &model.Role{ID: "c0a8e2a1-1111-4c4c-8888-000000000001", Name: model.RoleClient}
		users.On("FindByUsername", mock.Anything, "bob").Return(nil, sql.ErrNoRows)
		users.On("FindByEmail", mock.Anything, "bob@example.com").Return(nil, sql.ErrNoRows)
		roles.On("FindByName", mock.Anything, model.RoleClient).Return(client, nil)
		users.On("Create", mock.Anything, mock.Anything).
			Return(func(_ context.Context, u *model.User) *model.User { return u }, nil)

		u, err := svc.Create(ctx, admin, AdminUserInput{
			Username: ptr("bob"),
			Email:    ptr("bob@example.com"),
			Password: ptr("secret-pass-1"),
		})

		require.NoError(t, err)
		assert.Equal(t, model.RoleClient, u.RoleName())
		assert.True(t, u.IsClient())
		roles.AssertExpectations(t)
	})

	t.Run("missing password", func(t *testing.T) {
		svc := NewUserService(new(repoMocks.MockUserRepository), new(repoMocks.MockRoleRepository))
		_, err := svc.Create(ctx, admin, AdminUserInput{Username: ptr("bob"), Email: ptr("bob@example.com")})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "password", verr.Field)
	})
}

func TestUserService_Update_EmptyRoleResetsToClient(t *testing.T) {
	users := new(repoMocks.MockUserRepository)
	roles := new(repoMocks.MockRoleRepository)
	svc := NewUserService(users, roles)
	client := &model.Role{ID: "c0a8e2a1-1111-4c4c-8888-000000000001", Name: model.RoleClient}
	existing := &model.User{ID: "u1", Username: "bob", Role: &model.Role{Name: model.RoleVoter}}
	users.On("FindByID", mock.Anything, "u1").Return(existing, nil)
	roles.On("FindByName", mock.Anything, model.RoleClient).Return(client, nil)
	users.On("Update", mock.Anything, mock.MatchedBy(func(u *model.User) bool { return u.Role == client })).
		Return(func(_ context.Context, u *model.User) *model.User { return u }, nil)

	u, err := svc.Update(context.Background(), adminUser(), "u1", AdminUserInput{RoleID: ptr("")})

	require.NoError(t, err)
	assert.Equal(t, model.RoleClient, u.RoleName())
	users.AssertExpectations(t)
}

func TestUserService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	actor := clientUser("c1")

	t.Run("email taken by someone else", func(t *testing.T) {
		users := new(repoMocks.MockUserRepository)
		svc := NewUserService(users, new(repoMocks.MockRoleRepository))
		users.On("FindByID", mock.Anything, "c1").Return(clientUser("c1"), nil)
		users.On("FindByEmail", mock.Anything, "taken@example.com").Return(&model.User{ID: "c2"}, nil)

		_, err := svc.UpdateProfile(ctx, actor, ProfileInput{Email: ptr("taken@example.com")})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "ALREADY_EXISTS", verr.Code)
	})

	t.Run("keeping own username", func(t *testing.T) {
		users := new(repoMocks.MockUserRepository)
		svc := NewUserService(users, new(repoMocks.MockRoleRepository))
		current := clientUser("c1")
		users.On("FindByID", mock.Anything, "c1").Return(current, nil)
		users.On("FindByUsername", mock.Anything, current.Username).Return(current, nil)
		users.On("Update", mock.Anything, current).Return(current, nil)

		u, err := svc.UpdateProfile(ctx, actor, ProfileInput{Username: ptr(current.Username)})

		require.NoError(t, err)
		assert.Equal(t, current.Username, u.Username)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		svc := NewUserService(new(repoMocks.MockUserRepository), new(repoMocks.MockRoleRepository))
		_, err := svc.UpdateProfile(ctx, nil, ProfileInput{})
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})
}

func TestUserService_Delete(t *testing.T) {
	ctx := context.Background()
	admin := adminUser()
	users := new(repoMocks.MockUserRepository)
	svc := NewUserService(users, new(repoMocks.MockRoleRepository))
	users.On("Delete", mock.Anything, "missing").Return(sql.ErrNoRows)
	users.On("Delete", mock.Anything, "u1").Return(nil)

	var verr *ValidationError
	assert.ErrorAs(t, svc.Delete(ctx, admin, admin.ID), &verr)
	assert.ErrorIs(t, svc.Delete(ctx, admin, "missing"), ErrNotFound)
	assert.NoError(t, svc.Delete(ctx, admin, "u1"))
}

func TestUserService_SetActive(t *testing.T) {
	users := new(repoMocks.MockUserRepository)
	svc := NewUserService(users, new(repoMocks.MockRoleRepository))
	users.On("SetActive", mock.Anything, "u1", false).Return(nil)
	users.On("FindByID", mock.Anything, "u1").Return(&model.User{ID: "u1", IsActive: false}, nil)

	u, err := svc.SetActive(context.Background(), adminUser(), "u1", false)

	require.NoError(t, err)
	assert.False(t, u.IsActive)
}
