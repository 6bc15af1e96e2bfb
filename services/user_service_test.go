package services

import (
	"context"
	"testing"

	"creditdesk/database"
	"creditdesk/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserRequest(id, email string) CreateUserRequest {
	return CreateUserRequest{
		ID:        id,
		FirstName: "Elena",
		LastName:  "Marin",
		Email:     email,
		Password:  "s3cretpass",
	}
}

func TestCreateUserAndAuthenticate(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, newUserRequest("u1", "elena@example.com"))
	require.NoError(t, err)
	assert.True(t, user.IsActive)
	assert.Nil(t, user.LastLogin)

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", "u1").Error)
	assert.NotEqual(t, "s3cretpass", stored.Password)

	signedIn, err := svc.Authenticate(ctx, SignInRequest{Email: " ELENA@example.com", Password: "s3cretpass"})
	require.NoError(t, err)
	assert.NotNil(t, signedIn.LastLogin)

	_, err = svc.Authenticate(ctx, SignInRequest{Email: "elena@example.com", Password: "wrongpass1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, SignInRequest{Email: "ghost@example.com", Password: "s3cretpass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.DeactivateUser(ctx, "u1"))
	_, err = svc.Authenticate(ctx, SignInRequest{Email: "elena@example.com", Password: "s3cretpass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateUserValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, newUserRequest("u1", "elena@example.com"))
	require.NoError(t, err)

	cases := map[string]CreateUserRequest{
		"duplicate id":    newUserRequest("u1", "other@example.com"),
		"duplicate email": newUserRequest("u2", "Elena@Example.com"),
		"short password": func() CreateUserRequest {
			r := newUserRequest("u3", "u3@example.com")
			r.Password = "a1"
			return r
		}(),
		"no digits": func() CreateUserRequest {
			r := newUserRequest("u4", "u4@example.com")
			r.Password = "onlyletters"
			return r
		}(),
		"same as email": func() CreateUserRequest {
			r := newUserRequest("u5", "abc12345@example.com")
			r.Password = "abc12345"
			return r
		}(),
		"unknown group": func() CreateUserRequest {
			r := newUserRequest("u6", "u6@example.com")
			r.Groups = []uint{999}
			return r
		}(),
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateUser(ctx, req)
			assert.True(t, IsValidation(err), "got %v", err)
		})
	}
}

func TestUpdateUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	access := NewAccessService(db)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, newUserRequest("u1", "elena@example.com"))
	require.NoError(t, err)
	group, err := access.CreateGroup(ctx, GroupDTO{Name: "Tellers"})
	require.NoError(t, err)

	name := "Helena"
	password := "n3wpassword"
	groups := []uint{group.ID}
	updated, err := svc.UpdateUser(ctx, "u1", UpdateUserRequest{FirstName: &name, Password: &password, Groups: &groups})
	require.NoError(t, err)
	assert.Equal(t, "Helena", updated.FirstName)
	assert.Equal(t, []uint{group.ID}, updated.Groups)

	_, err = svc.Authenticate(ctx, SignInRequest{Email: "elena@example.com", Password: "n3wpassword"})
	require.NoError(t, err)

	page, err := svc.ListUsers(ctx, ListParams{Search: "helena"})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, []uint{group.ID}, page.Results[0].Groups)

	_, err = svc.UpdateUser(ctx, "ghost", UpdateUserRequest{FirstName: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnsureSuperuserIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()

	require.NoError(t, svc.EnsureSuperuser(ctx, "admin", "admin@example.com", "adm1nadm1n"))
	require.NoError(t, svc.EnsureSuperuser(ctx, "admin", "admin@example.com", "adm1nadm1n"))

	user, err := svc.FindByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, user.IsSuperuser)
	assert.True(t, user.IsStaff)
}

func TestHasPermission(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	access := NewAccessService(db)
	ctx := context.Background()

	var viewCredit models.Permission
	require.NoError(t, db.Where("codename = ?", "view_credit").First(&viewCredit).Error)

	group, err := access.CreateGroup(ctx, GroupDTO{Name: "Analysts", Permissions: []uint{viewCredit.ID}})
	require.NoError(t, err)

	analyst := newUserRequest("u1", "analyst@example.com")
	analyst.Groups = []uint{group.ID}
	_, err = users.CreateUser(ctx, analyst)
	require.NoError(t, err)

	root := newUserRequest("root", "root@example.com")
	root.IsSuperuser = true
	_, err = users.CreateUser(ctx, root)
	require.NoError(t, err)

	_, err = users.CreateUser(ctx, newUserRequest("nobody", "nobody@example.com"))
	require.NoError(t, err)

	check := func(userID, action, model string) bool {
		ok, err := access.HasPermission(ctx, userID, action, model)
		require.NoError(t, err)
		return ok
	}

	assert.True(t, check("u1", models.ActionView, models.ModelCredit))
	assert.False(t, check("u1", models.ActionChange, models.ModelCredit))
	assert.False(t, check("nobody", models.ActionView, models.ModelCredit))
	assert.True(t, check("root", models.ActionDelete, models.ModelGroup))
	assert.False(t, check("ghost", models.ActionView, models.ModelCredit))

	require.NoError(t, users.DeactivateUser(ctx, "root"))
	assert.False(t, check("root", models.ActionView, models.ModelCredit))
}

func TestGroups(t *testing.T) {
	db := newTestDB(t)
	access := NewAccessService(db)
	ctx := context.Background()

	permissions, err := access.ListPermissions(ctx)
	require.NoError(t, err)
	assert.Len(t, permissions, len(models.PermissionModels)*len(models.PermissionActions))

	group, err := access.CreateGroup(ctx, GroupDTO{Name: "Cashiers", Permissions: []uint{permissions[0].ID, permissions[1].ID}})
	require.NoError(t, err)
	assert.Len(t, group.Permissions, 2)

	_, err = access.CreateGroup(ctx, GroupDTO{Name: "Cashiers"})
	assert.True(t, IsValidation(err))
	_, err = access.CreateGroup(ctx, GroupDTO{Name: "Ghosts", Permissions: []uint{99999}})
	assert.True(t, IsValidation(err))

	updated, err := access.UpdateGroup(ctx, group.ID, GroupDTO{Name: "Senior cashiers", Permissions: []uint{permissions[2].ID}})
	require.NoError(t, err)
	assert.Equal(t, "Senior cashiers", updated.Name)

	stored, err := access.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, stored.Permissions, 1)
	assert.Equal(t, permissions[2].ID, stored.Permissions[0].ID)

	page, err := access.ListGroups(ctx, ListParams{})
	require.NoError(t, err)
	// группа администраторов создается при старте
	assert.Equal(t, int64(2), page.Count)

	require.NoError(t, access.DeleteGroup(ctx, group.ID))
	_, err = access.GetGroup(ctx, group.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var admin models.Group
	require.NoError(t, db.Preload("Permissions").Where("name = ?", database.AdministratorGroup).First(&admin).Error)
	assert.Len(t, admin.Permissions, len(permissions))
}
