package admins

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/arbor-commerce/arbor/internal/auth"
	"github.com/arbor-commerce/arbor/internal/shared"
)

type fakeRepo struct {
	nextID    int64
	byID      map[int64]*Admin
	passwords map[int64]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextID: 1, byID: map[int64]*Admin{}, passwords: map[int64]string{}}
}

func (f *fakeRepo) List(_ context.Context, _ ListAdminsFilters) ([]Admin, int, error) {
	var admins []Admin
	for _, admin := range f.byID {
		admins = append(admins, *admin)
	}
	return admins, len(admins), nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (Admin, error) {
	if admin, ok := f.byID[id]; ok {
		return *admin, nil
	}
	return Admin{}, shared.ErrNotFound
}

func (f *fakeRepo) Create(_ context.Context, email, passwordHash string, role auth.Role, permissions auth.PermissionSet) (Admin, error) {
	for _, admin := range f.byID {
		if admin.Email == email {
			return Admin{}, shared.ErrDuplicate
		}
	}
	admin := &Admin{ID: f.nextID, Email: email, Role: role, Permissions: permissions, IsActive: true}
	f.byID[f.nextID] = admin
	f.passwords[f.nextID] = passwordHash
	f.nextID++
	return *admin, nil
}

func (f *fakeRepo) Update(_ context.Context, id int64, role *auth.Role, permissions *auth.PermissionSet, isActive *bool) (Admin, error) {
	admin, ok := f.byID[id]
	if !ok {
		return Admin{}, shared.ErrNotFound
	}
	if role != nil {
		admin.Role = *role
	}
	if permissions != nil {
		admin.Permissions = *permissions
	}
	if isActive != nil {
		admin.IsActive = *isActive
	}
	return *admin, nil
}

func (f *fakeRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	if _, ok := f.byID[id]; !ok {
		return shared.ErrNotFound
	}
	f.passwords[id] = passwordHash
	return nil
}

func (f *fakeRepo) UpdatePasswordByEmail(_ context.Context, email, passwordHash string) error {
	for id, admin := range f.byID {
		if admin.Email == email && admin.IsActive {
			f.passwords[id] = passwordHash
			return nil
		}
	}
	return shared.ErrNotFound
}

func (f *fakeRepo) Deactivate(_ context.Context, id int64) error {
	admin, ok := f.byID[id]
	if !ok {
		return shared.ErrNotFound
	}
	admin.IsActive = false
	return nil
}

var superAdmin = &auth.Principal{ID: 99, Role: auth.RoleSuperAdmin}

func TestRegisterHashesPasswordAndNormalizes(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, nil)

	admin, err := service.Register(context.Background(), superAdmin, CreateAdminRequest{
		Email:       "  New.Admin@Example.com ",
		Password:    "s3cret-pass",
		Role:        "staff",
		Permissions: map[string][]string{"Products": {"Read", "read"}},
	})
	require.NoError(t, err)
	require.Equal(t, "new.admin@example.com", admin.Email)
	require.Equal(t, auth.RoleStaff, admin.Role)
	require.Equal(t, []string{"read"}, admin.Permissions["products"])

	hash := repo.passwords[admin.ID]
	require.NotEqual(t, "s3cret-pass", hash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret-pass")))
}

func TestRegisterRejectsUnknownRoleOrGrant(t *testing.T) {
	service := NewService(newFakeRepo(), nil)

	_, err := service.Register(context.Background(), superAdmin, CreateAdminRequest{
		Email: "a@b.c", Password: "s3cret-pass", Role: "OVERLORD",
	})
	require.ErrorIs(t, err, ErrUnknownGrant)

	_, err = service.Register(context.Background(), superAdmin, CreateAdminRequest{
		Email: "a@b.c", Password: "s3cret-pass", Role: "STAFF",
		Permissions: map[string][]string{"products": {"explode"}},
	})
	require.ErrorIs(t, err, ErrUnknownGrant)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	service := NewService(newFakeRepo(), nil)

	req := CreateAdminRequest{Email: "a@b.c", Password: "s3cret-pass", Role: "ADMIN"}
	_, err := service.Register(context.Background(), superAdmin, req)
	require.NoError(t, err)

	_, err = service.Register(context.Background(), superAdmin, req)
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestUpdateRoleAndGrants(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, nil)

	created, err := service.Register(context.Background(), superAdmin, CreateAdminRequest{
		Email: "a@b.c", Password: "s3cret-pass", Role: "STAFF",
	})
	require.NoError(t, err)

	role := "ADMIN"
	grants := map[string][]string{"orders": {"read", "update"}}
	updated, err := service.Update(context.Background(), superAdmin, created.ID, UpdateAdminRequest{
		Role:        &role,
		Permissions: &grants,
	})
	require.NoError(t, err)
	require.Equal(t, auth.RoleAdmin, updated.Role)
	require.True(t, updated.Permissions.Allows("orders", "update"))
	require.False(t, updated.Permissions.Allows("orders", "delete"))
}

func TestSelfDeactivationRejected(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, nil)

	created, err := service.Register(context.Background(), superAdmin, CreateAdminRequest{
		Email: "self@b.c", Password: "s3cret-pass", Role: "SUPER_ADMIN",
	})
	require.NoError(t, err)

	self := &auth.Principal{ID: created.ID, Role: auth.RoleSuperAdmin}
	inactive := false
	_, err = service.Update(context.Background(), self, created.ID, UpdateAdminRequest{IsActive: &inactive})
	require.ErrorIs(t, err, ErrSelfDeactivation)

	require.ErrorIs(t, service.Delete(context.Background(), self, created.ID), ErrSelfDeactivation)
}

func TestDeleteDeactivates(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, nil)

	created, err := service.Register(context.Background(), superAdmin, CreateAdminRequest{
		Email: "a@b.c", Password: "s3cret-pass", Role: "ADMIN",
	})
	require.NoError(t, err)

	require.NoError(t, service.Delete(context.Background(), superAdmin, created.ID))

	got, err := service.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)
}

func TestResetPasswordRequiresActiveAccount(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, nil)

	created, err := service.Register(context.Background(), superAdmin, CreateAdminRequest{
		Email: "a@b.c", Password: "s3cret-pass", Role: "ADMIN",
	})
	require.NoError(t, err)
	require.NoError(t, service.Delete(context.Background(), superAdmin, created.ID))

	err = service.ResetPassword(context.Background(), "a@b.c", "new-password")
	require.ErrorIs(t, err, shared.ErrNotFound)
}
