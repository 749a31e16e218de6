package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orangethewell/orangethewell-web/internal/auth"
	"github.com/orangethewell/orangethewell-web/internal/rbac"
	"github.com/orangethewell/orangethewell-web/internal/roles"
	"github.com/orangethewell/orangethewell-web/internal/shared"
	"github.com/orangethewell/orangethewell-web/internal/users"
)

type fakeStore struct {
	perms     map[string]rbac.Permission
	roles     map[int64]roles.Role
	grants    map[int64]map[int64]bool
	userRoles map[int64]map[int64]bool
	users     map[string]users.Row
	nextID    int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		perms:     map[string]rbac.Permission{},
		roles:     map[int64]roles.Role{},
		grants:    map[int64]map[int64]bool{},
		userRoles: map[int64]map[int64]bool{},
		users:     map[string]users.Row{},
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) ListPermissions(context.Context) ([]rbac.Permission, error) {
	out := make([]rbac.Permission, 0, len(f.perms))
	for _, p := range f.perms {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) GetPermission(_ context.Context, id int64) (rbac.Permission, error) {
	for _, p := range f.perms {
		if p.ID == id {
			return p, nil
		}
	}
	return rbac.Permission{}, shared.ErrNotFound
}

func (f *fakeStore) EnsurePermission(_ context.Context, name, description string) (rbac.Permission, error) {
	p, ok := f.perms[name]
	if !ok {
		p = rbac.Permission{ID: f.id(), Name: name}
	}
	p.Description = description
	f.perms[name] = p
	return p, nil
}

func (f *fakeStore) UserRoleIDs(_ context.Context, userID int64) ([]int64, error) {
	var out []int64
	for id := range f.userRoles[userID] {
		out = append(out, id)
	}
	return out, nil
}

func (f *fakeStore) AssignRole(_ context.Context, userID, roleID int64) (bool, error) {
	if f.userRoles[userID] == nil {
		f.userRoles[userID] = map[int64]bool{}
	}
	if f.userRoles[userID][roleID] {
		return false, nil
	}
	f.userRoles[userID][roleID] = true
	return true, nil
}

func (f *fakeStore) RevokeRole(_ context.Context, userID, roleID int64) (bool, error) {
	held := f.userRoles[userID][roleID]
	delete(f.userRoles[userID], roleID)
	return held, nil
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(context.Context, roles.TxRepository) error) error {
	return fn(ctx, f)
}

func (f *fakeStore) ListRoles(context.Context) ([]roles.Role, error) {
	out := make([]roles.Role, 0, len(f.roles))
	for _, r := range f.roles {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) GetRole(_ context.Context, id int64) (roles.Role, error) {
	r, ok := f.roles[id]
	if !ok {
		return roles.Role{}, shared.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) RolePermissionIDs(_ context.Context, roleID int64) ([]int64, error) {
	var out []int64
	for id := range f.grants[roleID] {
		out = append(out, id)
	}
	return out, nil
}

func (f *fakeStore) InsertRole(_ context.Context, name, description string) (roles.Role, error) {
	r := roles.Role{ID: f.id(), Name: name, Description: description}
	f.roles[r.ID] = r
	return r, nil
}

func (f *fakeStore) LockRole(ctx context.Context, id int64) (roles.Role, error) {
	return f.GetRole(ctx, id)
}

func (f *fakeStore) UpdateRole(_ context.Context, id int64, name, description string) (roles.Role, error) {
	r := roles.Role{ID: id, Name: name, Description: description}
	f.roles[id] = r
	return r, nil
}

func (f *fakeStore) DeleteRole(ctx context.Context, id int64) (roles.Role, error) {
	r, err := f.GetRole(ctx, id)
	delete(f.roles, id)
	return r, err
}

func (f *fakeStore) AttachPermission(_ context.Context, roleID, permissionID int64) error {
	if f.grants[roleID] == nil {
		f.grants[roleID] = map[int64]bool{}
	}
	f.grants[roleID][permissionID] = true
	return nil
}

func (f *fakeStore) DetachPermission(_ context.Context, roleID, permissionID int64) error {
	delete(f.grants[roleID], permissionID)
	return nil
}

func (f *fakeStore) FindByEmail(_ context.Context, email string) (auth.Account, error) {
	row, ok := f.users[shared.NormalizeEmail(email)]
	if !ok {
		return auth.Account{}, shared.ErrNotFound
	}
	return auth.Account{ID: row.ID, Email: row.Email, PasswordHash: row.PasswordHash}, nil
}

func (f *fakeStore) Insert(_ context.Context, row users.Row) (users.Row, error) {
	row.ID = f.id()
	f.users[row.Email] = row
	return row, nil
}

func newTestSeeder(t *testing.T, store *fakeStore) seeder {
	t.Helper()
	hasher, err := auth.NewHasherWithParams("server-secret", auth.Params{Memory: 64, Time: 1, Threads: 1, SaltLen: 8, KeyLen: 16})
	require.NoError(t, err)
	return seeder{
		catalog:  store,
		roles:    store,
		accounts: store,
		users:    store,
		hasher:   hasher,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSeedGrantsAdministratorEveryPermission(t *testing.T) {
	store := newFakeStore()
	s := newTestSeeder(t, store)

	require.NoError(t, s.run(context.Background(), "Admin@Localhost", "changeme1"))

	require.Len(t, store.perms, len(shared.CoreScopes()))
	require.Len(t, store.roles, 1)
	var adminRole roles.Role
	for _, r := range store.roles {
		adminRole = r
	}
	require.Equal(t, shared.AdminRoleName, adminRole.Name)
	for _, p := range store.perms {
		require.True(t, store.grants[adminRole.ID][p.ID], p.Name)
	}

	admin, ok := store.users["admin@localhost"]
	require.True(t, ok)
	require.True(t, store.userRoles[admin.ID][adminRole.ID])
	verified, err := s.hasher.Verify("changeme1", admin.PasswordHash)
	require.NoError(t, err)
	require.True(t, verified)
}

func TestSeedIsIdempotent(t *testing.T) {
	store := newFakeStore()
	s := newTestSeeder(t, store)
	ctx := context.Background()

	require.NoError(t, s.run(ctx, "admin@localhost", "changeme1"))
	firstHash := store.users["admin@localhost"].PasswordHash
	require.NoError(t, s.run(ctx, "admin@localhost", "other-password"))

	require.Len(t, store.perms, len(shared.CoreScopes()))
	require.Len(t, store.roles, 1)
	require.Len(t, store.users, 1)
	require.Equal(t, firstHash, store.users["admin@localhost"].PasswordHash)
}
