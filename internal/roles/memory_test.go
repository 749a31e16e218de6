package roles

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/orangethewell/orangethewell-web/internal/rbac"
	"github.com/orangethewell/orangethewell-web/internal/shared"
)

type memoryState struct {
	roles     map[int64]Role
	rolePerms map[int64]map[int64]time.Time
	nextID    int64
}

func (s memoryState) clone() memoryState {
	out := memoryState{
		roles:     make(map[int64]Role, len(s.roles)),
		rolePerms: make(map[int64]map[int64]time.Time, len(s.rolePerms)),
		nextID:    s.nextID,
	}
	for id, r := range s.roles {
		out.roles[id] = r
	}
	for id, perms := range s.rolePerms {
		cp := make(map[int64]time.Time, len(perms))
		for p, at := range perms {
			cp[p] = at
		}
		out.rolePerms[id] = cp
	}
	return out
}

var errInjected = errors.New("injected store failure")

// memoryRoleRepo copies state on begin and swaps it in on commit, so a failed
// callback leaves no trace.
type memoryRoleRepo struct {
	mu          sync.Mutex
	state       memoryState
	permissions map[int64]rbac.Permission
	userRoles   map[int64][]int64
	failOn      string
	now         time.Time
	ops         []string
}

func newMemoryRoleRepo(perms ...rbac.Permission) *memoryRoleRepo {
	r := &memoryRoleRepo{
		state:       memoryState{roles: map[int64]Role{}, rolePerms: map[int64]map[int64]time.Time{}},
		permissions: map[int64]rbac.Permission{},
		userRoles:   map[int64][]int64{},
		now:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, p := range perms {
		r.permissions[p.ID] = p
	}
	return r
}

func (r *memoryRoleRepo) tick() time.Time {
	r.now = r.now.Add(time.Minute)
	return r.now
}

func (r *memoryRoleRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	work := r.state.clone()
	if err := fn(ctx, &memoryRoleTx{repo: r, state: &work}); err != nil {
		return err
	}
	r.state = work
	return nil
}

func (r *memoryRoleRepo) ListRoles(context.Context) ([]Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Role, 0, len(r.state.roles))
	for _, role := range r.state.roles {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memoryRoleRepo) GetRole(_ context.Context, id int64) (Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.state.roles[id]
	if !ok {
		return Role{}, fmt.Errorf("role %d: %w", id, shared.ErrNotFound)
	}
	return role, nil
}

func (r *memoryRoleRepo) RolePermissionIDs(_ context.Context, roleID int64) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedIDs(r.state.rolePerms[roleID]), nil
}

func (r *memoryRoleRepo) GetPermission(_ context.Context, id int64) (rbac.Permission, error) {
	p, ok := r.permissions[id]
	if !ok {
		return rbac.Permission{}, fmt.Errorf("permission %d: %w", id, shared.ErrNotFound)
	}
	return p, nil
}

func (r *memoryRoleRepo) UserRoleIDs(_ context.Context, userID int64) ([]int64, error) {
	return append([]int64(nil), r.userRoles[userID]...), nil
}

// association returns a committed snapshot of a role's rows.
func (r *memoryRoleRepo) association(roleID int64) map[int64]time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int64]time.Time)
	for p, at := range r.state.rolePerms[roleID] {
		out[p] = at
	}
	return out
}

type memoryRoleTx struct {
	repo  *memoryRoleRepo
	state *memoryState
}

func (t *memoryRoleTx) step(op string) error {
	t.repo.ops = append(t.repo.ops, op)
	if t.repo.failOn == op {
		return fmt.Errorf("%s: %w: %w", op, shared.ErrStorage, errInjected)
	}
	return nil
}

func (t *memoryRoleTx) InsertRole(_ context.Context, name, description string) (Role, error) {
	if err := t.step("insert"); err != nil {
		return Role{}, err
	}
	for _, r := range t.state.roles {
		if r.Name == name {
			return Role{}, fmt.Errorf("insert: %w: roles_name_key", shared.ErrConflict)
		}
	}
	t.state.nextID++
	now := t.repo.tick()
	role := Role{ID: t.state.nextID, Name: name, Description: description, CreatedAt: now, UpdatedAt: now}
	t.state.roles[role.ID] = role
	return role, nil
}

func (t *memoryRoleTx) LockRole(_ context.Context, id int64) (Role, error) {
	if err := t.step("lock"); err != nil {
		return Role{}, err
	}
	role, ok := t.state.roles[id]
	if !ok {
		return Role{}, fmt.Errorf("role %d: %w", id, shared.ErrNotFound)
	}
	return role, nil
}

func (t *memoryRoleTx) UpdateRole(_ context.Context, id int64, name, description string) (Role, error) {
	if err := t.step("update"); err != nil {
		return Role{}, err
	}
	role, ok := t.state.roles[id]
	if !ok {
		return Role{}, fmt.Errorf("role %d: %w", id, shared.ErrNotFound)
	}
	for _, r := range t.state.roles {
		if r.ID != id && r.Name == name {
			return Role{}, fmt.Errorf("update: %w: roles_name_key", shared.ErrConflict)
		}
	}
	role.Name = name
	role.Description = description
	role.UpdatedAt = t.repo.tick()
	t.state.roles[id] = role
	return role, nil
}

func (t *memoryRoleTx) DeleteRole(_ context.Context, id int64) (Role, error) {
	if err := t.step("delete"); err != nil {
		return Role{}, err
	}
	role, ok := t.state.roles[id]
	if !ok {
		return Role{}, fmt.Errorf("role %d: %w", id, shared.ErrNotFound)
	}
	delete(t.state.roles, id)
	delete(t.state.rolePerms, id)
	return role, nil
}

func (t *memoryRoleTx) RolePermissionIDs(_ context.Context, roleID int64) ([]int64, error) {
	if err := t.step("permission_ids"); err != nil {
		return nil, err
	}
	return sortedIDs(t.state.rolePerms[roleID]), nil
}

func (t *memoryRoleTx) AttachPermission(_ context.Context, roleID, permissionID int64) error {
	if err := t.step("attach"); err != nil {
		return err
	}
	if _, ok := t.repo.permissions[permissionID]; !ok {
		return fmt.Errorf("attach permission %d: %w", permissionID, shared.ErrValidation)
	}
	perms := t.state.rolePerms[roleID]
	if perms == nil {
		perms = make(map[int64]time.Time)
		t.state.rolePerms[roleID] = perms
	}
	if _, dup := perms[permissionID]; dup {
		return fmt.Errorf("attach permission %d: %w", permissionID, shared.ErrConflict)
	}
	perms[permissionID] = t.repo.tick()
	return nil
}

func (t *memoryRoleTx) DetachPermission(_ context.Context, roleID, permissionID int64) error {
	if err := t.step("detach"); err != nil {
		return err
	}
	delete(t.state.rolePerms[roleID], permissionID)
	return nil
}

func sortedIDs(set map[int64]time.Time) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
