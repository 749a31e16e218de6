package rbac

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/orangethewell/orangethewell-web/internal/shared"
)

type memoryStore struct {
	mu          sync.Mutex
	permissions map[int64]Permission
	rolePerms   map[int64][]int64
	userRoles   map[int64]map[int64]struct{}
	users       map[int64]struct{}
	nextID      int64
	failUserIDs error
	failRoleIDs error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		permissions: make(map[int64]Permission),
		rolePerms:   make(map[int64][]int64),
		userRoles:   make(map[int64]map[int64]struct{}),
		users:       make(map[int64]struct{}),
	}
}

func (m *memoryStore) addPermission(name string) Permission {
	p, _ := m.EnsurePermission(context.Background(), name, name+" description")
	return p
}

func (m *memoryStore) addRole(roleID int64, permIDs ...int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rolePerms[roleID] = append([]int64(nil), permIDs...)
}

func (m *memoryStore) addUser(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = struct{}{}
}

func (m *memoryStore) ListPermissions(context.Context) ([]Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Permission, 0, len(m.permissions))
	for _, p := range m.permissions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryStore) GetPermission(_ context.Context, id int64) (Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.permissions[id]
	if !ok {
		return Permission{}, fmt.Errorf("permission %d: %w", id, shared.ErrNotFound)
	}
	return p, nil
}

func (m *memoryStore) EnsurePermission(_ context.Context, name, description string) (Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.permissions {
		if p.Name == name {
			p.Description = description
			m.permissions[id] = p
			return p, nil
		}
	}
	m.nextID++
	p := Permission{ID: m.nextID, Name: name, Description: description}
	m.permissions[p.ID] = p
	return p, nil
}

func (m *memoryStore) UserRoleIDs(_ context.Context, userID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUserIDs != nil {
		return nil, m.failUserIDs
	}
	ids := make([]int64, 0, len(m.userRoles[userID]))
	for id := range m.userRoles[userID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *memoryStore) AssignRole(_ context.Context, userID, roleID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, userOK := m.users[userID]
	_, roleOK := m.rolePerms[roleID]
	if !userOK || !roleOK {
		return false, fmt.Errorf("assign: %w", shared.ErrNotFound)
	}
	held := m.userRoles[userID]
	if held == nil {
		held = make(map[int64]struct{})
		m.userRoles[userID] = held
	}
	if _, ok := held[roleID]; ok {
		return false, nil
	}
	held[roleID] = struct{}{}
	return true, nil
}

func (m *memoryStore) RevokeRole(_ context.Context, userID, roleID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.userRoles[userID][roleID]; !ok {
		return false, nil
	}
	delete(m.userRoles[userID], roleID)
	return true, nil
}

func (m *memoryStore) RolePermissionIDs(_ context.Context, roleID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRoleIDs != nil {
		return nil, m.failRoleIDs
	}
	return append([]int64(nil), m.rolePerms[roleID]...), nil
}
