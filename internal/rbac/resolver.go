package rbac

import (
	"context"
	"fmt"
)

// RolePermissionSource lists the permission ids associated with a role.
type RolePermissionSource interface {
	RolePermissionIDs(ctx context.Context, roleID int64) ([]int64, error)
}

// Resolver computes effective permissions by walking role assignments. Every
// call reads the store; grants and revokes are visible on the next check.
type Resolver struct {
	store Repository
	roles RolePermissionSource
}

// NewResolver constructs a Resolver.
func NewResolver(store Repository, roles RolePermissionSource) *Resolver {
	return &Resolver{store: store, roles: roles}
}

// EffectivePermissions returns the union of the permissions granted through
// every role the user holds, deduplicated by permission id. Any store error
// aborts the resolution.
func (r *Resolver) EffectivePermissions(ctx context.Context, userID int64) (PermissionSet, error) {
	roleIDs, err := r.store.UserRoleIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: resolve user %d roles: %w", userID, err)
	}
	permIDs := make(map[int64]struct{})
	for _, roleID := range roleIDs {
		ids, err := r.roles.RolePermissionIDs(ctx, roleID)
		if err != nil {
			return nil, fmt.Errorf("rbac: resolve role %d permissions: %w", roleID, err)
		}
		for _, id := range ids {
			permIDs[id] = struct{}{}
		}
	}
	set := make(PermissionSet, len(permIDs))
	for id := range permIDs {
		perm, err := r.store.GetPermission(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("rbac: resolve permission %d: %w", id, err)
		}
		set[perm.ID] = perm
	}
	return set, nil
}

// HasPermission answers a point query against the effective set.
func (r *Resolver) HasPermission(ctx context.Context, userID int64, name string) (bool, error) {
	set, err := r.EffectivePermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	return set.Has(name), nil
}
