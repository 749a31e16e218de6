package roles

import (
	"sort"
	"time"

	"github.com/orangethewell/orangethewell-web/internal/rbac"
)

// Role represents a named grouping of permissions.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RoleWithPermissions is a role augmented with its resolved permissions.
type RoleWithPermissions struct {
	Role
	Permissions []rbac.Permission `json:"permissions"`
}

// Input carries the writable fields of a role.
type Input struct {
	Name          string  `json:"name" validate:"required,max=64"`
	Description   string  `json:"description" validate:"max=512"`
	PermissionIDs []int64 `json:"permission_ids" validate:"dive,gt=0"`
}

// Reconciliation is the minimal change moving an association set from its
// current state to the requested one.
type Reconciliation struct {
	Removed []int64
	Added   []int64
}

// Empty reports whether nothing needs to change.
func (r Reconciliation) Empty() bool {
	return len(r.Removed) == 0 && len(r.Added) == 0
}

// Reconcile computes Removed = old - desired and Added = desired - old. Ids
// present in both are left out so their rows are never touched. Output is
// sorted ascending.
func Reconcile(old, desired []int64) Reconciliation {
	oldSet := toSet(old)
	newSet := toSet(desired)
	var rec Reconciliation
	for id := range oldSet {
		if _, keep := newSet[id]; !keep {
			rec.Removed = append(rec.Removed, id)
		}
	}
	for id := range newSet {
		if _, have := oldSet[id]; !have {
			rec.Added = append(rec.Added, id)
		}
	}
	sort.Slice(rec.Removed, func(i, j int) bool { return rec.Removed[i] < rec.Removed[j] })
	sort.Slice(rec.Added, func(i, j int) bool { return rec.Added[i] < rec.Added[j] })
	return rec
}

// dedupe returns ids without repeats, keeping first-seen order.
func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
