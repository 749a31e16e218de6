package rbac

// Permission represents an atomic capability. The catalog is populated once at
// bootstrap and treated as static afterwards.
type Permission struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// PermissionSet is an order-irrelevant set of permissions keyed by id.
type PermissionSet map[int64]Permission

// Has reports whether any member carries the given name.
func (s PermissionSet) Has(name string) bool {
	for _, p := range s {
		if p.Name == name {
			return true
		}
	}
	return false
}

// Slice returns the members in unspecified order.
func (s PermissionSet) Slice() []Permission {
	out := make([]Permission, 0, len(s))
	for _, p := range s {
		out = append(out, p)
	}
	return out
}
