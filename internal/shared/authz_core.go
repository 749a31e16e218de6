package shared

// Permission vocabulary seeded at bootstrap. The catalog itself lives in the
// permissions table; these names are only referenced by call sites that gate
// on a specific capability.
const (
	// PermWrite allows writing, updating and removing published articles.
	PermWrite = "Write"
	// PermModerate allows moderating users, granting roles and managing role definitions.
	PermModerate = "Moderate"
)

// AdminRoleName is the seeded role holding every catalog permission.
const AdminRoleName = "Administrator"

// CoreScopes lists the permissions seeded into a fresh deployment together with
// their descriptions.
func CoreScopes() []Scope {
	return []Scope{
		{Name: PermWrite, Description: "Grants the ability to write, add, remove and update articles published on the site."},
		{Name: PermModerate, Description: "Grants the ability to moderate users, handing permissions to other users or blocking their interactions with the site."},
	}
}

// Scope is a seedable permission definition.
type Scope struct {
	Name        string
	Description string
}
