package domain

// Role is the authenticated actor's role as supplied by the identity provider.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleMember   Role = "MEMBER"
	RoleReadOnly Role = "READONLY"
)

// Capability is a single permission checked by the core.
type Capability string

const (
	CapRead        Capability = "read"
	CapCreateDraft Capability = "create_draft"
	CapPost        Capability = "post"
	CapReverse     Capability = "reverse"
	CapReconcile   Capability = "reconcile"
)

var roleCapabilities = map[Role]map[Capability]bool{
	RoleAdmin: {
		CapRead:        true,
		CapCreateDraft: true,
		CapPost:        true,
		CapReverse:     true,
		CapReconcile:   true,
	},
	RoleMember: {
		CapRead:        true,
		CapCreateDraft: true,
		CapReconcile:   true,
	},
	RoleReadOnly: {
		CapRead: true,
	},
}

// Actor is the user performing an operation.
type Actor struct {
	UserID string `json:"userID"`
	Role   Role   `json:"role"`
}

// Can reports whether the actor's role grants the capability. Unknown roles grant nothing.
func (a Actor) Can(c Capability) bool {
	return roleCapabilities[a.Role][c]
}

func (a Actor) CanPost() bool {
	return a.Can(CapPost)
}

func (a Actor) CanReverse() bool {
	return a.Can(CapReverse)
}

func (a Actor) CanReconcile() bool {
	return a.Can(CapReconcile)
}

// IsValidRole reports whether r is one of the known roles.
func IsValidRole(r Role) bool {
	_, ok := roleCapabilities[r]
	return ok
}
