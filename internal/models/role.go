package models

import "slices"

// Role is the part a developer plays on a product.
type Role string

const (
	RoleLead      Role = "lead"
	RoleDeveloper Role = "developer"
	RoleTester    Role = "tester"
	RoleDesigner  Role = "designer"
)

var Roles = []Role{RoleLead, RoleDeveloper, RoleTester, RoleDesigner}

func (r Role) Valid() bool { return slices.Contains(Roles, r) }

// ParseRole returns the role for s, defaulting to developer when s is empty.
func ParseRole(s string) (Role, bool) {
	if s == "" {
		return RoleDeveloper, true
	}
	r := Role(s)
	return r, r.Valid()
}
