// Package policy maps a member's role within an organization to the actions
// the client should offer.
//
// This is a UX convenience only, NOT a security boundary: the backend is the
// authoritative enforcer and re-checks every call. Nothing here may ever be
// the sole gate in front of a privileged operation.
package policy

// Role is a membership role scoped to a (user, organization) pair. It is a
// property of the membership, not of the user.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// CanManageMembers reports whether the viewer may open member management at
// all (invite, see administrative controls).
func CanManageMembers(role Role) bool {
	return role == RoleOwner || role == RoleAdmin
}

// CanChangeRole reports whether the viewer may change the target member's
// role. Owners may change anyone, admins anyone but an owner.
func CanChangeRole(viewerRole, targetRole Role) bool {
	if viewerRole == RoleOwner {
		return true
	}
	return viewerRole == RoleAdmin && targetRole != RoleOwner
}

// CanRemoveMember follows the same rule as CanChangeRole.
func CanRemoveMember(viewerRole, targetRole Role) bool {
	return CanChangeRole(viewerRole, targetRole)
}

// CanEditOrganization reports whether the viewer may rename or otherwise edit
// the organization.
func CanEditOrganization(role Role) bool {
	return role == RoleOwner || role == RoleAdmin
}

// CanDeleteOrganization reports whether the viewer may delete the
// organization. Owners only.
func CanDeleteOrganization(role Role) bool {
	return role == RoleOwner
}
