package policy_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-taskmaster/policy"
)

func TestCanManageMembers(t *testing.T) {
	require.True(t, policy.CanManageMembers(policy.RoleOwner))
	require.True(t, policy.CanManageMembers(policy.RoleAdmin))
	require.False(t, policy.CanManageMembers(policy.RoleMember))
}

func TestCanChangeRole(t *testing.T) {
	tests := []struct {
		name   string
		viewer policy.Role
		target policy.Role
		want   bool
	}{
		{"owner over owner", policy.RoleOwner, policy.RoleOwner, true},
		{"owner over admin", policy.RoleOwner, policy.RoleAdmin, true},
		{"owner over member", policy.RoleOwner, policy.RoleMember, true},
		{"admin over owner", policy.RoleAdmin, policy.RoleOwner, false},
		{"admin over admin", policy.RoleAdmin, policy.RoleAdmin, true},
		{"admin over member", policy.RoleAdmin, policy.RoleMember, true},
		{"member over member", policy.RoleMember, policy.RoleMember, false},
		{"member over owner", policy.RoleMember, policy.RoleOwner, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, policy.CanChangeRole(tt.viewer, tt.target))
			// Removal follows the identical rule.
			require.Equal(t, tt.want, policy.CanRemoveMember(tt.viewer, tt.target))
		})
	}
}

func TestOrganizationPermissions(t *testing.T) {
	require.True(t, policy.CanEditOrganization(policy.RoleOwner))
	require.True(t, policy.CanEditOrganization(policy.RoleAdmin))
	require.False(t, policy.CanEditOrganization(policy.RoleMember))

	require.True(t, policy.CanDeleteOrganization(policy.RoleOwner))
	require.False(t, policy.CanDeleteOrganization(policy.RoleAdmin))
	require.False(t, policy.CanDeleteOrganization(policy.RoleMember))
}

func TestRoleValid(t *testing.T) {
	require.True(t, policy.Role("owner").Valid())
	require.True(t, policy.Role("admin").Valid())
	require.True(t, policy.Role("member").Valid())
	require.False(t, policy.Role("superuser").Valid())
	require.False(t, policy.Role("").Valid())
}
