package taskvault_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskvault/taskvault"
)

func TestRoleIsAtLeast(t *testing.T) {
	tests := []struct {
		name     string
		role     taskvault.UserRole
		minRole  taskvault.UserRole
		expected bool
	}{
		{"user meets user", taskvault.RoleUser, taskvault.RoleUser, true},
		{"user does not meet admin", taskvault.RoleUser, taskvault.RoleAdmin, false},
		{"admin meets user", taskvault.RoleAdmin, taskvault.RoleUser, true},
		{"admin meets admin", taskvault.RoleAdmin, taskvault.RoleAdmin, true},
		{"admin does not meet owner", taskvault.RoleAdmin, taskvault.RoleOwner, false},
		{"owner meets admin", taskvault.RoleOwner, taskvault.RoleAdmin, true},
		{"unknown role meets nothing", "superuser", taskvault.RoleUser, false},
		{"unknown minimum satisfied by nobody", taskvault.RoleOwner, "root", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, taskvault.RoleIsAtLeast(tt.role, tt.minRole))
		})
	}
}

func TestParseRole(t *testing.T) {
	role, ok := taskvault.ParseRole("admin")
	assert.True(t, ok)
	assert.Equal(t, taskvault.RoleAdmin, role)

	_, ok = taskvault.ParseRole("sudo")
	assert.False(t, ok)
}

func TestGetAllRoles(t *testing.T) {
	roles := taskvault.GetAllRoles()
	assert.Equal(t, []taskvault.UserRole{
		taskvault.RoleUser,
		taskvault.RoleAdmin,
		taskvault.RoleOwner,
	}, roles)
}
