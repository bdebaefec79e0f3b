package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/avelkov/quadboard/internal/models"
)

func TestPermissionsAdmin(t *testing.T) {
	caps := Permissions(models.RoleAdmin, "u1", "u2", false)
	assert.True(t, caps.CanCreateTeams)
	assert.True(t, caps.CanUpdateTeams)
	assert.True(t, caps.CanViewTeams)
	assert.True(t, caps.CanAssignTeamLeads)
	assert.True(t, caps.CanAssignEmployees)
	assert.True(t, caps.CanChangeUserRoles)

	// Never their own role.
	self := Permissions(models.RoleAdmin, "u1", "u1", false)
	assert.False(t, self.CanChangeUserRoles)
	assert.True(t, self.CanAssignTeamLeads)
}

func TestPermissionsManagerGatedByChain(t *testing.T) {
	outside := Permissions(models.RoleManager, "u1", "m1", false)
	assert.False(t, outside.CanAssignTeamLeads)
	assert.False(t, outside.CanAssignEmployees)
	assert.False(t, outside.CanChangeUserRoles)
	assert.True(t, outside.CanCreateTeams)
	assert.True(t, outside.CanViewTeams)

	inside := Permissions(models.RoleManager, "u1", "m1", true)
	assert.True(t, inside.CanAssignTeamLeads)
	assert.True(t, inside.CanAssignEmployees)
	assert.True(t, inside.CanChangeUserRoles)

	self := Permissions(models.RoleManager, "m1", "m1", true)
	assert.False(t, self.CanChangeUserRoles)
}

func TestPermissionsSuperManagerUngated(t *testing.T) {
	caps := Permissions(models.RoleSuperManager, "u1", "sm1", false)
	assert.True(t, caps.CanAssignTeamLeads)
	assert.True(t, caps.CanAssignEmployees)
	assert.True(t, caps.CanChangeUserRoles)
}

func TestPermissionsReadOnlyRoles(t *testing.T) {
	lead := Permissions(models.RoleTeamLead, "", "", false)
	assert.True(t, lead.CanViewTeams)
	assert.False(t, lead.CanCreateTeams)
	assert.False(t, lead.CanUpdateTeams)
	assert.False(t, lead.CanAssignTeamLeads)
	assert.False(t, lead.CanChangeUserRoles)

	emp := Permissions(models.RoleEmployee, "", "", false)
	assert.False(t, emp.CanViewTeams)
	assert.False(t, emp.CanCreateTeams)
	assert.False(t, emp.CanChangeUserRoles)
}

func TestPermissionsOwnScopeAlwaysOpen(t *testing.T) {
	for _, role := range []models.Role{
		models.RoleAdmin, models.RoleSuperManager, models.RoleManager,
		models.RoleTeamLead, models.RoleEmployee,
	} {
		caps := Permissions(role, "", "", false)
		assert.True(t, caps.CanUploadProfileImage, role)
		assert.True(t, caps.CanViewTasks, role)
		assert.True(t, caps.CanUpdateTasks, role)
		assert.True(t, caps.CanUpdateOwnProfile, role)
	}
}

func TestCanChangeUserRole(t *testing.T) {
	tests := []struct {
		name         string
		current      models.Role
		target       models.Role
		newRole      models.Role
		underManager bool
		want         bool
	}{
		{"manager promotes own employee", models.RoleManager, models.RoleEmployee, models.RoleTeamLead, true, true},
		{"manager demotes lead", models.RoleManager, models.RoleTeamLead, models.RoleEmployee, true, false},
		{"manager promotes outside chain", models.RoleManager, models.RoleEmployee, models.RoleTeamLead, false, false},
		{"manager grants manager", models.RoleManager, models.RoleEmployee, models.RoleManager, true, false},
		{"super-manager promotes anywhere", models.RoleSuperManager, models.RoleEmployee, models.RoleTeamLead, false, true},
		{"super-manager demotes", models.RoleSuperManager, models.RoleTeamLead, models.RoleEmployee, false, false},
		{"admin any transition", models.RoleAdmin, models.RoleManager, models.RoleEmployee, false, true},
		{"admin grants admin", models.RoleAdmin, models.RoleEmployee, models.RoleAdmin, false, true},
		{"admin invalid role", models.RoleAdmin, models.RoleEmployee, models.Role("owner"), false, false},
		{"team-lead denied", models.RoleTeamLead, models.RoleEmployee, models.RoleTeamLead, true, false},
		{"employee denied", models.RoleEmployee, models.RoleEmployee, models.RoleTeamLead, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanChangeUserRole(tt.current, tt.target, tt.newRole, tt.underManager)
			assert.Equal(t, tt.want, got)
		})
	}
}
