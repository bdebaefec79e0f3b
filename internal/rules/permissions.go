package rules

import "github.com/avelkov/quadboard/internal/models"

// Capabilities is the flag set gating UI mutations. Own-scope
// operations (profile, tasks) are open to every role here; narrowing
// to the caller's own rows happens at the data-access layer.
type Capabilities struct {
	CanCreateTeams        bool
	CanUpdateTeams        bool
	CanViewTeams          bool
	CanAssignTeamLeads    bool
	CanAssignEmployees    bool
	CanChangeUserRoles    bool
	CanUploadProfileImage bool
	CanViewTasks          bool
	CanUpdateTasks        bool
	CanUpdateOwnProfile   bool
}

// Permissions resolves the capability set for a role acting on an
// optional target user. targetID and currentID scope the self-change
// check; underManager reports whether the target sits in the acting
// manager's chain and gates the relational fields for managers.
func Permissions(role models.Role, targetID, currentID string, underManager bool) Capabilities {
	caps := Capabilities{
		CanUploadProfileImage: true,
		CanViewTasks:          true,
		CanUpdateTasks:        true,
		CanUpdateOwnProfile:   true,
	}

	notSelf := targetID == "" || targetID != currentID

	switch role {
	case models.RoleAdmin:
		caps.CanCreateTeams = true
		caps.CanUpdateTeams = true
		caps.CanViewTeams = true
		caps.CanAssignTeamLeads = true
		caps.CanAssignEmployees = true
		caps.CanChangeUserRoles = notSelf
	case models.RoleSuperManager:
		// A manager whose relational gates are always open.
		caps.CanCreateTeams = true
		caps.CanUpdateTeams = true
		caps.CanViewTeams = true
		caps.CanAssignTeamLeads = true
		caps.CanAssignEmployees = true
		caps.CanChangeUserRoles = notSelf
	case models.RoleManager:
		caps.CanCreateTeams = true
		caps.CanUpdateTeams = true
		caps.CanViewTeams = true
		caps.CanAssignTeamLeads = underManager
		caps.CanAssignEmployees = underManager
		caps.CanChangeUserRoles = underManager && notSelf
	case models.RoleTeamLead:
		caps.CanViewTeams = true
	case models.RoleEmployee:
	}

	return caps
}

// CanChangeUserRole decides a specific role transition. Admins may
// perform any transition (self-change is excluded by Permissions, not
// here). Managers are limited to promoting their own reports from
// employee to team-lead; super-managers get the same single transition
// without the chain restriction. Nothing else is permitted.
func CanChangeUserRole(currentRole, targetRole, newRole models.Role, underManager bool) bool {
	if !newRole.Valid() {
		return false
	}

	switch currentRole {
	case models.RoleAdmin:
		return true
	case models.RoleManager:
		return underManager &&
			targetRole == models.RoleEmployee &&
			newRole == models.RoleTeamLead
	case models.RoleSuperManager:
		return targetRole == models.RoleEmployee &&
			newRole == models.RoleTeamLead
	default:
		return false
	}
}
