package models

import "time"

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleSuperManager Role = "super-manager"
	RoleManager      Role = "manager"
	RoleTeamLead     Role = "team-lead"
	RoleEmployee     Role = "employee"
)

// Valid reports whether r is one of the closed set of roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSuperManager, RoleManager, RoleTeamLead, RoleEmployee:
		return true
	}
	return false
}

// ManagesReports reports whether r administers a manager chain.
func (r Role) ManagesReports() bool {
	return r == RoleManager || r == RoleSuperManager
}

// TakesManager reports whether users with this role carry a manager
// reference. Admins and managers never do.
func (r Role) TakesManager() bool {
	return r == RoleEmployee || r == RoleTeamLead
}

type User struct {
	ID        string
	Email     string
	Password  string
	Name      string
	Role      Role
	ManagerID *string
	AvatarURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReportsTo reports whether the user sits under the given manager.
func (u User) ReportsTo(managerID string) bool {
	return u.ManagerID != nil && *u.ManagerID == managerID
}
