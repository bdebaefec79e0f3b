package models

import "time"

type Team struct {
	ID        string
	Name      string
	ManagerID string
	LeadID    *string
	MemberIDs []string
	CreatedAt time.Time
	UpdatedAt time.Time
}
