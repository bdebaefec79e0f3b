package models

import "time"

type Task struct {
	ID             string
	Title          string
	Notes          string
	Icon           string
	Progress       int
	CreatedByID    string
	CreatedByName  string
	AssignedToID   string
	AssignedToName string
	DueDate        *time.Time
	Completed      bool
	Quadrant       int
	// QuadrantPinned is set by a manual board move and exempts the
	// task from date-based reclassification.
	QuadrantPinned bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
