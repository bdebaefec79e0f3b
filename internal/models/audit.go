package models

import "time"

// DueDateChange is an append-only record of a single due-date edit.
// Rows are never updated or deleted by the application.
type DueDateChange struct {
	ID          string
	TaskID      string
	LastDate    *time.Time
	UpdatedDate *time.Time
	Reason      string
	CreatedAt   time.Time
}

// TaskProgressUpdate is an append-only record of a single progress edit.
type TaskProgressUpdate struct {
	ID               string
	TaskID           string
	PreviousProgress int
	CurrentProgress  int
	Notes            string
	CreatedAt        time.Time
}
