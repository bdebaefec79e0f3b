package models

import "time"

// SettingsID is the id of the singleton system_settings row. The row is
// created lazily on first save; until then the defaults below apply.
const SettingsID = "global"

type DueDateThresholds struct {
	Critical int
	Medium   int
	Low      int
}

type SystemSettings struct {
	ID                string
	Thresholds        DueDateThresholds
	TasksPerPage      int
	DefaultSortOrder  string
	MarkOverdueDays   int
	WarningDays       int
	UpdatedAt         time.Time
}

func DefaultSettings() SystemSettings {
	return SystemSettings{
		ID: SettingsID,
		Thresholds: DueDateThresholds{
			Critical: 2,
			Medium:   5,
			Low:      5,
		},
		TasksPerPage:     10,
		DefaultSortOrder: "dueDate",
		MarkOverdueDays:  3,
		WarningDays:      2,
	}
}
