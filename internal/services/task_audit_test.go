package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelkov/quadboard/internal/models"
	"github.com/avelkov/quadboard/internal/rules"
)

var auditNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func datePtr(t time.Time) *time.Time { return &t }

func TestPlanAuditNoChanges(t *testing.T) {
	task := models.Task{ID: "t1", Progress: 40, DueDate: datePtr(auditNow.AddDate(0, 0, 3))}

	plan := planAudit(task, task, "tweak", auditNow)
	assert.True(t, plan.empty())
}

func TestPlanAuditProgressChange(t *testing.T) {
	stored := models.Task{ID: "t1", Progress: 40}
	next := stored
	next.Progress = 70

	plan := planAudit(stored, next, "halfway done", auditNow)
	require.NotNil(t, plan.progress)
	assert.Nil(t, plan.dueDate)
	assert.Equal(t, "t1", plan.progress.TaskID)
	assert.Equal(t, 40, plan.progress.PreviousProgress)
	assert.Equal(t, 70, plan.progress.CurrentProgress)
	assert.Equal(t, "halfway done", plan.progress.Notes)
}

func TestPlanAuditDueDateChange(t *testing.T) {
	stored := models.Task{ID: "t1", DueDate: datePtr(auditNow.AddDate(0, 0, 1))}
	next := stored
	next.DueDate = datePtr(auditNow.AddDate(0, 0, 4))

	plan := planAudit(stored, next, "deadline pushed", auditNow)
	require.NotNil(t, plan.dueDate)
	assert.Nil(t, plan.progress)
	assert.Equal(t, stored.DueDate, plan.dueDate.LastDate)
	assert.Equal(t, next.DueDate, plan.dueDate.UpdatedDate)
	assert.Equal(t, "deadline pushed", plan.dueDate.Reason)
}

func TestPlanAuditSameCalendarDayIsNoChange(t *testing.T) {
	stored := models.Task{ID: "t1", DueDate: datePtr(auditNow.Add(2 * time.Hour))}
	next := stored
	next.DueDate = datePtr(auditNow.Add(8 * time.Hour))

	plan := planAudit(stored, next, "", auditNow)
	assert.True(t, plan.empty())
}

func TestPlanAuditClearingDueDate(t *testing.T) {
	stored := models.Task{ID: "t1", DueDate: datePtr(auditNow.AddDate(0, 0, 2))}
	next := stored
	next.DueDate = nil

	plan := planAudit(stored, next, "no longer scheduled", auditNow)
	require.NotNil(t, plan.dueDate)
	assert.Nil(t, plan.dueDate.UpdatedDate)
}

func TestPlanAuditDefaultsReason(t *testing.T) {
	stored := models.Task{ID: "t1", Progress: 0}
	next := stored
	next.Progress = 100

	plan := planAudit(stored, next, "", auditNow)
	require.NotNil(t, plan.progress)
	assert.Equal(t, rules.SystemChangeReason, plan.progress.Notes)
}

func TestPlanAuditBothFields(t *testing.T) {
	stored := models.Task{ID: "t1", Progress: 10, DueDate: datePtr(auditNow.AddDate(0, 0, 1))}
	next := stored
	next.Progress = 30
	next.DueDate = datePtr(auditNow.AddDate(0, 0, 7))

	plan := planAudit(stored, next, "replanned", auditNow)
	require.NotNil(t, plan.progress)
	require.NotNil(t, plan.dueDate)
	assert.Equal(t, "replanned", plan.progress.Notes)
	assert.Equal(t, "replanned", plan.dueDate.Reason)
}
