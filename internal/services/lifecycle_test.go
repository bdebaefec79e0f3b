package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelkov/quadboard/internal/models"
	"github.com/avelkov/quadboard/internal/rules"
)

// Walks the task lifecycle the way UpdateTask drives it: classification
// on create, the progress confirmation gate, and audit planning off the
// committed change only.
func TestTaskLifecycleProgressGate(t *testing.T) {
	settings := models.DefaultSettings()
	now := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

	due := now.AddDate(0, 0, 1)
	task := models.Task{ID: "t1", Title: "ship it", DueDate: &due, Progress: 40}

	// Due in one day with the default critical threshold of two.
	task.Quadrant = rules.Classify(task, settings, now)
	require.Equal(t, rules.QuadrantCritical, task.Quadrant)

	// Edit 40 -> 70 without a note: rejected, nothing stored, no audit.
	pending, err := rules.NewPendingProgress(task.Progress, 70)
	require.NoError(t, err)
	require.ErrorIs(t, pending.Commit(""), rules.ErrNoteRequired)

	next := task
	next.Progress = pending.Value()
	assert.Equal(t, 40, next.Progress)
	assert.True(t, planAudit(task, next, "", now).empty())

	// Supplying the note commits 70 and plans exactly one audit row.
	require.NoError(t, pending.Commit("halfway done"))
	next.Progress = pending.Value()
	require.Equal(t, 70, next.Progress)

	plan := planAudit(task, next, pending.Note(), now)
	require.NotNil(t, plan.progress)
	assert.Nil(t, plan.dueDate)
	assert.Equal(t, 40, plan.progress.PreviousProgress)
	assert.Equal(t, 70, plan.progress.CurrentProgress)
	assert.Equal(t, "halfway done", plan.progress.Notes)
}

func TestTaskLifecycleCompletionFreezesQuadrant(t *testing.T) {
	settings := models.DefaultSettings()
	now := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

	due := now.AddDate(0, 0, 10)
	task := models.Task{ID: "t1", DueDate: &due, Quadrant: rules.QuadrantUrgent}

	task.Completed = true
	task.Progress = rules.CompletionProgress(true)
	assert.Equal(t, 100, task.Progress)

	// Completed tasks keep their quadrant even once overdue.
	later := now.AddDate(0, 0, 30)
	assert.Equal(t, rules.QuadrantUrgent, rules.Reclassify(task, settings, later))

	// Un-completing is a full reset, not a restore.
	task.Completed = false
	task.Progress = rules.CompletionProgress(false)
	assert.Equal(t, 0, task.Progress)
	assert.Equal(t, rules.QuadrantCritical, rules.Reclassify(task, settings, later))
}
