package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/avelkov/quadboard/internal/models"
)

var testToday = time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

func dueIn(days int) *time.Time {
	// Mid-day timestamp to prove classification is calendar-day based.
	d := testToday.AddDate(0, 0, days).Add(14 * time.Hour)
	return &d
}

func TestClassify(t *testing.T) {
	settings := models.DefaultSettings() // critical=2, medium=5

	tests := []struct {
		name string
		task models.Task
		want int
	}{
		{"no due date", models.Task{Quadrant: QuadrantUrgent}, QuadrantNeither},
		{"no due date completed", models.Task{Completed: true, Quadrant: QuadrantCritical}, QuadrantNeither},
		{"completed keeps quadrant", models.Task{DueDate: dueIn(-10), Completed: true, Quadrant: QuadrantImportant}, QuadrantImportant},
		{"completed keeps routine", models.Task{DueDate: dueIn(1), Completed: true, Quadrant: QuadrantRoutine}, QuadrantRoutine},
		{"overdue", models.Task{DueDate: dueIn(-1)}, QuadrantCritical},
		{"long overdue", models.Task{DueDate: dueIn(-30)}, QuadrantCritical},
		{"due today", models.Task{DueDate: dueIn(0)}, QuadrantCritical},
		{"at critical threshold", models.Task{DueDate: dueIn(2)}, QuadrantCritical},
		{"just past critical", models.Task{DueDate: dueIn(3)}, QuadrantImportant},
		{"at medium threshold", models.Task{DueDate: dueIn(5)}, QuadrantImportant},
		{"just past medium", models.Task{DueDate: dueIn(6)}, QuadrantUrgent},
		{"far out", models.Task{DueDate: dueIn(90)}, QuadrantUrgent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.task, settings, testToday)
			assert.Equal(t, tt.want, got)

			// Idempotence: same inputs, same answer.
			assert.Equal(t, got, Classify(tt.task, settings, testToday))
		})
	}
}

func TestClassifyCustomThresholds(t *testing.T) {
	settings := models.DefaultSettings()
	settings.Thresholds.Critical = 7
	settings.Thresholds.Medium = 14

	task := models.Task{DueDate: dueIn(6)}
	assert.Equal(t, QuadrantCritical, Classify(task, settings, testToday))

	task.DueDate = dueIn(10)
	assert.Equal(t, QuadrantImportant, Classify(task, settings, testToday))
}

func TestClassifyNeverProducesRoutine(t *testing.T) {
	settings := models.DefaultSettings()
	for days := -10; days <= 30; days++ {
		task := models.Task{DueDate: dueIn(days)}
		assert.NotEqual(t, QuadrantRoutine, Classify(task, settings, testToday))
	}
}

func TestReclassify(t *testing.T) {
	settings := models.DefaultSettings()

	tests := []struct {
		name string
		task models.Task
		want int
	}{
		{"routine exempt", models.Task{DueDate: dueIn(-1), Quadrant: QuadrantRoutine}, QuadrantRoutine},
		{"pinned exempt", models.Task{DueDate: dueIn(-1), Quadrant: QuadrantUrgent, QuadrantPinned: true}, QuadrantUrgent},
		{"unpinned recomputed", models.Task{DueDate: dueIn(-1), Quadrant: QuadrantUrgent}, QuadrantCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reclassify(tt.task, settings, testToday))
		})
	}
}

func TestClassifyAcrossDSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	settings := models.DefaultSettings() // critical=2, medium=5

	// US DST began 2025-03-09; the night of the 8th is 23h long.
	today := time.Date(2025, time.March, 8, 9, 0, 0, 0, loc)

	nextDay := time.Date(2025, time.March, 9, 9, 0, 0, 0, loc)
	assert.Equal(t, QuadrantCritical, Classify(models.Task{DueDate: &nextDay}, settings, today))

	// Three calendar days out spans only 71 wall-clock hours but
	// still counts as three days, past the critical threshold.
	threeOut := time.Date(2025, time.March, 11, 9, 0, 0, 0, loc)
	assert.Equal(t, QuadrantImportant, Classify(models.Task{DueDate: &threeOut}, settings, today))

	sixOut := time.Date(2025, time.March, 14, 9, 0, 0, 0, loc)
	assert.Equal(t, QuadrantUrgent, Classify(models.Task{DueDate: &sixOut}, settings, today))
}

func TestSameCalendarDay(t *testing.T) {
	loc := time.UTC
	morning := time.Date(2025, time.March, 10, 8, 0, 0, 0, loc)
	evening := time.Date(2025, time.March, 10, 22, 0, 0, 0, loc)
	next := time.Date(2025, time.March, 11, 0, 30, 0, 0, loc)

	assert.True(t, SameCalendarDay(&morning, &evening, loc))
	assert.False(t, SameCalendarDay(&evening, &next, loc))
	assert.True(t, SameCalendarDay(nil, nil, loc))
	assert.False(t, SameCalendarDay(&morning, nil, loc))
}
