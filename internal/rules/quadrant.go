package rules

import (
	"time"

	"github.com/avelkov/quadboard/internal/models"
)

// Quadrants of the priority board. Routine tasks are only ever assigned
// by hand and never produced by classification.
const (
	QuadrantCritical  = 1
	QuadrantImportant = 2
	QuadrantUrgent    = 3
	QuadrantNeither   = 4
	QuadrantRoutine   = 5
)

// ValidQuadrant reports whether q is one of the five board quadrants.
func ValidQuadrant(q int) bool {
	return q >= QuadrantCritical && q <= QuadrantRoutine
}

// Classify maps a task's due date against the configured thresholds.
//
// Tasks without a due date are neither urgent nor important. Completed
// tasks keep whatever quadrant they were in when finished. For the
// rest, the calendar-day distance to the due date decides: overdue or
// within the critical threshold is quadrant 1, within the medium
// threshold quadrant 2, anything further out quadrant 3.
//
// Classify is pure; callers pass today explicitly so repeated calls
// with the same inputs always agree.
func Classify(task models.Task, settings models.SystemSettings, today time.Time) int {
	if task.DueDate == nil {
		return QuadrantNeither
	}
	if task.Completed {
		return task.Quadrant
	}

	days := daysUntil(*task.DueDate, today)
	switch {
	case days < 0:
		return QuadrantCritical
	case days <= settings.Thresholds.Critical:
		return QuadrantCritical
	case days <= settings.Thresholds.Medium:
		return QuadrantImportant
	default:
		return QuadrantUrgent
	}
}

// Reclassify applies Classify unless the task is exempt: routine tasks
// and tasks pinned by a manual board move keep their quadrant.
func Reclassify(task models.Task, settings models.SystemSettings, today time.Time) int {
	if task.Quadrant == QuadrantRoutine || task.QuadrantPinned {
		return task.Quadrant
	}
	return Classify(task, settings, today)
}

// daysUntil returns the calendar-day difference between due and today,
// evaluated in today's location. Negative means overdue. Both dates are
// rebuilt as UTC midnights so a DST transition between them cannot
// shorten a day below 24h and shift the count.
func daysUntil(due, today time.Time) int {
	loc := today.Location()
	y, m, d := today.In(loc).Date()
	t0 := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	y, m, d = due.In(loc).Date()
	t1 := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(t1.Sub(t0) / (24 * time.Hour))
}

// SameCalendarDay reports whether two optional dates fall on the same
// calendar day in loc. Two absent dates compare equal.
func SameCalendarDay(a, b *time.Time, loc *time.Location) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
