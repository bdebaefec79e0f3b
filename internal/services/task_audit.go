package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/avelkov/quadboard/internal/models"
	"github.com/avelkov/quadboard/internal/rules"
)

// AuditWritePolicy names what happens when an audit insert fails. Only
// LogAndContinue is implemented: a missing audit row is tolerated, a
// blocked task mutation is not.
type AuditWritePolicy int

const AuditLogAndContinue AuditWritePolicy = iota

// auditPlan holds the audit rows a task update will append: at most
// one per changed field.
type auditPlan struct {
	dueDate  *models.DueDateChange
	progress *models.TaskProgressUpdate
}

func (p auditPlan) empty() bool {
	return p.dueDate == nil && p.progress == nil
}

// planAudit compares the stored task against its updated form and
// plans one row per changed field. The due date counts as changed only
// when the calendar date differs. An empty reason falls back to the
// placeholder so the trail stays total on paths that collected none.
func planAudit(stored, next models.Task, reason string, now time.Time) auditPlan {
	if reason == "" {
		reason = rules.SystemChangeReason
	}

	var plan auditPlan
	if !rules.SameCalendarDay(stored.DueDate, next.DueDate, now.Location()) {
		plan.dueDate = &models.DueDateChange{
			TaskID:      stored.ID,
			LastDate:    stored.DueDate,
			UpdatedDate: next.DueDate,
			Reason:      reason,
			CreatedAt:   now,
		}
	}
	if stored.Progress != next.Progress {
		plan.progress = &models.TaskProgressUpdate{
			TaskID:           stored.ID,
			PreviousProgress: stored.Progress,
			CurrentProgress:  next.Progress,
			Notes:            reason,
			CreatedAt:        now,
		}
	}
	return plan
}

// writeAudit appends the planned rows once the primary update has
// committed, so an optimistic edit the server rejected never leaves a
// trail. Failures are logged and swallowed per AuditLogAndContinue;
// the task mutation never fails because an audit insert did.
func writeAudit(ctx context.Context, pgPool *pgxpool.Pool, logger zerolog.Logger, plan auditPlan) {
	if plan.dueDate != nil {
		rowUUID, err := uuid.NewV7()
		if err == nil {
			plan.dueDate.ID = rowUUID.String()

			const insertDueDateChangeQuery = `
INSERT INTO due_date_change (id,
                             task_id,
                             last_date,
                             updated_date,
                             reason,
                             created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`
			_, err = pgPool.Exec(
				ctx,
				insertDueDateChangeQuery,
				plan.dueDate.ID,
				plan.dueDate.TaskID,
				plan.dueDate.LastDate,
				plan.dueDate.UpdatedDate,
				plan.dueDate.Reason,
				plan.dueDate.CreatedAt,
			)
		}
		if err != nil {
			logger.Error().
				Err(err).
				Str("task_id", plan.dueDate.TaskID).
				Msg("failed to insert due date change audit row")
		} else {
			logger.Debug().
				Str("task_id", plan.dueDate.TaskID).
				Msg("inserted due date change audit row")
		}
	}

	if plan.progress != nil {
		rowUUID, err := uuid.NewV7()
		if err == nil {
			plan.progress.ID = rowUUID.String()

			const insertProgressUpdateQuery = `
INSERT INTO task_progress_update (id,
                                  task_id,
                                  previous_progress,
                                  current_progress,
                                  notes,
                                  created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`
			_, err = pgPool.Exec(
				ctx,
				insertProgressUpdateQuery,
				plan.progress.ID,
				plan.progress.TaskID,
				plan.progress.PreviousProgress,
				plan.progress.CurrentProgress,
				plan.progress.Notes,
				plan.progress.CreatedAt,
			)
		}
		if err != nil {
			logger.Error().
				Err(err).
				Str("task_id", plan.progress.TaskID).
				Msg("failed to insert progress update audit row")
		} else {
			logger.Debug().
				Str("task_id", plan.progress.TaskID).
				Msg("inserted progress update audit row")
		}
	}
}
