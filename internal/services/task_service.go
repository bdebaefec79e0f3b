package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/avelkov/quadboard/internal/models"
	"github.com/avelkov/quadboard/internal/realtime"
	"github.com/avelkov/quadboard/internal/rules"
)

type taskServiceImpl struct {
	logger      zerolog.Logger
	pgPool      *pgxpool.Pool
	settings    SettingsService
	broker      *realtime.Broker
	auditPolicy AuditWritePolicy
}

func NewTaskService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
	settingsService SettingsService,
	broker *realtime.Broker,
) TaskService {
	return &taskServiceImpl{
		logger:      logger,
		pgPool:      pgPool,
		settings:    settingsService,
		broker:      broker,
		auditPolicy: AuditLogAndContinue,
	}
}

const taskColumns = `id,
       title,
       notes,
       icon,
       progress,
       created_by_id,
       created_by_name,
       assigned_to_id,
       assigned_to_name,
       due_date,
       completed,
       quadrant,
       quadrant_pinned,
       created_at,
       updated_at`

// canAccessTask reports whether the actor may read or mutate the task.
// Admins and managers reach the whole board; everyone else only the
// tasks they created or hold.
func canAccessTask(actor models.User, task *models.Task) bool {
	if actor.Role == models.RoleAdmin || actor.Role.ManagesReports() {
		return true
	}
	return task.CreatedByID == actor.ID || task.AssignedToID == actor.ID
}

func scanTask(row pgx.Row) (*models.Task, error) {
	task := &models.Task{}
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Notes,
		&task.Icon,
		&task.Progress,
		&task.CreatedByID,
		&task.CreatedByName,
		&task.AssignedToID,
		&task.AssignedToName,
		&task.DueDate,
		&task.Completed,
		&task.Quadrant,
		&task.QuadrantPinned,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error) {
	if params.Title == "" {
		return nil, ErrTitleRequired
	}
	if params.AssignedToID == "" {
		return nil, ErrAssigneeRequired
	}
	if params.Quadrant != 0 && !rules.ValidQuadrant(params.Quadrant) {
		return nil, ErrInvalidQuadrant
	}

	assigneeName, err := s.selectUserName(ctx, params.AssignedToID)
	if err != nil {
		return nil, err
	}

	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	task := &models.Task{
		Title:          params.Title,
		Notes:          params.Notes,
		Icon:           params.Icon,
		Progress:       rules.ProgressMin,
		CreatedByID:    params.Actor.ID,
		CreatedByName:  params.Actor.Name,
		AssignedToID:   params.AssignedToID,
		AssignedToName: assigneeName,
		DueDate:        params.DueDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if params.Quadrant != 0 {
		task.Quadrant = params.Quadrant
		task.QuadrantPinned = true
	} else {
		task.Quadrant = rules.Classify(*task, settings, now)
	}

	taskUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate task uuid")
		return nil, err
	}
	task.ID = taskUUID.String()

	const insertTaskQuery = `
INSERT INTO tasks (id,
                   title,
                   notes,
                   icon,
                   progress,
                   created_by_id,
                   created_by_name,
                   assigned_to_id,
                   assigned_to_name,
                   due_date,
                   completed,
                   quadrant,
                   quadrant_pinned,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
`
	_, err = s.pgPool.Exec(
		ctx,
		insertTaskQuery,
		task.ID,
		task.Title,
		task.Notes,
		task.Icon,
		task.Progress,
		task.CreatedByID,
		task.CreatedByName,
		task.AssignedToID,
		task.AssignedToName,
		task.DueDate,
		task.Completed,
		task.Quadrant,
		task.QuadrantPinned,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Int("quadrant", task.Quadrant).
		Str("assigned_to", task.AssignedToID).
		Msg("created task")

	s.broker.Publish(ctx, realtime.Event{
		Table: "tasks",
		Op:    realtime.OpInsert,
		RowID: task.ID,
	})
	return task, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, viewer models.User, taskID string) (*models.Task, error) {
	const selectTaskByIDQuery = `
SELECT ` + taskColumns + `
FROM tasks
WHERE id = $1
`
	task, err := scanTask(s.pgPool.QueryRow(ctx, selectTaskByIDQuery, taskID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("task_id", taskID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to select task by id")
		return nil, err
	}

	if !canAccessTask(viewer, task) {
		s.logger.Error().
			Str("task_id", taskID).
			Str("viewer_id", viewer.ID).
			Msg("task access denied")
		return nil, ErrPermissionDenied
	}

	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	task.Quadrant = rules.Reclassify(*task, settings, time.Now())

	return task, nil
}

func (s *taskServiceImpl) ListTasks(ctx context.Context, params ListTasksParams) ([]*models.Task, error) {
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	perPage := params.PerPage
	if perPage <= 0 {
		perPage = settings.TasksPerPage
	}
	page := params.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * perPage

	// Admins and managers see the whole board; everyone else sees
	// the tasks they created or hold.
	const selectAllTasksQuery = `
SELECT ` + taskColumns + `
FROM tasks
ORDER BY due_date ASC NULLS LAST, created_at DESC
LIMIT $1 OFFSET $2
`
	const selectOwnTasksQuery = `
SELECT ` + taskColumns + `
FROM tasks
WHERE assigned_to_id = $3 OR created_by_id = $3
ORDER BY due_date ASC NULLS LAST, created_at DESC
LIMIT $1 OFFSET $2
`

	var rows pgx.Rows
	viewer := params.Viewer
	if viewer.Role == models.RoleAdmin || viewer.Role.ManagesReports() {
		rows, err = s.pgPool.Query(ctx, selectAllTasksQuery, perPage, offset)
	} else {
		rows, err = s.pgPool.Query(ctx, selectOwnTasksQuery, perPage, offset, viewer.ID)
	}
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("viewer_id", viewer.ID).
			Msg("failed to select tasks")
		return nil, err
	}
	defer rows.Close()

	now := time.Now()
	tasks := make([]*models.Task, 0, perPage)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, err
		}
		task.Quadrant = rules.Reclassify(*task, settings, now)
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(tasks)).
		Str("viewer_id", viewer.ID).
		Int("page", page).
		Msg("selected tasks")
	return tasks, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error) {
	if params.Title != nil && *params.Title == "" {
		return nil, ErrTitleRequired
	}

	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const selectTaskForUpdateQuery = `
SELECT ` + taskColumns + `
FROM tasks
WHERE id = $1
FOR UPDATE
`
	stored, err := scanTask(tx.QueryRow(ctx, selectTaskForUpdateQuery, params.TaskID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("task_id", params.TaskID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", params.TaskID).
			Msg("failed to select task for update")
		return nil, err
	}

	if !params.SystemInitiated && !canAccessTask(params.Actor, stored) {
		s.logger.Error().
			Str("task_id", stored.ID).
			Str("actor_id", params.Actor.ID).
			Msg("task update denied")
		return nil, ErrPermissionDenied
	}

	now := time.Now()
	next := *stored
	next.UpdatedAt = now

	if params.Title != nil {
		next.Title = *params.Title
	}
	if params.Notes != nil {
		next.Notes = *params.Notes
	}
	if params.Icon != nil {
		next.Icon = *params.Icon
	}
	if params.AssignedToID != nil {
		if *params.AssignedToID == "" {
			return nil, ErrAssigneeRequired
		}
		name, err := s.selectUserName(ctx, *params.AssignedToID)
		if err != nil {
			return nil, err
		}
		next.AssignedToID = *params.AssignedToID
		next.AssignedToName = name
	}

	if params.DueDateSet {
		next.DueDate = params.DueDate
		if !rules.SameCalendarDay(stored.DueDate, next.DueDate, now.Location()) &&
			params.Reason == "" && !params.SystemInitiated {
			s.logger.Error().
				Str("task_id", stored.ID).
				Msg("due date change rejected without a reason")
			return nil, ErrReasonRequired
		}
	}

	switch {
	case params.Completed != nil && *params.Completed != stored.Completed:
		// The completion toggle is the only path that may lower
		// progress: done pins it at 100, undone resets to 0.
		next.Completed = *params.Completed
		next.Progress = rules.CompletionProgress(next.Completed)
	case params.Progress != nil && *params.Progress != stored.Progress:
		pending, err := rules.NewPendingProgress(stored.Progress, *params.Progress)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("task_id", stored.ID).
				Int("requested", *params.Progress).
				Msg("progress edit rejected")
			return nil, err
		}
		if params.SystemInitiated {
			err = pending.CommitSystem()
		} else {
			err = pending.Commit(params.Reason)
		}
		if err != nil {
			if errors.Is(err, rules.ErrNoteRequired) {
				s.logger.Error().
					Str("task_id", stored.ID).
					Msg("progress change rejected without a reason")
				return nil, ErrReasonRequired
			}
			return nil, err
		}
		next.Progress = pending.Value()
	}

	next.Quadrant = rules.Reclassify(next, settings, now)

	const updateTaskQuery = `
UPDATE tasks
SET title = $1,
    notes = $2,
    icon = $3,
    progress = $4,
    assigned_to_id = $5,
    assigned_to_name = $6,
    due_date = $7,
    completed = $8,
    quadrant = $9,
    updated_at = $10
WHERE id = $11
`
	_, err = tx.Exec(
		ctx,
		updateTaskQuery,
		next.Title,
		next.Notes,
		next.Icon,
		next.Progress,
		next.AssignedToID,
		next.AssignedToName,
		next.DueDate,
		next.Completed,
		next.Quadrant,
		next.UpdatedAt,
		next.ID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", next.ID).
			Msg("failed to update task")
		return nil, err
	}

	plan := planAudit(*stored, next, params.Reason, now)

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return nil, err
	}

	// Audit rows follow the confirmed update so a rejected edit
	// never leaves a trail.
	if !plan.empty() {
		writeAudit(ctx, s.pgPool, s.logger, plan)
	}

	s.logger.Info().
		Str("task_id", next.ID).
		Str("actor_id", params.Actor.ID).
		Int("progress", next.Progress).
		Int("quadrant", next.Quadrant).
		Msg("updated task")

	s.broker.Publish(ctx, realtime.Event{
		Table: "tasks",
		Op:    realtime.OpUpdate,
		RowID: next.ID,
	})
	return &next, nil
}

func (s *taskServiceImpl) MoveTask(ctx context.Context, params MoveTaskParams) (*models.Task, error) {
	if !rules.ValidQuadrant(params.Quadrant) {
		return nil, ErrInvalidQuadrant
	}

	const moveTaskQuery = `
UPDATE tasks
SET quadrant = $1,
    quadrant_pinned = TRUE,
    updated_at = $2
WHERE id = $3
RETURNING ` + taskColumns + `
`
	const moveOwnTaskQuery = `
UPDATE tasks
SET quadrant = $1,
    quadrant_pinned = TRUE,
    updated_at = $2
WHERE id = $3 AND (created_by_id = $4 OR assigned_to_id = $4)
RETURNING ` + taskColumns + `
`

	var row pgx.Row
	actor := params.Actor
	if actor.Role == models.RoleAdmin || actor.Role.ManagesReports() {
		row = s.pgPool.QueryRow(ctx, moveTaskQuery, params.Quadrant, time.Now(), params.TaskID)
	} else {
		row = s.pgPool.QueryRow(ctx, moveOwnTaskQuery, params.Quadrant, time.Now(), params.TaskID, actor.ID)
	}
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("task_id", params.TaskID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", params.TaskID).
			Msg("failed to move task")
		return nil, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("actor_id", params.Actor.ID).
		Int("quadrant", task.Quadrant).
		Msg("moved task on the board")

	s.broker.Publish(ctx, realtime.Event{
		Table: "tasks",
		Op:    realtime.OpUpdate,
		RowID: task.ID,
	})
	return task, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, params DeleteTaskParams) error {
	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1
`
	const deleteOwnTaskQuery = `
DELETE FROM tasks
WHERE id = $1 AND (created_by_id = $2 OR assigned_to_id = $2)
`

	var tag pgconn.CommandTag
	var err error
	actor := params.Actor
	if actor.Role == models.RoleAdmin || actor.Role.ManagesReports() {
		tag, err = s.pgPool.Exec(ctx, deleteTaskQuery, params.TaskID)
	} else {
		tag, err = s.pgPool.Exec(ctx, deleteOwnTaskQuery, params.TaskID, actor.ID)
	}
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", params.TaskID).
			Msg("failed to delete task")
		return err
	}
	if tag.RowsAffected() == 0 {
		s.logger.Error().
			Str("task_id", params.TaskID).
			Str("actor_id", actor.ID).
			Msg("task not found")
		return ErrTaskNotFound
	}

	s.logger.Info().
		Str("task_id", params.TaskID).
		Str("actor_id", actor.ID).
		Msg("deleted task")

	s.broker.Publish(ctx, realtime.Event{
		Table: "tasks",
		Op:    realtime.OpDelete,
		RowID: params.TaskID,
	})
	return nil
}

func (s *taskServiceImpl) SweepOverdue(ctx context.Context) (int, error) {
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return 0, err
	}

	// Persist the critical quadrant for tasks long past due so the
	// stored rows match what classification reports. Pinned and
	// routine tasks keep their manual placement.
	const sweepQuery = `
UPDATE tasks
SET quadrant = $1,
    updated_at = $2
WHERE completed = FALSE
  AND quadrant_pinned = FALSE
  AND quadrant NOT IN ($1, $3)
  AND due_date IS NOT NULL
  AND due_date < $4
RETURNING id
`
	now := time.Now()
	cutoff := now.AddDate(0, 0, -settings.MarkOverdueDays)

	rows, err := s.pgPool.Query(
		ctx,
		sweepQuery,
		rules.QuadrantCritical,
		now,
		rules.QuadrantRoutine,
		cutoff,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to sweep overdue tasks")
		return 0, err
	}
	defer rows.Close()

	var moved []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan swept task id")
			return 0, err
		}
		moved = append(moved, id)
	}
	if err := rows.Err(); err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over swept rows")
		return 0, err
	}

	for _, id := range moved {
		s.broker.Publish(ctx, realtime.Event{
			Table: "tasks",
			Op:    realtime.OpUpdate,
			RowID: id,
		})
	}

	s.logger.Info().
		Int("count", len(moved)).
		Time("cutoff", cutoff).
		Msg("swept overdue tasks")
	return len(moved), nil
}

func (s *taskServiceImpl) selectUserName(ctx context.Context, userID string) (string, error) {
	const selectUserNameQuery = `
SELECT name FROM profiles WHERE id = $1
`
	var name string
	err := s.pgPool.QueryRow(ctx, selectUserNameQuery, userID).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("user_id", userID).
				Msg("user not found")
			return "", ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select user name")
		return "", err
	}
	return name, nil
}
