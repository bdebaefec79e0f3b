package v1

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avelkov/quadboard/internal/models"
	"github.com/avelkov/quadboard/internal/rules"
	"github.com/avelkov/quadboard/internal/services"
)

type taskResponse struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Notes          string     `json:"notes,omitempty"`
	Icon           string     `json:"icon,omitempty"`
	Progress       int        `json:"progress"`
	CreatedByID    string     `json:"created_by_id"`
	CreatedByName  string     `json:"created_by_name"`
	AssignedToID   string     `json:"assigned_to_id"`
	AssignedToName string     `json:"assigned_to_name"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	Completed      bool       `json:"completed"`
	Quadrant       int        `json:"quadrant"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func toTaskResponse(task *models.Task) taskResponse {
	return taskResponse{
		ID:             task.ID,
		Title:          task.Title,
		Notes:          task.Notes,
		Icon:           task.Icon,
		Progress:       task.Progress,
		CreatedByID:    task.CreatedByID,
		CreatedByName:  task.CreatedByName,
		AssignedToID:   task.AssignedToID,
		AssignedToName: task.AssignedToName,
		DueDate:        task.DueDate,
		Completed:      task.Completed,
		Quadrant:       task.Quadrant,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
	}
}

type createTaskRequest struct {
	Title        string     `json:"title" binding:"required,max=255"`
	Notes        string     `json:"notes" binding:"max=4096"`
	Icon         string     `json:"icon" binding:"max=64"`
	AssignedToID string     `json:"assigned_to_id" binding:"required"`
	DueDate      *time.Time `json:"due_date"`
	Quadrant     int        `json:"quadrant" binding:"omitempty,min=1,max=5"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	actor, ok := mustCurrentUser(c)
	if !ok {
		return
	}

	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.CreateTask(c, services.CreateTaskParams{
		Actor:        actor,
		Title:        req.Title,
		Notes:        req.Notes,
		Icon:         req.Icon,
		AssignedToID: req.AssignedToID,
		DueDate:      req.DueDate,
		Quadrant:     req.Quadrant,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create task")
		abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toTaskResponse(task))
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	viewer, ok := mustCurrentUser(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.Query("page"))
	perPage, _ := strconv.Atoi(c.Query("per_page"))

	tasks, err := h.tasks.ListTasks(c, services.ListTasksParams{
		Viewer:  viewer,
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list tasks")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	responses := make([]taskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, toTaskResponse(task))
	}
	c.JSON(http.StatusOK, gin.H{"tasks": responses})
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	viewer, ok := mustCurrentUser(c)
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(c, viewer, c.Param("id"))
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", c.Param("id")).
			Msg("failed to get task")
		abortTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(task))
}

type updateTaskRequest struct {
	Title        *string `json:"title"`
	Notes        *string `json:"notes"`
	Icon         *string `json:"icon"`
	AssignedToID *string `json:"assigned_to_id"`
	Progress     *int    `json:"progress"`
	Completed    *bool   `json:"completed"`

	// DueDate sets a new date; ClearDueDate removes it. Both unset
	// leaves the stored date alone.
	DueDate      *time.Time `json:"due_date"`
	ClearDueDate bool       `json:"clear_due_date"`

	Reason string `json:"reason"`
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	actor, ok := mustCurrentUser(c)
	if !ok {
		return
	}

	var req updateTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	params := services.UpdateTaskParams{
		TaskID:       c.Param("id"),
		Actor:        actor,
		Title:        req.Title,
		Notes:        req.Notes,
		Icon:         req.Icon,
		AssignedToID: req.AssignedToID,
		Progress:     req.Progress,
		Completed:    req.Completed,
		Reason:       req.Reason,
	}
	if req.ClearDueDate {
		params.DueDateSet = true
	} else if req.DueDate != nil {
		params.DueDateSet = true
		params.DueDate = req.DueDate
	}

	task, err := h.tasks.UpdateTask(c, params)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", params.TaskID).
			Msg("failed to update task")
		abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTaskResponse(task))
}

type moveTaskRequest struct {
	Quadrant int `json:"quadrant" binding:"required,min=1,max=5"`
}

func (h *handlerImpl) HandleMoveTask(c *gin.Context) {
	actor, ok := mustCurrentUser(c)
	if !ok {
		return
	}

	var req moveTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.MoveTask(c, services.MoveTaskParams{
		TaskID:   c.Param("id"),
		Actor:    actor,
		Quadrant: req.Quadrant,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", c.Param("id")).
			Msg("failed to move task")
		abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTaskResponse(task))
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	actor, ok := mustCurrentUser(c)
	if !ok {
		return
	}

	err := h.tasks.DeleteTask(c, services.DeleteTaskParams{
		TaskID: c.Param("id"),
		Actor:  actor,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", c.Param("id")).
			Msg("failed to delete task")
		abortTaskError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func abortTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
	case errors.Is(err, services.ErrUserNotFound):
		abort(c, newBadRequestError(services.ErrUserNotFound.Error()))
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrAssigneeRequired),
		errors.Is(err, services.ErrReasonRequired),
		errors.Is(err, services.ErrInvalidQuadrant),
		errors.Is(err, rules.ErrProgressDecrease),
		errors.Is(err, rules.ErrProgressOutOfRange):
		abort(c, newBadRequestError(err.Error()))
	case errors.Is(err, services.ErrPermissionDenied):
		abort(c, newForbiddenError(services.ErrPermissionDenied.Error()))
	default:
		abort(c, newStatusTextError(http.StatusInternalServerError))
	}
}
