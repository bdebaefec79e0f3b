package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avelkov/quadboard/internal/models"
	"github.com/avelkov/quadboard/internal/services"
)

type settingsPayload struct {
	ThresholdCritical int       `json:"threshold_critical" binding:"min=0"`
	ThresholdMedium   int       `json:"threshold_medium" binding:"min=0"`
	ThresholdLow      int       `json:"threshold_low" binding:"min=0"`
	TasksPerPage      int       `json:"tasks_per_page" binding:"min=0"`
	DefaultSortOrder  string    `json:"default_sort_order"`
	MarkOverdueDays   int       `json:"mark_overdue_days" binding:"min=0"`
	WarningDays       int       `json:"warning_days" binding:"min=0"`
	UpdatedAt         time.Time `json:"updated_at,omitempty"`
}

func toSettingsPayload(settings models.SystemSettings) settingsPayload {
	return settingsPayload{
		ThresholdCritical: settings.Thresholds.Critical,
		ThresholdMedium:   settings.Thresholds.Medium,
		ThresholdLow:      settings.Thresholds.Low,
		TasksPerPage:      settings.TasksPerPage,
		DefaultSortOrder:  settings.DefaultSortOrder,
		MarkOverdueDays:   settings.MarkOverdueDays,
		WarningDays:       settings.WarningDays,
		UpdatedAt:         settings.UpdatedAt,
	}
}

func (h *handlerImpl) HandleGetSettings(c *gin.Context) {
	settings, err := h.settings.GetSettings(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to get settings")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}
	c.JSON(http.StatusOK, toSettingsPayload(settings))
}

func (h *handlerImpl) HandleSaveSettings(c *gin.Context) {
	actor, ok := mustCurrentUser(c)
	if !ok {
		return
	}

	var req settingsPayload
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	settings, err := h.settings.SaveSettings(c, services.SaveSettingsParams{
		Actor: actor,
		Settings: models.SystemSettings{
			Thresholds: models.DueDateThresholds{
				Critical: req.ThresholdCritical,
				Medium:   req.ThresholdMedium,
				Low:      req.ThresholdLow,
			},
			TasksPerPage:     req.TasksPerPage,
			DefaultSortOrder: req.DefaultSortOrder,
			MarkOverdueDays:  req.MarkOverdueDays,
			WarningDays:      req.WarningDays,
		},
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to save settings")
		switch {
		case errors.Is(err, services.ErrPermissionDenied):
			abort(c, newForbiddenError(services.ErrPermissionDenied.Error()))
		case errors.Is(err, services.ErrInvalidThresholds):
			abort(c, newBadRequestError(err.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, toSettingsPayload(settings))
}
