package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avelkov/quadboard/internal/models"
	"github.com/avelkov/quadboard/internal/services"
)

// The two privileged endpoints below are the only write paths for the
// role and manager columns. They mirror the callable-function contract:
// a JSON body in, {"success":true} or {"error":...} out.

type updateUserRoleRequest struct {
	UserID  string      `json:"user_id" binding:"required"`
	NewRole models.Role `json:"new_role" binding:"required"`
}

func (h *handlerImpl) HandleUpdateUserRole(c *gin.Context) {
	actor, ok := mustCurrentUser(c)
	if !ok {
		return
	}

	var req updateUserRoleRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidRequestBody.Error()})
		return
	}

	err = h.users.UpdateUserRole(c, services.UpdateUserRoleParams{
		Actor:    actor,
		TargetID: req.UserID,
		NewRole:  req.NewRole,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("target_id", req.UserID).
			Msg("failed to update user role")
		c.JSON(privilegedErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type updateUserManagerRequest struct {
	UserID    string  `json:"user_id" binding:"required"`
	ManagerID *string `json:"manager_id"`
}

func (h *handlerImpl) HandleUpdateUserManager(c *gin.Context) {
	actor, ok := mustCurrentUser(c)
	if !ok {
		return
	}

	var req updateUserManagerRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidRequestBody.Error()})
		return
	}

	err = h.users.UpdateUserManager(c, services.UpdateUserManagerParams{
		Actor:     actor,
		TargetID:  req.UserID,
		ManagerID: req.ManagerID,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("target_id", req.UserID).
			Msg("failed to update user manager")
		c.JSON(privilegedErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func privilegedErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrPermissionDenied),
		errors.Is(err, services.ErrSelfRoleChange),
		errors.Is(err, services.ErrRoleChangeNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, services.ErrInvalidRole):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
