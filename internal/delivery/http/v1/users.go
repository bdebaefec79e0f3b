package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avelkov/quadboard/internal/models"
	"github.com/avelkov/quadboard/internal/rules"
	"github.com/avelkov/quadboard/internal/services"
)

type userResponse struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      models.Role `json:"role"`
	ManagerID *string     `json:"manager_id,omitempty"`
	AvatarURL string      `json:"avatar_url,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func toUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		ManagerID: user.ManagerID,
		AvatarURL: user.AvatarURL,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func (h *handlerImpl) HandleGetMe(c *gin.Context) {
	user, ok := mustCurrentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toUserResponse(&user))
}

type updateProfileRequest struct {
	Name      *string `json:"name" binding:"omitempty,max=255"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,max=2048,url"`
}

func (h *handlerImpl) HandleUpdateProfile(c *gin.Context) {
	actor, ok := mustCurrentUser(c)
	if !ok {
		return
	}

	var req updateProfileRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	user, err := h.users.UpdateProfile(c, services.UpdateProfileParams{
		UserID:    actor.ID,
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to update profile")
		if errors.Is(err, services.ErrUserNotFound) {
			abort(c, newNotFoundError(services.ErrUserNotFound.Error()))
			return
		}
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *handlerImpl) HandleListUsers(c *gin.Context) {
	viewer, ok := mustCurrentUser(c)
	if !ok {
		return
	}

	users, err := h.users.ListUsers(c, viewer)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list users")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	responses := make([]userResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, toUserResponse(user))
	}
	c.JSON(http.StatusOK, gin.H{"users": responses})
}

// HandleGetPermissions resolves the caller's capability set against an
// optional target user, so the client can enable or disable controls
// without duplicating the rules.
func (h *handlerImpl) HandleGetPermissions(c *gin.Context) {
	viewer, ok := mustCurrentUser(c)
	if !ok {
		return
	}

	targetID := c.Query("target_id")
	underManager := false
	if targetID != "" && targetID != viewer.ID {
		target, err := h.users.GetUserByID(c, targetID)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				abort(c, newNotFoundError(services.ErrUserNotFound.Error()))
				return
			}
			abort(c, newStatusTextError(http.StatusInternalServerError))
			return
		}
		underManager = target.ReportsTo(viewer.ID)
	}

	caps := rules.Permissions(viewer.Role, targetID, viewer.ID, underManager)
	c.JSON(http.StatusOK, gin.H{
		"can_create_teams":         caps.CanCreateTeams,
		"can_update_teams":         caps.CanUpdateTeams,
		"can_view_teams":           caps.CanViewTeams,
		"can_assign_team_leads":    caps.CanAssignTeamLeads,
		"can_assign_employees":     caps.CanAssignEmployees,
		"can_change_user_roles":    caps.CanChangeUserRoles,
		"can_upload_profile_image": caps.CanUploadProfileImage,
		"can_view_tasks":           caps.CanViewTasks,
		"can_update_tasks":         caps.CanUpdateTasks,
		"can_update_own_profile":   caps.CanUpdateOwnProfile,
	})
}
