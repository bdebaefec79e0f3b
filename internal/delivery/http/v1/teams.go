package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avelkov/quadboard/internal/models"
	"github.com/avelkov/quadboard/internal/services"
)

type teamResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ManagerID string    `json:"manager_id"`
	LeadID    *string   `json:"lead_id,omitempty"`
	MemberIDs []string  `json:"member_ids"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toTeamResponse(team *models.Team) teamResponse {
	members := team.MemberIDs
	if members == nil {
		members = []string{}
	}
	return teamResponse{
		ID:        team.ID,
		Name:      team.Name,
		ManagerID: team.ManagerID,
		LeadID:    team.LeadID,
		MemberIDs: members,
		CreatedAt: team.CreatedAt,
		UpdatedAt: team.UpdatedAt,
	}
}

type createTeamRequest struct {
	Name      string `json:"name" binding:"required,max=255"`
	ManagerID string `json:"manager_id"`
}

func (h *handlerImpl) HandleCreateTeam(c *gin.Context) {
	actor, ok := mustCurrentUser(c)
	if !ok {
		return
	}

	var req createTeamRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	team, err := h.teams.CreateTeam(c, services.CreateTeamParams{
		Actor:     actor,
		Name:      req.Name,
		ManagerID: req.ManagerID,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create team")
		abortTeamError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toTeamResponse(team))
}

func (h *handlerImpl) HandleGetTeams(c *gin.Context) {
	viewer, ok := mustCurrentUser(c)
	if !ok {
		return
	}

	teams, err := h.teams.ListTeams(c, viewer)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list teams")
		abortTeamError(c, err)
		return
	}

	responses := make([]teamResponse, 0, len(teams))
	for _, team := range teams {
		responses = append(responses, toTeamResponse(team))
	}
	c.JSON(http.StatusOK, gin.H{"teams": responses})
}

func (h *handlerImpl) HandleGetTeam(c *gin.Context) {
	team, err := h.teams.GetTeam(c, c.Param("id"))
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("team_id", c.Param("id")).
			Msg("failed to get team")
		abortTeamError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTeamResponse(team))
}

type updateTeamRequest struct {
	Name *string `json:"name" binding:"omitempty,max=255"`
}

func (h *handlerImpl) HandleUpdateTeam(c *gin.Context) {
	actor, ok := mustCurrentUser(c)
	if !ok {
		return
	}

	var req updateTeamRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	team, err := h.teams.UpdateTeam(c, services.UpdateTeamParams{
		Actor:  actor,
		TeamID: c.Param("id"),
		Name:   req.Name,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("team_id", c.Param("id")).
			Msg("failed to update team")
		abortTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTeamResponse(team))
}

type setTeamLeadRequest struct {
	LeadID *string `json:"lead_id"`
}

func (h *handlerImpl) HandleSetTeamLead(c *gin.Context) {
	actor, ok := mustCurrentUser(c)
	if !ok {
		return
	}

	var req setTeamLeadRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	err = h.teams.SetTeamLead(c, services.SetTeamLeadParams{
		Actor:  actor,
		TeamID: c.Param("id"),
		LeadID: req.LeadID,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("team_id", c.Param("id")).
			Msg("failed to set team lead")
		abortTeamError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type teamMemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

func (h *handlerImpl) HandleAddTeamMember(c *gin.Context) {
	actor, ok := mustCurrentUser(c)
	if !ok {
		return
	}

	var req teamMemberRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	err = h.teams.AddTeamMember(c, services.TeamMemberParams{
		Actor:  actor,
		TeamID: c.Param("id"),
		UserID: req.UserID,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("team_id", c.Param("id")).
			Str("user_id", req.UserID).
			Msg("failed to add team member")
		abortTeamError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) HandleRemoveTeamMember(c *gin.Context) {
	actor, ok := mustCurrentUser(c)
	if !ok {
		return
	}

	err := h.teams.RemoveTeamMember(c, services.TeamMemberParams{
		Actor:  actor,
		TeamID: c.Param("id"),
		UserID: c.Param("userID"),
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("team_id", c.Param("id")).
			Str("user_id", c.Param("userID")).
			Msg("failed to remove team member")
		abortTeamError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func abortTeamError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTeamNotFound):
		abort(c, newNotFoundError(services.ErrTeamNotFound.Error()))
	case errors.Is(err, services.ErrUserNotFound):
		abort(c, newNotFoundError(services.ErrUserNotFound.Error()))
	case errors.Is(err, services.ErrTeamNameRequired),
		errors.Is(err, services.ErrInvalidRole):
		abort(c, newBadRequestError(err.Error()))
	case errors.Is(err, services.ErrNotUnderManager):
		abort(c, newConflictError(services.ErrNotUnderManager.Error()))
	case errors.Is(err, services.ErrPermissionDenied):
		abort(c, newForbiddenError(services.ErrPermissionDenied.Error()))
	default:
		abort(c, newStatusTextError(http.StatusInternalServerError))
	}
}
