package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/avelkov/quadboard/internal/realtime"
	"github.com/avelkov/quadboard/internal/services"
)

type Handler interface {
	HandleLogin(c *gin.Context)
	HandleRefresh(c *gin.Context)
	HandleRegister(c *gin.Context)
	HandleLogout(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)

	HandleCreateTask(c *gin.Context)
	HandleGetTasks(c *gin.Context)
	HandleGetTask(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleMoveTask(c *gin.Context)
	HandleDeleteTask(c *gin.Context)

	HandleGetMe(c *gin.Context)
	HandleUpdateProfile(c *gin.Context)
	HandleListUsers(c *gin.Context)
	HandleGetPermissions(c *gin.Context)

	HandleUpdateUserRole(c *gin.Context)
	HandleUpdateUserManager(c *gin.Context)

	HandleCreateTeam(c *gin.Context)
	HandleGetTeams(c *gin.Context)
	HandleGetTeam(c *gin.Context)
	HandleUpdateTeam(c *gin.Context)
	HandleSetTeamLead(c *gin.Context)
	HandleAddTeamMember(c *gin.Context)
	HandleRemoveTeamMember(c *gin.Context)

	HandleGetSettings(c *gin.Context)
	HandleSaveSettings(c *gin.Context)

	HandleEvents(c *gin.Context)
}

type handlerImpl struct {
	logger   zerolog.Logger
	auth     services.AuthService
	sessions services.SessionService
	tasks    services.TaskService
	users    services.UserService
	teams    services.TeamService
	settings services.SettingsService
	hub      *realtime.Hub
}

func New(
	logger zerolog.Logger,
	authService services.AuthService,
	sessionService services.SessionService,
	taskService services.TaskService,
	userService services.UserService,
	teamService services.TeamService,
	settingsService services.SettingsService,
	hub *realtime.Hub,
) Handler {
	return &handlerImpl{
		logger:   logger,
		auth:     authService,
		sessions: sessionService,
		tasks:    taskService,
		users:    userService,
		teams:    teamService,
		settings: settingsService,
		hub:      hub,
	}
}
