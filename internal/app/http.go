package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/avelkov/quadboard/internal/config"
	v1 "github.com/avelkov/quadboard/internal/delivery/http/v1"
	"github.com/avelkov/quadboard/internal/realtime"
	"github.com/avelkov/quadboard/internal/services"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	registerRoutes(router)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// Wait for the interrupt signal to gracefully
	// shut down the server with a timeout of 5 seconds.
	quit := make(chan os.Signal, 1)
	// kill (no params) by default sends syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall.SIGKILL but can't be caught, so don't need to add it
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func registerRoutes(router gin.IRouter) {
	jwtCfg := config.Global().JWT

	hub := realtime.NewHub()
	broker := realtime.NewBroker(globalLogger, globalPostgresPool, hub)
	StartRealtimeListener(broker)

	authService := services.NewAuthService(
		globalLogger,
		globalPostgresPool,
		jwtCfg.Issuer,
		[]byte(jwtCfg.SigningKey),
		jwtCfg.AccessTokenTTL,
		jwtCfg.RefreshTokenTTL,
	)
	sessionService := services.NewSessionService(globalLogger, globalPostgresPool)
	settingsService := services.NewSettingsService(globalLogger, globalPostgresPool, broker)
	taskService := services.NewTaskService(globalLogger, globalPostgresPool, settingsService, broker)
	userService := services.NewUserService(globalLogger, globalPostgresPool, broker)
	teamService := services.NewTeamService(globalLogger, globalPostgresPool, broker)

	MustStartCron(taskService)

	v1Handler := v1.New(
		globalLogger,
		authService,
		sessionService,
		taskService,
		userService,
		teamService,
		settingsService,
		hub,
	)
	router = router.Group("/api/v1")

	authRouter := router.Group("/auth")
	authRouter.POST("/login", v1Handler.HandleLogin)
	authRouter.POST("/refresh", v1Handler.HandleRefresh)
	authRouter.POST("/register", v1Handler.HandleRegister)
	authRouter.POST("/logout", v1Handler.HandleAuthMiddleware, v1Handler.HandleLogout)

	taskRouter := router.Group("/tasks", v1Handler.HandleAuthMiddleware)
	taskRouter.POST("", v1Handler.HandleCreateTask)
	taskRouter.GET("", v1Handler.HandleGetTasks)
	taskRouter.GET("/:id", v1Handler.HandleGetTask)
	taskRouter.PATCH("/:id", v1Handler.HandleUpdateTask)
	taskRouter.POST("/:id/move", v1Handler.HandleMoveTask)
	taskRouter.DELETE("/:id", v1Handler.HandleDeleteTask)

	userRouter := router.Group("/users", v1Handler.HandleAuthMiddleware)
	userRouter.GET("/me", v1Handler.HandleGetMe)
	userRouter.PATCH("/me", v1Handler.HandleUpdateProfile)
	userRouter.GET("", v1Handler.HandleListUsers)
	userRouter.GET("/permissions", v1Handler.HandleGetPermissions)

	teamRouter := router.Group("/teams", v1Handler.HandleAuthMiddleware)
	teamRouter.POST("", v1Handler.HandleCreateTeam)
	teamRouter.GET("", v1Handler.HandleGetTeams)
	teamRouter.GET("/:id", v1Handler.HandleGetTeam)
	teamRouter.PATCH("/:id", v1Handler.HandleUpdateTeam)
	teamRouter.PUT("/:id/lead", v1Handler.HandleSetTeamLead)
	teamRouter.POST("/:id/members", v1Handler.HandleAddTeamMember)
	teamRouter.DELETE("/:id/members/:userID", v1Handler.HandleRemoveTeamMember)

	settingsRouter := router.Group("/settings", v1Handler.HandleAuthMiddleware)
	settingsRouter.GET("", v1Handler.HandleGetSettings)
	settingsRouter.PUT("", v1Handler.HandleSaveSettings)

	adminRouter := router.Group("/admin", v1Handler.HandleAuthMiddleware)
	adminRouter.POST("/update-user-role", v1Handler.HandleUpdateUserRole)
	adminRouter.POST("/update-user-manager", v1Handler.HandleUpdateUserManager)

	router.GET("/events", v1Handler.HandleAuthMiddleware, v1Handler.HandleEvents)
}
