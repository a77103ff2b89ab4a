package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/deshmukhatharva11/innovation-hub-sub003/api/swagger"
	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/handler"
	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/middleware"
	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/models"
	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/repository"
	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/service"
	"github.com/deshmukhatharva11/innovation-hub-sub003/pkg/cache"
	"github.com/deshmukhatharva11/innovation-hub-sub003/pkg/config"
	"github.com/deshmukhatharva11/innovation-hub-sub003/pkg/database"
	"github.com/deshmukhatharva11/innovation-hub-sub003/pkg/logger"
	corsmiddleware "github.com/deshmukhatharva11/innovation-hub-sub003/pkg/middleware/cors"
	reqidmiddleware "github.com/deshmukhatharva11/innovation-hub-sub003/pkg/middleware/requestid"
)

// @title Innovation Hub API
// @version 1.0.0
// @description Idea lifecycle, mentoring and incubation workflow API
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
			redisClient = nil
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	ideaRepo := repository.NewIdeaRepository(db)
	mentorRepo := repository.NewMentorRepository(db)
	incubatorRepo := repository.NewIncubatorRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	chatRepo := repository.NewChatRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()

	notificationSvc := service.NewNotificationService(notificationRepo, cacheRepo, logr, metricsSvc, service.NotificationConfig{
		Workers:        cfg.Notifications.Workers,
		BufferSize:     cfg.Notifications.BufferSize,
		MaxRetries:     cfg.Notifications.MaxRetries,
		RetryDelay:     cfg.Notifications.RetryDelay,
		UnreadCountTTL: cfg.Cache.UnreadCountTTL,
	})
	notificationSvc.Start(ctx)
	defer notificationSvc.Stop()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "innovation-hub",
	})
	workflowSvc := service.NewWorkflowService(ideaRepo, incubatorRepo, notificationSvc, cacheRepo, validate, logr, metricsSvc)
	ideaSvc := service.NewIdeaService(ideaRepo, cacheRepo, validate, logr, metricsSvc, cfg.Cache.IdeaDetailTTL)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, mentorRepo, ideaRepo, chatRepo, notificationSvc, validate, logr, metricsSvc)
	chatSvc := service.NewChatService(chatRepo, mentorRepo, notificationSvc, validate, logr)
	incubatorSvc := service.NewIncubatorService(ideaRepo, incubatorRepo, workflowSvc, validate, logr)
	reportSvc := service.NewReportService(ideaRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	ideaHandler := handler.NewIdeaHandler(ideaSvc, workflowSvc, reportSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	incubatorHandler := handler.NewIncubatorHandler(incubatorSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	chatHandler := handler.NewChatHandler(chatSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	secured := api.Group("")
	secured.Use(middleware.JWT(authSvc))

	ideas := secured.Group("/ideas")
	{
		ideas.GET("", ideaHandler.List)
		ideas.POST("", middleware.RequireRoles(models.RoleStudent), ideaHandler.Create)
		if cfg.Reports.Enabled {
			ideas.GET("/reports/pipeline",
				middleware.RequireRoles(models.RoleAdmin, models.RoleCollegeAdmin),
				ideaHandler.PipelineReport)
		}
		ideas.GET("/:id", ideaHandler.Get)
		ideas.PUT("/:id", ideaHandler.Update)
		ideas.PUT("/:id/status",
			middleware.Audit(userRepo, "idea.status_change", "idea"),
			ideaHandler.ChangeStatus)
	}

	assignments := secured.Group("/mentor-assignments")
	{
		assignments.GET("", assignmentHandler.List)
		assignments.POST("/assign",
			middleware.RequireRoles(models.RoleAdmin, models.RoleCollegeAdmin, models.RoleIncubatorManager),
			middleware.Audit(userRepo, "assignment.assign", "mentor_assignment"),
			assignmentHandler.Assign)
		assignments.POST("/request", middleware.RequireRoles(models.RoleStudent), assignmentHandler.Request)
		assignments.PUT("/:id/respond", middleware.RequireRoles(models.RoleMentor), assignmentHandler.Respond)
		assignments.PUT("/:id/status",
			middleware.Audit(userRepo, "assignment.close", "mentor_assignment"),
			assignmentHandler.UpdateStatus)
	}

	incubator := secured.Group("/incubator")
	incubator.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleIncubatorManager))
	{
		incubator.GET("/ideas/endorsed", incubatorHandler.ReviewQueue)
		incubator.PUT("/ideas/:id/review",
			middleware.Audit(userRepo, "idea.incubation_review", "idea"),
			incubatorHandler.Review)
		incubator.GET("/pre-incubatees", incubatorHandler.PreIncubatees)
	}

	notifications := secured.Group("/notifications")
	{
		notifications.GET("", notificationHandler.List)
		notifications.GET("/unread-count", notificationHandler.UnreadCount)
		notifications.PUT("/read-all", notificationHandler.MarkAllRead)
		notifications.PUT("/:id/read", notificationHandler.MarkRead)
	}

	chats := secured.Group("/chats")
	{
		chats.GET("", chatHandler.List)
		chats.GET("/:id/messages", chatHandler.Messages)
		chats.POST("/:id/messages", chatHandler.Send)
		chats.PUT("/:id/archive", chatHandler.Archive)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
