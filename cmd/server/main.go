// Package main runs the acro planner HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/acro-planner/backend/config"
	"github.com/acro-planner/backend/internal/auth"
	"github.com/acro-planner/backend/internal/capabilities"
	"github.com/acro-planner/backend/internal/conventions"
	"github.com/acro-planner/backend/internal/equipment"
	"github.com/acro-planner/backend/internal/events"
	"github.com/acro-planner/backend/internal/eventslots"
	"github.com/acro-planner/backend/internal/hosts"
	"github.com/acro-planner/backend/internal/locations"
	"github.com/acro-planner/backend/internal/middleware"
	"github.com/acro-planner/backend/internal/selections"
	"github.com/acro-planner/backend/internal/users"
	"github.com/acro-planner/backend/pkg/database"
	"github.com/acro-planner/backend/pkg/queue"
	"github.com/acro-planner/backend/pkg/redis"
	"github.com/acro-planner/backend/pkg/response"
	"github.com/acro-planner/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			MediaBucket:          cfg.AWS.MediaBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	sessions := auth.NewSessionService(cfg.Session)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, sessions, jobQueue, cfg.Email.FrontendURL, logger)

	// Users and roles
	userRepo := users.NewRepository(pool)
	userHandler := users.NewHandler(userRepo, logger)

	// Host requests and profiles
	hostRepo := hosts.NewRepository(pool)
	hostHandler := hosts.NewHandler(hostRepo, jobQueue, s3Client, logger)

	// Capability catalog
	capRepo := capabilities.NewRepository(pool)
	capHandler := capabilities.NewHandler(capRepo, s3Client, logger)

	// Equipment
	equipmentRepo := equipment.NewRepository(pool)
	equipmentHandler := equipment.NewHandler(equipmentRepo, s3Client, logger)

	// Locations
	locationRepo := locations.NewRepository(pool)
	locationHandler := locations.NewHandler(locationRepo, equipmentRepo, logger)

	// Events and slots
	eventRepo := events.NewRepository(pool)
	eventHandler := events.NewHandler(eventRepo, capRepo, locationRepo, cfg.Server.DefaultPerPage, cfg.Server.MaxPerPage, logger)
	slotRepo := eventslots.NewRepository(pool)
	slotHandler := eventslots.NewHandler(slotRepo, locationRepo, logger)

	// Conventions
	conventionRepo := conventions.NewRepository(pool)
	conventionHandler := conventions.NewHandler(conventionRepo, jobQueue, logger)

	// Selections and attendee views
	selectionRepo := selections.NewRepository(pool)
	selectionHandler := selections.NewHandler(selectionRepo, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.POST("/forgot-password", authHandler.ForgotPassword)
		authGroup.POST("/reset-password", authHandler.ResetPassword)
	}

	// Public browse surface
	router.GET("/capabilities", capHandler.List)
	router.GET("/capabilities/:id", capHandler.Get)
	router.GET("/equipment", equipmentHandler.List)
	router.GET("/equipment/:id", equipmentHandler.Get)
	router.GET("/locations", locationHandler.List)
	router.GET("/locations/:id", locationHandler.Get)
	router.GET("/events", eventHandler.List)
	router.GET("/events/:id", eventHandler.Get)
	router.GET("/event-slots", slotHandler.List)
	router.GET("/event-slots/:id", slotHandler.Get)
	router.GET("/conventions", conventionHandler.List)
	router.GET("/conventions/:id", conventionHandler.Get)
	router.GET("/conventions/:id/schedule", conventionHandler.Schedule)
	router.GET("/hosts/:userID/profile", hostHandler.GetProfile)
	router.GET("/hosts/:userID/availability", hostHandler.GetAvailability)

	// Session required
	api := router.Group("")
	api.Use(middleware.Session(sessions, userRepo, logger))
	{
		api.GET("/auth/me", authHandler.Me)
		api.GET("/users/me", authHandler.Me)

		// Personalized browse and selections
		api.GET("/events/filtered", eventHandler.ListFiltered)
		api.POST("/selections", selectionHandler.Create)
		api.POST("/selections/batch", selectionHandler.CreateBatch)
		api.PUT("/selections/:id", selectionHandler.Update)
		api.DELETE("/selections/:id", selectionHandler.Delete)
		api.POST("/selections/commit/:eventID", selectionHandler.Commit)
		api.GET("/attendees/schedule", selectionHandler.Schedule)
		api.GET("/attendees/:id/capabilities", selectionHandler.Capabilities)

		// Convention registration
		api.POST("/conventions/:id/register", conventionHandler.Register)

		// Host requests
		api.POST("/hosts/request", hostHandler.Request)
		api.PUT("/hosts/:userID/profile", hostHandler.UpdateProfile)
		api.PUT("/hosts/:userID/availability", hostHandler.SetAvailability)
		api.POST("/hosts/:userID/media/upload-url", hostHandler.UploadURL)

		// Catalog writes (approved hosts and admins)
		hostOrAdmin := api.Group("")
		hostOrAdmin.Use(middleware.RequireRole("host", "admin"))
		{
			hostOrAdmin.POST("/capabilities", capHandler.Create)
			hostOrAdmin.PUT("/capabilities/:id", capHandler.Update)
			hostOrAdmin.POST("/capabilities/:id/parents", capHandler.AddParent)
			hostOrAdmin.POST("/capabilities/:id/media/upload-url", capHandler.UploadURL)
			hostOrAdmin.POST("/equipment", equipmentHandler.Create)
			hostOrAdmin.PUT("/equipment/:id", equipmentHandler.Update)
			hostOrAdmin.POST("/equipment/:id/media/upload-url", equipmentHandler.UploadURL)
			hostOrAdmin.POST("/locations", locationHandler.Create)
			hostOrAdmin.PUT("/locations/:id", locationHandler.Update)
			hostOrAdmin.POST("/events", eventHandler.Create)
			hostOrAdmin.PUT("/events/:id", eventHandler.Update)
			hostOrAdmin.DELETE("/events/:id", eventHandler.Delete)
			hostOrAdmin.POST("/events/:id/assign-slot", eventHandler.AssignSlot)
			hostOrAdmin.DELETE("/events/:id/unassign-slot/:slotID", eventHandler.UnassignSlot)
		}

		// Admin surface
		admin := api.Group("")
		admin.Use(middleware.RequireRole("admin"))
		{
			admin.GET("/users", userHandler.List)
			admin.GET("/users/role/:role", userHandler.ListByRole)
			admin.PATCH("/users/:id/role", userHandler.UpdateRole)
			admin.POST("/users/:id/promote-admin", userHandler.PromoteAdmin)
			admin.POST("/users/:id/demote-admin", userHandler.DemoteAdmin)

			admin.GET("/hosts/requests", hostHandler.ListRequests)
			admin.POST("/hosts/requests/:id/approve", hostHandler.Approve)
			admin.POST("/hosts/requests/:id/deny", hostHandler.Deny)

			admin.DELETE("/capabilities/:id", capHandler.Delete)
			admin.DELETE("/equipment/:id", equipmentHandler.Delete)
			admin.DELETE("/locations/:id", locationHandler.Delete)

			admin.POST("/event-slots", slotHandler.Create)
			admin.POST("/event-slots/bulk", slotHandler.Bulk)
			admin.PUT("/event-slots/:id", slotHandler.Update)
			admin.DELETE("/event-slots/:id", slotHandler.Delete)

			admin.POST("/conventions", conventionHandler.Create)
			admin.PUT("/conventions/:id", conventionHandler.Update)
			admin.DELETE("/conventions/:id", conventionHandler.Delete)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
