package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/zianad/idarati-api/api/swagger"
	"github.com/zianad/idarati-api/internal/handler"
	"github.com/zianad/idarati-api/internal/middleware"
	"github.com/zianad/idarati-api/internal/models"
	"github.com/zianad/idarati-api/internal/repository"
	"github.com/zianad/idarati-api/internal/service"
	"github.com/zianad/idarati-api/internal/timegrid"
	"github.com/zianad/idarati-api/pkg/cache"
	"github.com/zianad/idarati-api/pkg/config"
	"github.com/zianad/idarati-api/pkg/database"
	"github.com/zianad/idarati-api/pkg/logger"
	corsmiddleware "github.com/zianad/idarati-api/pkg/middleware/cors"
	reqidmiddleware "github.com/zianad/idarati-api/pkg/middleware/requestid"
	"github.com/zianad/idarati-api/pkg/storage"
)

// @title Idarati API
// @version 1.0.0
// @description Multi-tenant school administration scheduling service
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
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	defer redisClient.Close()

	grid, err := timegrid.New(cfg.Grid.DayStart, cfg.Grid.DayEnd, cfg.Grid.PxPerMinute)
	if err != nil {
		logr.Sugar().Fatalw("invalid grid configuration", "error", err)
	}

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	snapshots := repository.NewSessionSnapshotStore(redisClient)
	roster := repository.NewRosterRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	users := repository.NewUserRepository(db)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(users, nil, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	scheduleSvc := service.NewScheduleService(snapshots, roster, grid, nil, logr).WithMetrics(metricsSvc)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, roster, scheduleSvc, nil, logr)
	exportSvc := service.NewExportService(scheduleSvc, exportStore, signer, service.ExportQueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
	}, logr).WithMetrics(metricsSvc)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exportSvc.Start(rootCtx)
	defer exportSvc.Stop()

	go func() {
		ticker := time.NewTicker(cfg.Exports.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-rootCtx.Done():
				return
			case <-ticker.C:
				exportSvc.CleanupExpired(cfg.Exports.SignedURLTTL)
			}
		}
	}()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := buildRouter(cfg, logr, authSvc, scheduleSvc, attendanceSvc, exportSvc, metricsSvc, db, redisClient)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

func buildRouter(
	cfg *config.Config,
	logr *zap.Logger,
	authSvc *service.AuthService,
	scheduleSvc *service.ScheduleService,
	attendanceSvc *service.AttendanceService,
	exportSvc *service.ExportService,
	metricsSvc *service.MetricsService,
	db *sqlx.DB,
	redisClient *redis.Client,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(reqidmiddleware.Middleware())
	router.Use(logger.GinMiddleware(logr))
	router.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	router.Use(middleware.Metrics(metricsSvc))

	authHandler := handler.NewAuthHandler(authSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	exportHandler := handler.NewExportHandler(exportSvc, metricsSvc)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	router.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	router.GET("/downloads/:token", exportHandler.Download)

	if cfg.Env != config.EnvProduction {
		router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := router.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/auth/me", middleware.JWT(authSvc), authHandler.Me)

	school := api.Group("/schools/:schoolId", middleware.JWT(authSvc), middleware.TenantAccess())
	staffOrAbove := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleOwner, models.RoleStaff)
	ownerOrAbove := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleOwner)

	school.GET("/sessions", staffOrAbove, scheduleHandler.List)
	school.POST("/sessions", ownerOrAbove, scheduleHandler.Create)
	school.POST("/sessions/batch", ownerOrAbove, scheduleHandler.CreateWithOccurrences)
	school.POST("/sessions/save", ownerOrAbove, scheduleHandler.Save)
	school.PUT("/sessions/:id", ownerOrAbove, scheduleHandler.Update)
	school.DELETE("/sessions/:id", ownerOrAbove, scheduleHandler.Delete)
	school.POST("/sessions/:id/move", ownerOrAbove, scheduleHandler.Move)
	school.POST("/sessions/:id/duplicate", ownerOrAbove, scheduleHandler.Duplicate)
	school.GET("/sessions/:id/conflict-check", staffOrAbove, scheduleHandler.CheckConflict)

	school.GET("/timetable", staffOrAbove, scheduleHandler.Timetable)
	school.GET("/timetable/print", staffOrAbove, scheduleHandler.PrintableTimetable)
	school.GET("/timetable/export", staffOrAbove, exportHandler.Export)
	school.POST("/timetable/export/async", staffOrAbove, exportHandler.Enqueue)
	school.GET("/timetable/export/:id", staffOrAbove, exportHandler.Status)

	school.POST("/attendance", staffOrAbove, attendanceHandler.Record)
	school.GET("/attendance", staffOrAbove, attendanceHandler.List)
	school.GET("/sessions/:id/attendance/eligible", staffOrAbove, attendanceHandler.Eligible)
	school.GET("/sessions/:id/attendance/status", staffOrAbove, attendanceHandler.Status)
	school.GET("/students/:id/attendance", staffOrAbove, attendanceHandler.StudentHistory)

	return router
}
