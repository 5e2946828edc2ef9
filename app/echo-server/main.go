package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"strategyWorkbench/app/echo-server/metrics"
	"strategyWorkbench/app/echo-server/router"
	"strategyWorkbench/business/binning"
	"strategyWorkbench/business/project"
	"strategyWorkbench/internal/middleware"
	memRepo "strategyWorkbench/internal/repository/memory"
	psqlRepo "strategyWorkbench/internal/repository/postgres"
	redisRepo "strategyWorkbench/internal/repository/redis"
	"strategyWorkbench/internal/rest"
	"strategyWorkbench/pkg/config"
	"strategyWorkbench/pkg/database"
	redisdb "strategyWorkbench/pkg/database/redis"
	"strategyWorkbench/pkg/logger"
	"strategyWorkbench/pkg/task"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	defer logger.Sync()
	logger.Info("Starting Strategy Workbench", "version", cfg.App.Version, "env", cfg.App.Environment)

	metrics.Init()

	// Init stores
	var (
		db          *gorm.DB
		redisClient *goredis.Client
		projectRepo project.ProjectRepository
		sessionRepo binning.SessionRepository
	)

	switch cfg.Store.ProjectDriver {
	case config.StorePostgres:
		db, err = database.InitPostgres(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to database", "error", err)
		}
		logger.Info("Database connected successfully")
		projectRepo = psqlRepo.NewProjectRepository(db)
	default:
		projectRepo = memRepo.NewProjectRepository()
	}

	switch cfg.Store.SessionDriver {
	case config.StoreRedis:
		redisClient, err = redisdb.NewRedisClient(context.Background(), cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", "error", err)
		}
		logger.Info("Redis connected successfully")
		sessionRepo = redisRepo.NewSessionRepository(redisClient, cfg.Store.SessionTTL)
	default:
		sessionRepo = memRepo.NewSessionRepository(cfg.Store.SessionTTL)
	}

	runner := task.NewRunner(task.WithLatency(cfg.Task.SimulatedLatency))

	// Init binning engine
	catalogue, err := binning.DefaultCatalogue()
	if err != nil {
		logger.Fatal("Failed to load feature catalogue", "error", err)
	}

	geometry := binning.DefaultGeometry()
	geometry.Permissive = cfg.Binning.PermissiveDrag

	calculator := binning.NewCalculator(catalogue, binning.NewRandomSource(cfg.Binning.Seed), binning.CalculatorConfig{
		Population:      cfg.Binning.Population,
		JitterAmplitude: cfg.Binning.JitterAmplitude,
	})
	engine := binning.NewEngine(catalogue, calculator, geometry)

	// Init service
	projectService := project.NewProjectService(projectRepo, runner)
	binningService := binning.NewService(engine, sessionRepo, projectService, runner)

	// Init handler
	binningHandler := rest.NewBinningHandler(binningService, cfg.Server.RequestTimeout)
	projectHandler := rest.NewProjectHandler(projectService, cfg.Server.RequestTimeout)
	taskHandler := rest.NewTaskHandler(runner)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.Trace())
	e.Use(metrics.Middleware())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Auth middleware
	authRequired := middleware.Optional(cfg.JWT.Enabled(), middleware.AuthMiddleware(cfg.JWT.SecretKey))

	// Setup routes
	api := e.Group("/api/v1")
	router.SetupFeatureRoutes(api, binningHandler)
	router.SetupBinningRoutes(api, binningHandler)
	router.SetupProjectRoutes(api, projectHandler, authRequired)
	router.SetupTaskRoutes(api, taskHandler)
	if cfg.JWT.Enabled() {
		router.SetupAuthRoutes(api, rest.NewAuthHandler(cfg.JWT.SecretKey, cfg.JWT.TTL))
	}

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr, "project_store", cfg.Store.ProjectDriver, "session_store", cfg.Store.SessionDriver)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	runner.Close()

	if err := redisdb.CloseRedisClient(redisClient); err != nil {
		logger.Error("Failed to close Redis", "error", err)
	}
	if err := database.ClosePostgres(db); err != nil {
		logger.Error("Failed to close database", "error", err)
	}

	logger.Info("Server stopped")
}
