package main

import (
	"alcyxob/program-ledger/internal/api"
	"alcyxob/program-ledger/internal/config"
	"alcyxob/program-ledger/internal/jobs"
	"alcyxob/program-ledger/internal/ledger"
	"alcyxob/program-ledger/internal/logging"
	"alcyxob/program-ledger/internal/repository"
	"alcyxob/program-ledger/internal/repository/memory"
	"alcyxob/program-ledger/internal/repository/mongo"
	"alcyxob/program-ledger/internal/service"
	"alcyxob/program-ledger/internal/storage"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// repositories is the storage backend selected by database.driver.
type repositories struct {
	users       repository.UserRepository
	catalog     repository.CatalogRepository
	activities  repository.ActivityRepository
	plans       repository.PlanTemplateRepository
	periods     repository.PeriodConfigRepository
	enrollments repository.EnrollmentRepository
	executions  repository.ExecutionRepository
	close       func()
}

// @title Program Ledger API
// @version 1.0
// @description Recurring program scheduling and execution tracking for coaches and clients.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: could not load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging)
	logger.Info().Str("driver", cfg.Database.Driver).Msg("configuration loaded")

	ctx := context.Background()

	// --- Repositories ---
	repos, err := openRepositories(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not open storage")
	}
	defer repos.close()

	// --- Report storage ---
	fileStorage := storage.NewDisabledStorage()
	if cfg.S3.Enabled() {
		fileStorage, err = storage.NewS3Storage(ctx, cfg.S3, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize S3 storage")
		}
	} else {
		logger.Warn().Msg("s3.bucket not set: report export disabled")
	}

	// --- Services ---
	intensities := ledger.NewIntensityTable(cfg.Intensity.Defaults, cfg.Intensity.Fallback)
	services := api.Services{
		Auth:    service.NewAuthService(repos.users, cfg.JWT.Secret, cfg.JWT.Expiration),
		Program: service.NewProgramService(repos.activities, repos.plans, repos.periods, repos.enrollments, logger),
		Catalog: service.NewCatalogService(repos.catalog),
		Execution: service.NewExecutionService(
			repos.enrollments, repos.activities, repos.plans, repos.periods,
			repos.catalog, repos.executions, intensities, logger,
		),
		Progress: service.NewProgressService(repos.enrollments, repos.activities, repos.executions, fileStorage, cfg.S3.ReportURLExpiry, logger),
		Client:   service.NewClientService(repos.enrollments, repos.activities, repos.plans, repos.periods, repos.executions),
	}
	lifecycle := service.NewLifecycleService(repos.enrollments, repos.executions, logger)

	// --- Scheduled jobs ---
	runner := jobs.NewRunner(cfg.Jobs, lifecycle, logger)
	if err := runner.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start scheduled jobs")
	}
	defer runner.Stop()

	// --- HTTP ---
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	if cfg.Hooks.Secret == "" {
		logger.Warn().Msg("hooks.secret not set: enrollment webhook will reject every call")
	}
	router := gin.New()
	router.Use(gin.Recovery(), logging.GinLogger(logger))
	api.SetupRoutes(router, cfg.JWT.Secret, cfg.Hooks, services, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().Str("address", cfg.Server.Address).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("ListenAndServe error")
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	logger.Info().Msg("server exiting")
}

func openRepositories(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*repositories, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logger.Warn().Msg("using in-memory storage: data is lost on restart")
		store := memory.NewStore()
		return &repositories{
			users:       memory.NewUserRepository(store),
			catalog:     memory.NewCatalogRepository(store),
			activities:  memory.NewActivityRepository(store),
			plans:       memory.NewPlanTemplateRepository(store),
			periods:     memory.NewPeriodConfigRepository(store),
			enrollments: memory.NewEnrollmentRepository(store),
			executions:  memory.NewExecutionRepository(store),
			close:       func() {},
		}, nil

	case config.DriverMongo:
		client, err := mongo.ConnectDB(ctx, cfg.URI)
		if err != nil {
			return nil, fmt.Errorf("connect to MongoDB: %w", err)
		}
		db := client.Database(cfg.Name)
		logger.Info().Str("database", cfg.Name).Msg("database connection established")

		indexCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := mongo.EnsureIndexes(indexCtx, db); err != nil {
			_ = mongo.DisconnectDB(client)
			return nil, fmt.Errorf("ensure indexes: %w", err)
		}

		return &repositories{
			users:       mongo.NewMongoUserRepository(db),
			catalog:     mongo.NewMongoCatalogRepository(db),
			activities:  mongo.NewMongoActivityRepository(db),
			plans:       mongo.NewMongoPlanTemplateRepository(db),
			periods:     mongo.NewMongoPeriodConfigRepository(db),
			enrollments: mongo.NewMongoEnrollmentRepository(db),
			executions:  mongo.NewMongoExecutionRepository(db),
			close: func() {
				if err := mongo.DisconnectDB(client); err != nil {
					logger.Error().Err(err).Msg("failed to disconnect MongoDB")
				}
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}
