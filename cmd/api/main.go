package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/GTDGit/devhub_api/internal/cache"
	"github.com/GTDGit/devhub_api/internal/config"
	"github.com/GTDGit/devhub_api/internal/database"
	"github.com/GTDGit/devhub_api/internal/handler"
	"github.com/GTDGit/devhub_api/internal/middleware"
	"github.com/GTDGit/devhub_api/internal/models"
	"github.com/GTDGit/devhub_api/internal/repository"
	"github.com/GTDGit/devhub_api/internal/repository/memstore"
	"github.com/GTDGit/devhub_api/internal/repository/mongostore"
	"github.com/GTDGit/devhub_api/internal/service"
	"github.com/GTDGit/devhub_api/internal/sse"
	"github.com/GTDGit/devhub_api/internal/utils"
	"github.com/GTDGit/devhub_api/internal/worker"
)

// main is the application entrypoint for the DevHub API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	closeLog := setupLogger(cfg.Env, &cfg.Log)
	defer closeLog()
	log.Info().Str("env", cfg.Env).Str("store", cfg.StoreDriver).Msg("starting devhub api")

	utils.SetJWTSecret(cfg.JWTSecret)

	// 3. Open the entity store
	stores, checks, closeStore, err := openStores(cfg)
	if err != nil {
		log.Error().Err(err).Msg("store initialization failed")
		fmt.Fprintf(os.Stderr, "store initialization failed: %v\n", err)
		os.Exit(1)
	}
	defer closeStore()

	// 3a. Connect to Redis. Without it mirror repairs are left to reconciliation.
	var repairQueue *cache.RepairQueue
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable - mirror repair queue disabled")
	} else {
		defer redisClient.Close()
		repairQueue = cache.NewRepairQueue(redisClient)
		checks["redis"] = redisClient.Ping
		log.Info().Msg("redis connected successfully")
	}

	// 4. Initialize services
	var enqueuer service.RepairEnqueuer
	if repairQueue != nil {
		enqueuer = repairQueue
	}
	mirror := service.NewMirrorWriter(stores, enqueuer)

	var policy models.TransitionPolicy = models.AnyTransition{}
	if cfg.StrictStatusTransitions {
		policy = models.StrictTransitions{}
		log.Info().Msg("strict status transitions enabled")
	}

	assignmentSvc := service.NewAssignmentService(stores, mirror)
	statusSvc := service.NewStatusService(stores, policy)
	catalogSvc := service.NewCatalogService(stores)
	dashboardSvc := service.NewDashboardService(stores)
	reconcileSvc := service.NewReconcileService(stores, cfg.Worker.ReconcilePruneOrphans)

	// 4a. SSE hub for live dashboard updates
	sseHub := sse.NewHub()
	notifier := sse.NewHubNotifier(sseHub)
	assignmentSvc.SetNotifier(notifier)
	statusSvc.SetNotifier(notifier)

	// 5. Initialize handlers
	handlers := &Handlers{
		Health:    handler.NewHealthHandler(checks),
		Product:   handler.NewProductHandler(assignmentSvc, statusSvc, catalogSvc),
		Developer: handler.NewDeveloperHandler(catalogSvc),
		Dashboard: handler.NewDashboardHandler(dashboardSvc, reconcileSvc),
		SSE:       handler.NewSSEHandler(sseHub),
	}

	// 6. Initialize middleware
	jwtMw := middleware.NewJWTMiddleware()

	// 7. Setup router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, jwtMw)

	// 8. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 9. Start workers
	if repairQueue != nil {
		go worker.NewRepairWorker(
			repairQueue, mirror,
			cfg.Worker.RepairInterval,
			cfg.Worker.RepairBatchSize,
			cfg.Worker.RepairMaxAttempts,
		).Start(ctx)
	}
	go worker.NewReconcileWorker(reconcileSvc, cfg.Worker.ReconcileSchedule).Start(ctx)

	// 10. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 11. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 12. Cancel context to stop workers and end open dashboard streams
	cancel()
	sseHub.Close()

	// 13. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health    *handler.HealthHandler
	Product   *handler.ProductHandler
	Developer *handler.DeveloperHandler
	Dashboard *handler.DashboardHandler
	SSE       *handler.SSEHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware) {
	router.GET("/health", handlers.Health.GetHealth)

	api := router.Group("/api")

	// Public reads
	api.GET("/products/:id", handlers.Product.GetProduct)
	api.GET("/developers/:id", handlers.Developer.GetDeveloper)
	api.GET("/developers/:id/products", handlers.Developer.GetDeveloperProducts)

	// EventSource cannot send headers; the handler checks the token itself.
	api.GET("/dashboard/stream", handlers.SSE.Stream)

	authed := api.Group("")
	authed.Use(jwtMiddleware.Handle())
	{
		authed.PATCH("/products/:id/status", handlers.Product.UpdateStatus)
	}

	admin := api.Group("")
	admin.Use(jwtMiddleware.Handle(), middleware.RequireRole(utils.RoleSuperAdmin))
	{
		admin.POST("/products/:id/assign-developer", handlers.Product.AssignDeveloper)
		admin.DELETE("/products/:id/remove-developer/:developerId", handlers.Product.RemoveDeveloper)
		admin.GET("/dashboard", handlers.Dashboard.GetStats)
		admin.POST("/admin/reconcile", handlers.Dashboard.Reconcile)
	}
}

// openStores connects the configured backend and returns its stores, the
// health checks for it and a close function.
func openStores(cfg *config.Config) (service.Stores, map[string]handler.HealthCheck, func(), error) {
	checks := map[string]handler.HealthCheck{}

	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := database.ConnectMongo(&cfg.Mongo)
		if err != nil {
			return service.Stores{}, nil, nil, err
		}
		store := mongostore.New(db)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return service.Stores{}, nil, nil, fmt.Errorf("ensure mongo indexes: %w", err)
		}
		checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		return service.Stores{
			Clients:    store.Clients(),
			Developers: store.Developers(),
			Products:   store.Products(),
		}, checks, closeFn, nil

	case config.DriverMemory:
		log.Warn().Msg("using in-memory store - data is lost on restart")
		store := memstore.New()
		return service.Stores{
			Clients:    store.Clients(),
			Developers: store.Developers(),
			Products:   store.Products(),
		}, checks, func() {}, nil
	}

	db, err := database.Connect(&cfg.DB)
	if err != nil {
		return service.Stores{}, nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return service.Stores{}, nil, nil, fmt.Errorf("migration failed: %w", err)
	}
	log.Info().Msg("migrations completed successfully")
	checks["database"] = db.PingContext
	return service.Stores{
		Clients:    repository.NewClientRepository(db),
		Developers: repository.NewDeveloperRepository(db),
		Products:   repository.NewProductRepository(db),
	}, checks, func() { db.Close() }, nil
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	// Run migrations
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

// setupLogger configures the global logger. With LOG_FILE set, output is also
// written to a rotating file.
func setupLogger(env string, cfg *config.LogConfig) func() {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	var out io.Writer = os.Stdout
	if env != "production" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	closeFn := func() {}
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(out, rotator)
		closeFn = func() { _ = rotator.Close() }
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return closeFn
}
