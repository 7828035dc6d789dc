package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/relgraph-inc/relgraph-engine/pkg/auth"
	"github.com/relgraph-inc/relgraph-engine/pkg/config"
	"github.com/relgraph-inc/relgraph-engine/pkg/database"
	"github.com/relgraph-inc/relgraph-engine/pkg/handlers"
	"github.com/relgraph-inc/relgraph-engine/pkg/logging"
	"github.com/relgraph-inc/relgraph-engine/pkg/middleware"
	"github.com/relgraph-inc/relgraph-engine/pkg/ratelimit"
	"github.com/relgraph-inc/relgraph-engine/pkg/render"
	"github.com/relgraph-inc/relgraph-engine/pkg/repositories"
	"github.com/relgraph-inc/relgraph-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

// Per-route rate limit policies. Login is tightest; edge deletion next, since
// both are the abuse-prone operations.
var (
	addNodePolicy    = ratelimit.Policy{Window: time.Minute, Limit: 30}
	addEdgePolicy    = ratelimit.Policy{Window: time.Minute, Limit: 50}
	deleteEdgePolicy = ratelimit.Policy{Window: time.Minute, Limit: 20}
	loginPolicy      = ratelimit.Policy{Window: time.Minute, Limit: 10}
)

func main() {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.Bool("render_disabled", cfg.Render.Disabled))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database is required; there is no degraded mode without it.
	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database.ConnectionString(), cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	personRepo := repositories.NewPersonRepository(db)
	relationRepo := repositories.NewRelationRepository(db)
	backgroundRepo := repositories.NewBackgroundRepository(db)

	graphService := services.NewGraphService(personRepo, relationRepo, backgroundRepo, logger)

	sessions := auth.NewManager(auth.NewMemorySessionStore(),
		cfg.Auth.AdminUsername, cfg.Auth.AdminPassword, cfg.Auth.SessionTTL(), logger)
	sessions.StartSweeper(ctx, cfg.Auth.SweepInterval())

	authMiddleware := auth.NewMiddleware(cfg.Auth.APIKey, sessions, logger)

	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore())
	limit := func(p ratelimit.Policy) func(http.HandlerFunc) http.HandlerFunc {
		return ratelimit.Middleware(limiter, p, logger)
	}

	var renderer render.Renderer
	if !cfg.Render.Disabled {
		renderer = render.NewChromeRenderer(
			cfg.Render.ViewportWidth, cfg.Render.ViewportHeight,
			cfg.Render.DeviceScaleFactor, cfg.Render.LayoutWait(), logger)
	}

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewPersonHandler(graphService, logger).RegisterRoutes(mux, authMiddleware, limit(addNodePolicy))
	handlers.NewRelationHandler(graphService, logger).RegisterRoutes(mux, authMiddleware, limit(addEdgePolicy), limit(deleteEdgePolicy))
	handlers.NewGraphHandler(graphService, logger).RegisterRoutes(mux)
	handlers.NewBackgroundHandler(graphService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewAdminHandler(sessions, logger).RegisterRoutes(mux, authMiddleware, limit(loginPolicy))
	handlers.NewRenderHandler(graphService, renderer, cfg.Render.Disabled, logger).RegisterRoutes(mux)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", auth.APIKeyHeader, auth.SessionHeader},
	})

	var handler http.Handler = mux
	handler = middleware.Recover(logger)(handler)
	handler = middleware.RequestLogger(logger)(handler)
	handler = middleware.RequestID(handler)
	handler = corsMiddleware.Handler(handler)

	addr := cfg.BindAddr + ":" + cfg.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Render routes hold the connection while Chrome works.
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Starting relgraph-engine",
			zap.String("addr", addr), zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
