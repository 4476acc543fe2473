package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BradenHooton/skilltrack/internal/auth"
	"github.com/BradenHooton/skilltrack/internal/background"
	"github.com/BradenHooton/skilltrack/internal/config"
	"github.com/BradenHooton/skilltrack/internal/database"
	"github.com/BradenHooton/skilltrack/internal/handlers"
	middlewareCustom "github.com/BradenHooton/skilltrack/internal/middleware"
	"github.com/BradenHooton/skilltrack/internal/repositories"
	"github.com/BradenHooton/skilltrack/internal/routes"
	"github.com/BradenHooton/skilltrack/internal/services"
	pkgauth "github.com/BradenHooton/skilltrack/pkg/auth"
	pkghttp "github.com/BradenHooton/skilltrack/pkg/http"
	pkglogger "github.com/BradenHooton/skilltrack/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), time.Minute)
	err = db.Migrate(migrateCtx)
	migrateCancel()
	if err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	skillRepo := repositories.NewSkillRepository(db)
	skillLogRepo := repositories.NewSkillLogRepository(db)

	// Lockout state lives for the life of the process
	tracker := auth.NewLockoutTracker(auth.LockoutConfig{
		MaxAttempts:  cfg.Lockout.MaxAttempts,
		Window:       cfg.Lockout.Window,
		LockDuration: cfg.Lockout.LockDuration,
	})
	sweeper := background.NewLockoutSweeper(tracker, logger, cfg.Lockout.SweepInterval)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	hasher := pkgauth.NewPasswordHasher(cfg.Auth.BcryptCost)
	auditLogger := pkglogger.NewAuditLogger(logger)

	// Timing delay for failed logins
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelay: cfg.Auth.FailureDelay,
		Jitter:    cfg.Auth.FailureDelayJitter,
	})

	resolver, err := pkghttp.NewIPResolver(cfg.Server.TrustedProxies)
	if err != nil {
		logger.Error("invalid trusted proxy configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize services
	authService := services.NewAuthService(userRepo, hasher, tokenManager, tracker, timingDelay, logger, auditLogger)
	skillService := services.NewSkillService(skillRepo, skillLogRepo, logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, resolver)
	skillHandler := handlers.NewSkillHandler(skillService)

	registerLimit := middlewareCustom.DefaultRegisterRateLimit()
	registerLimit.Requests = cfg.RateLimit.RegisterLimit
	registerLimit.Window = cfg.RateLimit.RegisterWindow

	apiLimit := middlewareCustom.DefaultAPIRateLimit()
	apiLimit.Requests = cfg.RateLimit.APILimit
	apiLimit.Window = cfg.RateLimit.APIWindow

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.CORSOrigin)))
	router.Use(middlewareCustom.SecureLogger(logger, resolver))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	routes.RegisterRoutes(router, routes.Dependencies{
		AuthHandler:   authHandler,
		SkillHandler:  skillHandler,
		TokenVerifier: tokenManager,
		Health:        db,
		Resolver:      resolver,
		RegisterLimit: registerLimit,
		APILimit:      apiLimit,
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		pkghttp.WriteNotFound(w, "Not found")
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start lockout sweeper
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()

	go sweeper.Start(sweepCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	sweeper.Stop()
	sweepCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// parseLevel maps LOG_LEVEL onto slog levels; unknown values log at info
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
