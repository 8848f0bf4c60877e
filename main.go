package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"

	"taskboard-be/internal/cache"
	"taskboard-be/internal/config"
	"taskboard-be/internal/controllers"
	"taskboard-be/internal/database"
	"taskboard-be/internal/jwt"
	"taskboard-be/internal/logging"
	"taskboard-be/internal/metrics"
	"taskboard-be/internal/password"
	"taskboard-be/internal/repository"
	"taskboard-be/internal/router"
	"taskboard-be/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "text").WithError(err).Fatal("Invalid configuration")
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(cfg.GinMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	db, err := database.NewConnection(ctx, cfg.DatabaseURL, database.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnectAttempts: cfg.DBConnectAttempts,
		RetryBase:       500 * time.Millisecond,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	// Run database migrations
	if err := database.RunMigrations(ctx, db, logger); err != nil {
		db.Close()
		logger.WithError(err).Fatal("Failed to run migrations")
	}

	// Initialize Redis cache (optional - continue if Redis is unavailable)
	var cacheClient cache.Cache
	if cfg.RedisURL != "" {
		cacheClient, err = cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Warn("Failed to connect to Redis. Continuing without cache.")
			cacheClient = nil
		} else {
			logger.Info("Connected to Redis cache")
		}
	}

	m := metrics.New()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWTSecret)

	// Initialize services
	authService := service.NewAuthService(
		userRepo,
		jwtService,
		password.NewHasher(cfg.BcryptCost),
		service.TokenTTLs{Signup: cfg.SignupTokenTTL, Login: cfg.LoginTokenTTL},
		logger,
		m,
	)
	taskService := service.NewTaskService(taskRepo, cacheClient, cfg.TaskCacheTTL, logger, m)

	engine := router.New(ctx, router.Options{
		AuthController:     controllers.NewAuthController(authService),
		TaskController:     controllers.NewTaskController(taskService),
		Verifier:           jwtService,
		AuthHeader:         cfg.AuthHeader,
		Logger:             logger,
		Metrics:            m,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
		RateLimitAuthRPS:   cfg.RateLimitAuthRPS,
		RateLimitAuthBurst: cfg.RateLimitAuthBurst,
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("addr", server.Addr).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server stopped unexpectedly")
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			// Stores are closed only after in-flight requests have drained.
			"server": func(shutdownCtx context.Context) error {
				logger.Info("Graceful shutdown initiated...")
				err := server.Shutdown(shutdownCtx)
				cancel()
				if cacheClient != nil {
					err = errors.Join(err, cacheClient.Close())
				}
				return errors.Join(err, db.Close())
			},
		},
	)

	exitCode := <-wait
	logger.WithField("exit_code", exitCode).Info("Server exited")
	os.Exit(exitCode)
}
