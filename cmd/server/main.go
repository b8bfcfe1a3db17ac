package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"usermanager/internal/auth"
	"usermanager/internal/cache"
	"usermanager/internal/config"
	"usermanager/internal/db"
	"usermanager/internal/handler"
	"usermanager/internal/logger"
	"usermanager/internal/policy"
	"usermanager/internal/repository"
	"usermanager/internal/router"
	"usermanager/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title User Manager API
// @version 1.0
// @description User management API with JWT authentication and role-based policies.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// logger is not configured yet
		l := logger.Init(logger.Options{Service: "usermanager"})
		l.Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.Log.Level,
		Pretty:  cfg.Log.Pretty,
		Service: "usermanager",
	})

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database init")
	}
	if err := db.Migrate(gormDB, cfg.ResetDB, log); err != nil {
		log.Fatal().Err(err).Msg("database migrate")
	}

	cacheClient := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
	defer cacheClient.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)

	// Initialize auth components
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiresIn)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	userService := service.NewUserService(userRepo, hasher)
	authService := service.NewAuthService(userService, hasher, jwtService, tokenStore, log)

	policies := policy.DefaultRegistry()

	e := echo.New()
	router.Register(e, cfg, router.Deps{
		Log:         log,
		AuthService: authService,
		Policies:    policies,
		User:        handler.NewUserHandler(userService, policies),
		Auth:        handler.NewAuthHandler(authService, userService),
		Health:      handler.NewHealthHandler(gormDB, cacheClient),
	})

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server start")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("stopped")
}
