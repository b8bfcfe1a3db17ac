package main

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"

	"usermanager/internal/auth"
	"usermanager/internal/config"
	"usermanager/internal/db"
	"usermanager/internal/logger"
	"usermanager/internal/model"
	"usermanager/internal/repository"
	"usermanager/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadSeed(ctx, envconfig.OsLookuper())
	if err != nil {
		l := logger.Init(logger.Options{Service: "seed"})
		l.Fatal().Err(err).Msg("load config")
	}
	log := logger.Init(logger.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, Service: "seed"})

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := db.Migrate(gormDB, false, log); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	users := service.NewUserService(repository.NewUserRepository(gormDB), auth.NewBcryptHasher(cfg.BcryptCost))

	created, err := seedAdmin(ctx, users, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin")
	}
	log.Info().Str("email", cfg.AdminEmail).Bool("created", created).Msg("seed completed")
}

// seedAdmin creates the admin account, or promotes an existing account with the
// same email. It reports whether a new record was created.
func seedAdmin(ctx context.Context, users service.UserService, cfg *config.SeedConfig) (bool, error) {
	existing, err := users.FindOneByEmail(ctx, cfg.AdminEmail)
	if err != nil {
		return false, fmt.Errorf("look up %s: %w", cfg.AdminEmail, err)
	}

	if existing != nil {
		if existing.Role == model.RoleAdmin {
			return false, nil
		}
		role := model.RoleAdmin
		if _, err := users.Update(ctx, existing.ID, service.UpdateUserInput{Role: &role}); err != nil {
			return false, fmt.Errorf("promote %s: %w", cfg.AdminEmail, err)
		}
		return false, nil
	}

	if _, err := users.Create(ctx, service.CreateUserInput{
		Name:     cfg.AdminName,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Role:     model.RoleAdmin,
	}); err != nil {
		return false, fmt.Errorf("create %s: %w", cfg.AdminEmail, err)
	}
	return true, nil
}
