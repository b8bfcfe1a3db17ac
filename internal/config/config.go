package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
	"golang.org/x/crypto/bcrypt"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort  string `env:"SERVER_PORT, default=8080"`
	MySQLDSN    string `env:"MYSQL_DSN, default=user:password@tcp(localhost:3306)/app?charset=utf8mb4&parseTime=True&loc=Local"`
	SwaggerHost string `env:"SWAGGER_HOST"`
	ResetDB     bool   `env:"RESET_DB, default=false"`

	JWT   JWTConfig
	Redis RedisConfig
	Log   LogConfig

	BcryptCost int `env:"BCRYPT_COST, default=10"`
}

// JWTConfig controls token signing.
type JWTConfig struct {
	Secret    string        `env:"JWT_SECRET"`
	ExpiresIn time.Duration `env:"JWT_EXPIRES_IN, default=1h"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL, default=info"`
	Pretty bool   `env:"LOG_PRETTY, default=false"`
}

// Load builds Config from the process environment and validates it.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith builds Config from the given lookuper. Tests use envconfig.MapLookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot safely start with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWT.ExpiresIn <= 0 {
		errs = append(errs, fmt.Errorf("JWT_EXPIRES_IN must be positive, got %s", c.JWT.ExpiresIn))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.MySQLDSN == "" {
		errs = append(errs, errors.New("MYSQL_DSN is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.ServerPort
}

// SeedConfig drives cmd/seed.
type SeedConfig struct {
	MySQLDSN   string `env:"MYSQL_DSN, default=user:password@tcp(localhost:3306)/app?charset=utf8mb4&parseTime=True&loc=Local"`
	BcryptCost int    `env:"BCRYPT_COST, default=10"`
	Log        LogConfig

	AdminName     string `env:"SEED_ADMIN_NAME, default=Administrador"`
	AdminEmail    string `env:"SEED_ADMIN_EMAIL, required"`
	AdminPassword string `env:"SEED_ADMIN_PASSWORD, required"`
}

// LoadSeed builds SeedConfig from the given lookuper.
func LoadSeed(ctx context.Context, l envconfig.Lookuper) (*SeedConfig, error) {
	var cfg SeedConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("seed config: %w", err)
	}
	return &cfg, nil
}

// ClientConfig drives cmd/userctl.
type ClientConfig struct {
	BaseURL   string        `env:"USERCTL_URL, default=http://localhost:8080/api"`
	TokenFile string        `env:"USERCTL_TOKEN_FILE"`
	Timeout   time.Duration `env:"USERCTL_TIMEOUT, default=10s"`
}

// LoadClient builds ClientConfig from the given lookuper.
func LoadClient(ctx context.Context, l envconfig.Lookuper) (*ClientConfig, error) {
	var cfg ClientConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("client config: %w", err)
	}
	return &cfg, nil
}
