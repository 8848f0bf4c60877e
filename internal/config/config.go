package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"` // empty disables the task list cache
	GinMode     string `env:"GIN_MODE" envDefault:"release"`

	JWTSecret      string        `env:"JWT_SECRET"`                     // Secret key for JWT token signing
	SignupTokenTTL time.Duration `env:"JWT_SIGNUP_TTL" envDefault:"1h"`   // token lifetime handed out at signup
	LoginTokenTTL  time.Duration `env:"JWT_LOGIN_TTL" envDefault:"672h"`  // token lifetime handed out at login (28 days)
	AuthHeader     string        `env:"AUTH_HEADER" envDefault:"Authorization"`
	BcryptCost     int           `env:"BCRYPT_COST" envDefault:"10"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // text or json

	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	DBConnectAttempts uint64        `env:"DB_CONNECT_ATTEMPTS" envDefault:"5"`

	TaskCacheTTL time.Duration `env:"TASK_CACHE_TTL" envDefault:"5m"`

	RateLimitRPS       float64 `env:"RATE_LIMIT_RPS" envDefault:"10"`      // general API (requests per second)
	RateLimitBurst     int     `env:"RATE_LIMIT_BURST" envDefault:"20"`    // burst size for the general API
	RateLimitAuthRPS   float64 `env:"RATE_LIMIT_AUTH_RPS" envDefault:"5"`  // auth endpoints (stricter)
	RateLimitAuthBurst int     `env:"RATE_LIMIT_AUTH_BURST" envDefault:"10"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	return Parse()
}

// Parse builds a Config from the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.SignupTokenTTL <= 0 || c.LoginTokenTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.AuthHeader == "" {
		errs = append(errs, errors.New("AUTH_HEADER must not be empty"))
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("GIN_MODE must be debug, release or test, got %q", c.GinMode))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
