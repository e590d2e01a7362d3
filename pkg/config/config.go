package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// CORSConfig lists the browser origins allowed to call the API
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000,http://localhost:5173"`
}

// AdminBootstrapConfig seeds the first administrator into an empty store
type AdminBootstrapConfig struct {
	Name     string `env:"ADMIN_NAME" env-default:"Administrator"`
	Email    string `env:"ADMIN_EMAIL"`
	Password string `env:"ADMIN_PASSWORD"`
}

// Enabled reports whether an admin should be seeded. Without a password one
// is generated and printed once.
func (a AdminBootstrapConfig) Enabled() bool {
	return a.Email != ""
}

// Config is the full service configuration for cmd/accountd
type Config struct {
	LogLevel           string `env:"LOG_LEVEL" env-default:"info"`
	PhoneDefaultRegion string `env:"PHONE_DEFAULT_REGION" env-default:"US"`

	JWT         JWTConfig
	Persistence PersistenceConfig
	Database    DatabaseConfig
	RateLimit   RateLimitConfig
	Redis       RedisConfig
	CORS        CORSConfig
	Admin       AdminBootstrapConfig
}

// Load reads an optional .env file and then the environment into a Config.
// Variables already set in the environment win over the .env file.
func Load() (Config, error) {
	LoadEnvFile()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings the selected backends depend on
func (c Config) Validate() error {
	validators := []Validator{
		c.JWT.validate,
		c.Persistence.validate,
		c.RateLimit.validate,
	}
	if c.Persistence.Type == PersistencePostgres {
		validators = append(validators, c.Database.validate)
	}
	if c.RateLimit.Enabled && c.RateLimit.Backend == RateLimitRedis {
		validators = append(validators, func() ValidationErrors {
			return CollectErrors(RequireNonEmpty("REDIS_ADDR", c.Redis.Addr))
		})
	}
	if c.Admin.Password != "" {
		validators = append(validators, func() ValidationErrors {
			return CollectErrors(RequireNonEmpty("ADMIN_EMAIL", c.Admin.Email))
		})
	}
	return Validate(validators...)
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
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

// LoadEnvFile loads .env from the working directory, falling back to the
// executable's directory. A missing file is not an error.
func LoadEnvFile() {
	candidates := []string{".env"}
	if execPath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(execPath), ".env"))
	}

	for _, envFile := range candidates {
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			slog.Error("Failed to load .env file", "error", err, "path", envFile)
			return
		}
		slog.Info("Configuration loaded from .env file", "path", envFile)
		return
	}
}
