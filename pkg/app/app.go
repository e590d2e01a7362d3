// Package app assembles the account services from configuration and mounts
// their HTTP routes.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"
	dbutils "github.com/tendant/db-utils/db"
	"github.com/tendant/account-idm/pkg/account"
	"github.com/tendant/account-idm/pkg/client"
	"github.com/tendant/account-idm/pkg/config"
	"github.com/tendant/account-idm/pkg/iam"
	iamapi "github.com/tendant/account-idm/pkg/iam/api"
	"github.com/tendant/account-idm/pkg/login"
	loginapi "github.com/tendant/account-idm/pkg/login/api"
	"github.com/tendant/account-idm/pkg/ratelimit"
	"github.com/tendant/account-idm/pkg/tokengenerator"
)

// Services holds every wired component of the account service
type Services struct {
	Accounts account.Repository
	Tokens   *tokengenerator.JwtService
	Login    *login.LoginService
	Admin    *iam.AdminService
	Guard    *client.Guard
	Throttle func(http.Handler) http.Handler // nil when rate limiting is off

	closers []func() error
}

// Option adjusts the services New builds
type Option func(*options)

type options struct {
	hasher login.PasswordHasher
}

// WithPasswordHasher replaces the default bcrypt hasher for both the login and
// admin services.
func WithPasswordHasher(hasher login.PasswordHasher) Option {
	return func(o *options) {
		o.hasher = hasher
	}
}

// New opens the configured store and builds the services on top of it.
// Close releases what New opened.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Services, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	s := &Services{}

	repo, err := s.openRepository(ctx, cfg)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to open %s account store: %w", cfg.Persistence.Type, err)
	}
	s.Accounts = repo

	loginExpiry, err := cfg.JWT.ParseLoginTokenExpiry()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("invalid LOGIN_TOKEN_EXPIRY: %w", err)
	}
	registerExpiry, err := cfg.JWT.ParseRegisterTokenExpiry()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("invalid REGISTER_TOKEN_EXPIRY: %w", err)
	}

	if cfg.JWT.UsesDefaultSecret() {
		slog.Warn("JWT_SECRET is not set; tokens are signed with the public default secret and can be forged. Set JWT_SECRET before exposing this service.")
	}

	s.Tokens = tokengenerator.NewJwtService(
		tokengenerator.NewJwtTokenGenerator(cfg.JWT.Secret, cfg.JWT.Issuer),
		tokengenerator.WithLoginTokenExpiry(loginExpiry),
		tokengenerator.WithRegisterTokenExpiry(registerExpiry),
	)

	validator := account.NewValidator(cfg.PhoneDefaultRegion)
	loginOpts := []login.Option{login.WithValidator(validator)}
	adminOpts := []iam.Option{iam.WithValidator(validator)}
	if o.hasher != nil {
		loginOpts = append(loginOpts, login.WithPasswordHasher(o.hasher))
		adminOpts = append(adminOpts, iam.WithPasswordHasher(o.hasher))
	}

	s.Login = login.NewLoginService(repo, s.Tokens, loginOpts...)
	s.Admin = iam.NewAdminService(repo, adminOpts...)
	s.Guard = client.NewGuard(s.Tokens, repo)

	if cfg.RateLimit.Enabled {
		limiter, closeLimiter, err := ratelimit.NewFromConfig(ctx, cfg.RateLimit, cfg.Redis)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, closeLimiter)
		s.Throttle = ratelimit.NewMiddleware(limiter, cfg.RateLimit.IncludeHeaders).Handler
		slog.Info("Rate limiting enabled", "backend", cfg.RateLimit.Backend)
	}

	return s, nil
}

// Routes mounts /auth and the admin-only /admin API on r
func (s *Services) Routes(r chi.Router) {
	var loginOpts []loginapi.Option
	if s.Throttle != nil {
		loginOpts = append(loginOpts, loginapi.WithThrottle(s.Throttle))
	}

	r.Route("/auth", loginapi.NewHandler(s.Login, s.Guard, loginOpts...).RegisterRoutes)
	r.Mount("/admin", iamapi.SecureHandler(iamapi.NewHandler(s.Admin), s.Guard))
}

// Close releases connections in reverse order of opening
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

func (s *Services) openRepository(ctx context.Context, cfg config.Config) (account.Repository, error) {
	repoCfg := account.RepositoryConfig{DataDir: cfg.Persistence.DataDir}

	switch cfg.Persistence.Type {
	case config.PersistencePostgres:
		dbConfig := cfg.Database.ToDbConfig()
		pool, err := dbutils.NewDbPool(ctx, dbConfig)
		if err != nil {
			slog.Error("Failed creating dbpool", "db", dbConfig.Database, "host", dbConfig.Host, "port", dbConfig.Port, "user", dbConfig.User)
			return nil, err
		}
		s.closers = append(s.closers, func() error {
			pool.Close()
			return nil
		})
		repoCfg.Pool = pool
	case config.PersistenceSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Persistence.SQLitePath), 0o755); err != nil {
			return nil, err
		}
		db, err := sql.Open("sqlite3", cfg.Persistence.SQLitePath)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db.Close)
		repoCfg.SQLite = db
	}

	return account.NewRepository(ctx, cfg.Persistence.Type, repoCfg)
}
