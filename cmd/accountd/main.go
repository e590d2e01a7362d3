// Package main runs the account service: registration, login and the
// admin user management API.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/cors"
	"github.com/tendant/chi-demo/app"
	services "github.com/tendant/account-idm/pkg/app"
	"github.com/tendant/account-idm/pkg/bootstrap"
	"github.com/tendant/account-idm/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	svc, err := services.New(ctx, cfg)
	if err != nil {
		slog.Error("Failed to start account service", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	if cfg.Admin.Enabled() {
		result, err := bootstrap.BootstrapAdminUser(ctx, bootstrap.AdminBootstrapConfig{
			AdminName:     cfg.Admin.Name,
			AdminEmail:    cfg.Admin.Email,
			AdminPassword: cfg.Admin.Password,
			Accounts:      svc.Accounts,
			AdminService:  svc.Admin,
		})
		if err != nil {
			slog.Error("Admin bootstrap failed", "error", err)
			os.Exit(1)
		}
		bootstrap.PrintBootstrapResult(os.Stdout, result)
		bootstrap.LogBootstrapSummary(result)
	}

	server := app.DefaultApp()
	server.R.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	app.RoutesHealthz(server.R)
	svc.Routes(server.R)

	slog.Info("Account service ready",
		"persistence", cfg.Persistence.Type,
		"ratelimit", cfg.RateLimit.Enabled,
	)
	server.Run()
}
