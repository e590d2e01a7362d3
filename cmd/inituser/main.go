package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	services "github.com/tendant/account-idm/pkg/app"
	"github.com/tendant/account-idm/pkg/config"
	"github.com/tendant/account-idm/pkg/iam"
)

func main() {
	// Parse command line arguments
	name := flag.String("name", "", "Display name for the new user (required)")
	email := flag.String("email", "", "Email for the new user (required)")
	password := flag.String("password", "", "Password for the new user (required)")
	phone := flag.String("phone", "", "Phone number for the new user")
	roleName := flag.String("role", "user", "Role to assign: admin, business or user")
	flag.Parse()

	if *name == "" || *email == "" || *password == "" {
		fmt.Println("Error: name, email and password are required")
		flag.Usage()
		os.Exit(1)
	}

	params := iam.CreateUserParams{
		Name:     *name,
		Email:    *email,
		Password: *password,
		Phone:    *phone,
	}
	switch *roleName {
	case "admin":
		params.IsAdmin = true
	case "business":
		params.IsBusiness = true
	case "user":
	default:
		fmt.Printf("Error: unknown role %q\n", *roleName)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
	}))
	slog.SetDefault(logger)

	// Same environment as cmd/accountd so the user lands in the same store
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.Persistence.Type == config.PersistenceMemory {
		slog.Warn("PERSISTENCE_TYPE is memory; the user will not outlive this command")
	}
	cfg.RateLimit.Enabled = false

	ctx := context.Background()
	svc, err := services.New(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open account store", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	user, err := svc.Admin.CreateUser(ctx, params)
	if err != nil {
		slog.Error("Failed to create user", "email", *email, "error", err)
		svc.Close()
		os.Exit(1)
	}

	slog.Info("User created successfully", "email", user.Email, "role", *roleName, "user_id", user.ID)
}
