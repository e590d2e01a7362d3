package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tendant/account-idm/pkg/account"
	"github.com/tendant/account-idm/pkg/iam"
)

// AccountCounter reports how many accounts exist
type AccountCounter interface {
	Count(ctx context.Context) (int, error)
}

// AdminBootstrapConfig contains configuration for creating the first admin
type AdminBootstrapConfig struct {
	// Admin credentials (from ADMIN_NAME, ADMIN_EMAIL, ADMIN_PASSWORD).
	// An empty password is generated.
	AdminName     string
	AdminEmail    string
	AdminPassword string

	// Service dependencies
	Accounts     AccountCounter
	AdminService *iam.AdminService
}

// AdminBootstrapResult contains the result of admin bootstrap operation
type AdminBootstrapResult struct {
	UserID      uuid.UUID
	Name        string
	Email       string
	Password    string // Only populated if auto-generated
	UserCreated bool   // true if user was created, false if skipped

	// Password was provided via environment variable or flag
	PasswordFromEnv bool
}

// BootstrapAdminUser creates the first admin account when the store is empty.
// It does nothing if any account exists.
func BootstrapAdminUser(ctx context.Context, cfg AdminBootstrapConfig) (*AdminBootstrapResult, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid bootstrap configuration: %w", err)
	}

	count, err := cfg.Accounts.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check if accounts exist: %w", err)
	}
	if count > 0 {
		slog.Info("Accounts already exist - skipping admin bootstrap", "count", count)
		return &AdminBootstrapResult{UserCreated: false}, nil
	}

	password := cfg.AdminPassword
	if password == "" {
		password = generatePassword()
	}

	name := cfg.AdminName
	if name == "" {
		name = "Administrator"
	}

	created, err := cfg.AdminService.CreateUser(ctx, iam.CreateUserParams{
		Name:     name,
		Email:    cfg.AdminEmail,
		Password: password,
		IsAdmin:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create admin user: %w", err)
	}

	result := &AdminBootstrapResult{
		UserID:          created.ID,
		Name:            created.Name,
		Email:           created.Email,
		UserCreated:     true,
		PasswordFromEnv: cfg.AdminPassword != "",
	}
	if !result.PasswordFromEnv {
		result.Password = password
	}

	slog.Info("Admin bootstrap completed successfully", "user_id", result.UserID, "email", result.Email)
	return result, nil
}

func validateConfig(cfg AdminBootstrapConfig) error {
	if cfg.AdminEmail == "" {
		return fmt.Errorf("admin email is required")
	}
	if cfg.Accounts == nil {
		return fmt.Errorf("Accounts is required")
	}
	if cfg.AdminService == nil {
		return fmt.Errorf("AdminService is required")
	}
	if cfg.AdminPassword != "" {
		if err := account.ValidatePassword(cfg.AdminPassword); err != nil {
			return err
		}
	}
	return nil
}

// generatePassword returns a random password that satisfies the password
// rules: a v4 UUID is 36 characters and always contains '-'.
func generatePassword() string {
	return uuid.NewString()
}
