// Package config loads the account service configuration from the
// environment.
//
// Settings are plain structs with cleanenv `env` and `env-default` tags.
// Load reads an optional .env file first (godotenv never overrides variables
// already set) and then the process environment:
//
//	cfg, err := config.Load()
//	if err != nil {
//		slog.Error("Failed to read configuration", "error", err)
//		os.Exit(1)
//	}
//	if err := cfg.Validate(); err != nil {
//		slog.Error("Invalid configuration", "error", err)
//		os.Exit(1)
//	}
//
// Token lifetimes accept ISO 8601 durations as well as Go durations, so
// LOGIN_TOKEN_EXPIRY=PT1H and LOGIN_TOKEN_EXPIRY=1h are equivalent.
//
// Validate only checks the sections the selected backends use; for example
// the IDM_PG_* variables are ignored unless PERSISTENCE_TYPE=postgres.
package config
