package config

import (
	"time"

	"github.com/sosodev/duration"
)

// DefaultJWTSecret is the JWT_SECRET used when none is configured. It is
// public, so tokens signed with it can be forged.
const DefaultJWTSecret = "very-secure-jwt-secret"

// JWTConfig holds session token settings
type JWTConfig struct {
	Secret              string `env:"JWT_SECRET" env-default:"very-secure-jwt-secret"`
	Issuer              string `env:"JWT_ISSUER" env-default:"account-idm"`
	LoginTokenExpiry    string `env:"LOGIN_TOKEN_EXPIRY" env-default:"1h"`
	RegisterTokenExpiry string `env:"REGISTER_TOKEN_EXPIRY" env-default:"24h"`
}

// ParseLoginTokenExpiry parses the lifetime of tokens issued by login
func (j JWTConfig) ParseLoginTokenExpiry() (time.Duration, error) {
	return parseDurationISO8601(j.LoginTokenExpiry)
}

// ParseRegisterTokenExpiry parses the lifetime of tokens issued by registration
func (j JWTConfig) ParseRegisterTokenExpiry() (time.Duration, error) {
	return parseDurationISO8601(j.RegisterTokenExpiry)
}

// UsesDefaultSecret reports whether tokens would be signed with DefaultJWTSecret
func (j JWTConfig) UsesDefaultSecret() bool {
	return j.Secret == DefaultJWTSecret
}

func (j JWTConfig) validate() ValidationErrors {
	return CollectErrors(
		RequireNonEmpty("JWT_SECRET", j.Secret),
		RequireNonEmpty("JWT_ISSUER", j.Issuer),
		RequireDuration("LOGIN_TOKEN_EXPIRY", j.LoginTokenExpiry),
		RequireDuration("REGISTER_TOKEN_EXPIRY", j.RegisterTokenExpiry),
	)
}

// parseDurationISO8601 tries to parse duration as ISO8601 first, then Go duration
func parseDurationISO8601(s string) (time.Duration, error) {
	isoDuration, err := duration.Parse(s)
	if err == nil {
		return isoDuration.ToTimeDuration(), nil
	}
	return time.ParseDuration(s)
}
