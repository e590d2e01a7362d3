package tokengenerator

import (
	"time"
)

// Token kinds
const (
	LOGIN_TOKEN_NAME    = "login"
	REGISTER_TOKEN_NAME = "register"
)

// Default token expiry durations. Registration tokens live longer so a new
// account's first session is not cut short.
const (
	DefaultLoginTokenExpiry    = time.Hour
	DefaultRegisterTokenExpiry = 24 * time.Hour
)

// JwtService issues tokens of each kind with its configured lifetime
type JwtService struct {
	Generator TokenGenerator

	LoginTokenExpiry    time.Duration
	RegisterTokenExpiry time.Duration
}

// JwtServiceOption is a function that configures a JwtService
type JwtServiceOption func(*JwtService)

// WithLoginTokenExpiry sets the login token expiry duration
func WithLoginTokenExpiry(expiry time.Duration) JwtServiceOption {
	return func(js *JwtService) {
		if expiry > 0 {
			js.LoginTokenExpiry = expiry
		}
	}
}

// WithRegisterTokenExpiry sets the registration token expiry duration
func WithRegisterTokenExpiry(expiry time.Duration) JwtServiceOption {
	return func(js *JwtService) {
		if expiry > 0 {
			js.RegisterTokenExpiry = expiry
		}
	}
}

// NewJwtService creates a new JwtService
func NewJwtService(generator TokenGenerator, options ...JwtServiceOption) *JwtService {
	js := &JwtService{
		Generator:           generator,
		LoginTokenExpiry:    DefaultLoginTokenExpiry,
		RegisterTokenExpiry: DefaultRegisterTokenExpiry,
	}
	for _, option := range options {
		option(js)
	}
	return js
}

// GenerateToken issues a token of the named kind for subject
func (js *JwtService) GenerateToken(tokenName, subject string) (string, time.Time, error) {
	expiry := js.LoginTokenExpiry
	if tokenName == REGISTER_TOKEN_NAME {
		expiry = js.RegisterTokenExpiry
	}
	return js.Generator.GenerateToken(subject, tokenName, expiry)
}

// ParseToken validates a token of any kind
func (js *JwtService) ParseToken(tokenStr string) (*Claims, error) {
	return js.Generator.ParseToken(tokenStr)
}
