// Package login provides password-based registration and session tokens.
//
// # Overview
//
// The login package provides:
//   - Self-service registration of regular and business accounts
//   - Login by email and password, recording last login and presence
//   - Logout, which marks the account offline
//   - Re-verification of the caller's password without a new token
//   - The caller's own public projection (Me)
//
// Passwords are hashed with bcrypt through the PasswordHasher interface.
// Tokens are issued by tokengenerator.JwtService: registration tokens use the
// register expiry window and login tokens the shorter login window.
//
// # Basic Usage
//
//	import "github.com/tendant/account-idm/pkg/login"
//
//	tokens := tokengenerator.NewJwtService(
//		tokengenerator.NewJwtTokenGenerator(cfg.JWT.Secret, cfg.JWT.Issuer),
//	)
//	service := login.NewLoginService(repo, tokens)
//
//	result, err := service.Login(ctx, "user@example.com", "s3cret-pass!")
//	if err != nil {
//		// errors.IsCode(err, errors.ErrCodeInvalidCredentials) for a bad email or password
//	}
//
// # Credential failures
//
// An unknown email and a wrong password fail with the same
// INVALID_CREDENTIALS error and both spend one bcrypt comparison.
//
// # HTTP
//
// The api subpackage mounts the /auth routes on a chi router.
package login
