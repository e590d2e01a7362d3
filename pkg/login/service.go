package login

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/account-idm/pkg/account"
	"github.com/tendant/account-idm/pkg/errors"
	"github.com/tendant/account-idm/pkg/tokengenerator"
	"golang.org/x/crypto/bcrypt"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgEmailInUse         = "Email already in use"
	msgUserNotFound       = "User not found"
)

// LoginService handles registration, credential checks and session tokens
type LoginService struct {
	repo      account.Repository
	tokens    *tokengenerator.JwtService
	hasher    PasswordHasher
	validator *account.Validator
	now       func() time.Time

	// compared against when the email is unknown, so both failure paths cost one bcrypt check
	dummyHash string
}

// Option configures a LoginService
type Option func(*LoginService)

// WithPasswordHasher replaces the default bcrypt hasher
func WithPasswordHasher(hasher PasswordHasher) Option {
	return func(s *LoginService) {
		s.hasher = hasher
	}
}

// WithValidator replaces the default (US region) validator
func WithValidator(v *account.Validator) Option {
	return func(s *LoginService) {
		s.validator = v
	}
}

// WithClock replaces time.Now for lastLogin and effective role computation
func WithClock(now func() time.Time) Option {
	return func(s *LoginService) {
		s.now = now
	}
}

// NewLoginService creates a LoginService over repo, issuing tokens from tokens
func NewLoginService(repo account.Repository, tokens *tokengenerator.JwtService, opts ...Option) *LoginService {
	s := &LoginService{
		repo:      repo,
		tokens:    tokens,
		hasher:    NewBcryptHasher(bcrypt.DefaultCost),
		validator: account.NewValidator("US"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if hash, err := s.hasher.Hash("account-idm-timing-equalizer"); err == nil {
		s.dummyHash = hash
	}
	return s
}

// RegisterParams is the self-service registration input
type RegisterParams struct {
	Name       string
	Email      string
	Password   string
	Phone      string
	IsBusiness bool
}

// AuthResult is returned by Register and Login
type AuthResult struct {
	User      account.PublicUser `json:"user"`
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"-"`
}

// Register validates the input, creates a regular user and issues a
// registration token bound to the new account.
func (s *LoginService) Register(ctx context.Context, params RegisterParams) (AuthResult, error) {
	in, err := s.validator.ValidateNewAccount(account.NewAccountInput{
		Name:     params.Name,
		Email:    params.Email,
		Password: params.Password,
		Phone:    params.Phone,
	})
	if err != nil {
		return AuthResult{}, err
	}

	if _, err := s.repo.FindByEmail(ctx, in.Email); err == nil {
		return AuthResult{}, errors.New(errors.ErrCodeUserAlreadyExists, msgEmailInUse)
	} else if !stderrors.Is(err, account.ErrAccountNotFound) {
		return AuthResult{}, errors.InternalWrap(err, "failed to look up email")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return AuthResult{}, errors.InternalWrap(err, "failed to hash password")
	}

	created, err := s.repo.Create(ctx, account.CreateAccountParams{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        in.Phone,
		IsBusiness:   params.IsBusiness,
		IsUser:       true,
		CreatedAt:    s.now(),
	})
	if err != nil {
		// lost a race with a concurrent registration
		if stderrors.Is(err, account.ErrEmailTaken) {
			return AuthResult{}, errors.New(errors.ErrCodeUserAlreadyExists, msgEmailInUse)
		}
		return AuthResult{}, errors.InternalWrap(err, "failed to create account")
	}

	token, expiresAt, err := s.tokens.GenerateToken(tokengenerator.REGISTER_TOKEN_NAME, created.ID.String())
	if err != nil {
		return AuthResult{}, errors.InternalWrap(err, "failed to issue token")
	}

	slog.Info("Account registered", "userId", created.ID, "isBusiness", created.IsBusiness)
	return AuthResult{User: created.Public(s.now()), Token: token, ExpiresAt: expiresAt}, nil
}

// Login checks credentials, records presence and issues a login token. Unknown
// email and wrong password fail with the same error.
func (s *LoginService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	acct, err := s.authenticate(ctx, email, password)
	if err != nil {
		return AuthResult{}, err
	}

	now := s.now()
	online := true
	updated, err := s.repo.Update(ctx, acct.ID, account.Patch{LastLogin: &now, IsOnline: &online})
	if err != nil {
		slog.Error("Failed to record login", "error", err, "userId", acct.ID)
	} else {
		acct = updated
	}

	token, expiresAt, err := s.tokens.GenerateToken(tokengenerator.LOGIN_TOKEN_NAME, acct.ID.String())
	if err != nil {
		return AuthResult{}, errors.InternalWrap(err, "failed to issue token")
	}

	return AuthResult{User: acct.Public(now), Token: token, ExpiresAt: expiresAt}, nil
}

// VerifyPassword re-checks the caller's own credentials without issuing a
// token. An email that is not the caller's fails like a wrong password.
func (s *LoginService) VerifyPassword(ctx context.Context, callerID uuid.UUID, email, password string) (bool, error) {
	email, err := s.validator.ValidateCredentials(email, password)
	if err != nil {
		return false, err
	}

	acct, err := s.repo.FindByID(ctx, callerID)
	if err != nil {
		if !stderrors.Is(err, account.ErrAccountNotFound) {
			return false, errors.InternalWrap(err, "failed to look up account")
		}
		return false, s.rejectCredentials(password)
	}
	if acct.Email != email {
		slog.Warn("Password verification for another account's email", "userId", callerID)
		return false, s.rejectCredentials(password)
	}
	if err := s.checkPassword(acct, password); err != nil {
		return false, err
	}
	return true, nil
}

func (s *LoginService) authenticate(ctx context.Context, email, password string) (account.Account, error) {
	email, err := s.validator.ValidateCredentials(email, password)
	if err != nil {
		return account.Account{}, err
	}

	acct, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if !stderrors.Is(err, account.ErrAccountNotFound) {
			return account.Account{}, errors.InternalWrap(err, "failed to look up account")
		}
		return account.Account{}, s.rejectCredentials(password)
	}
	if err := s.checkPassword(acct, password); err != nil {
		return account.Account{}, err
	}
	return acct, nil
}

func (s *LoginService) checkPassword(acct account.Account, password string) error {
	ok, err := s.hasher.Verify(password, acct.PasswordHash)
	if err != nil {
		slog.Error("Failed to verify password hash", "error", err, "userId", acct.ID)
	}
	if !ok {
		return errors.New(errors.ErrCodeInvalidCredentials, msgInvalidCredentials)
	}
	return nil
}

// rejectCredentials spends one hash comparison so a missing account costs
// the same as a wrong password.
func (s *LoginService) rejectCredentials(password string) error {
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(password, s.dummyHash)
	}
	return errors.New(errors.ErrCodeInvalidCredentials, msgInvalidCredentials)
}

// Logout marks the account offline. It never fails: the token is discarded
// by the client and the presence flag is advisory.
func (s *LoginService) Logout(ctx context.Context, id uuid.UUID) {
	offline := false
	if _, err := s.repo.Update(ctx, id, account.Patch{IsOnline: &offline}); err != nil {
		slog.Warn("Failed to mark account offline", "error", err, "userId", id)
	}
}

// Me returns the caller's own projection
func (s *LoginService) Me(ctx context.Context, id uuid.UUID) (account.PublicUser, error) {
	acct, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, account.ErrAccountNotFound) {
			return account.PublicUser{}, errors.New(errors.ErrCodeUserNotFound, msgUserNotFound)
		}
		return account.PublicUser{}, errors.InternalWrap(err, "failed to load account")
	}
	return acct.Public(s.now()), nil
}
