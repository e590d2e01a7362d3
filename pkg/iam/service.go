package iam

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/account-idm/pkg/account"
	"github.com/tendant/account-idm/pkg/errors"
	"github.com/tendant/account-idm/pkg/login"
	"golang.org/x/crypto/bcrypt"
)

const (
	msgUserNotFound   = "User not found"
	msgEmailInUse     = "Email already in use"
	msgSelfDelete     = "You cannot delete your own account"
	msgSelfDemote     = "You cannot remove your own admin role"
	defaultSweepLimit = -1
)

// AdminService provides account administration. Callers are expected to be
// effective admins; the HTTP layer enforces that before any method runs.
type AdminService struct {
	repo       account.Repository
	hasher     login.PasswordHasher
	validator  *account.Validator
	reconciler *Reconciler
	now        func() time.Time
	sweepLimit int
}

// Option configures an AdminService
type Option func(*AdminService)

func WithPasswordHasher(hasher login.PasswordHasher) Option {
	return func(s *AdminService) {
		s.hasher = hasher
	}
}

func WithValidator(v *account.Validator) Option {
	return func(s *AdminService) {
		s.validator = v
	}
}

// WithClock replaces time.Now for grant expiry and the lapse sweep
func WithClock(now func() time.Time) Option {
	return func(s *AdminService) {
		s.now = now
	}
}

// WithSweepConcurrency bounds concurrent revocation writes during ListUsers
func WithSweepConcurrency(n int) Option {
	return func(s *AdminService) {
		s.sweepLimit = n
	}
}

// NewAdminService creates a new administration service
func NewAdminService(repo account.Repository, opts ...Option) *AdminService {
	s := &AdminService{
		repo:       repo,
		hasher:     login.NewBcryptHasher(bcrypt.DefaultCost),
		validator:  account.NewValidator("US"),
		now:        time.Now,
		sweepLimit: defaultSweepLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reconciler = NewReconciler(repo, s.sweepLimit)
	return s
}

// CreateUserParams is the administrator-supplied input for a new account.
// IsUser defaults to true when nil.
type CreateUserParams struct {
	Name       string
	Email      string
	Password   string
	Phone      string
	IsAdmin    bool
	IsBusiness bool
	IsUser     *bool
}

// UpdateUserParams holds the fields an administrator may change. Nil fields
// are left untouched.
type UpdateUserParams struct {
	Name       *string
	Email      *string
	Phone      *string
	IsAdmin    *bool
	IsBusiness *bool
	IsUser     *bool
}

// ListUsers returns every account newest first, after revoking lapsed
// temporary grants.
func (s *AdminService) ListUsers(ctx context.Context) ([]account.AdminUser, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.InternalWrap(err, "failed to list accounts")
	}

	now := s.now()
	s.reconciler.Sweep(ctx, accounts, now)

	users := make([]account.AdminUser, 0, len(accounts))
	for _, a := range accounts {
		users = append(users, a.Admin(now))
	}
	return users, nil
}

func (s *AdminService) CreateUser(ctx context.Context, params CreateUserParams) (account.AdminUser, error) {
	in, err := s.validator.ValidateNewAccount(account.NewAccountInput{
		Name:     params.Name,
		Email:    params.Email,
		Password: params.Password,
		Phone:    params.Phone,
	})
	if err != nil {
		return account.AdminUser{}, err
	}

	if _, err := s.repo.FindByEmail(ctx, in.Email); err == nil {
		return account.AdminUser{}, errors.New(errors.ErrCodeUserAlreadyExists, msgEmailInUse)
	} else if !stderrors.Is(err, account.ErrAccountNotFound) {
		return account.AdminUser{}, errors.InternalWrap(err, "failed to look up email")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return account.AdminUser{}, errors.InternalWrap(err, "failed to hash password")
	}

	isUser := true
	if params.IsUser != nil {
		isUser = *params.IsUser
	}

	created, err := s.repo.Create(ctx, account.CreateAccountParams{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        in.Phone,
		IsAdmin:      params.IsAdmin,
		IsBusiness:   params.IsBusiness,
		IsUser:       isUser,
		CreatedAt:    s.now(),
	})
	if err != nil {
		if stderrors.Is(err, account.ErrEmailTaken) {
			return account.AdminUser{}, errors.New(errors.ErrCodeUserAlreadyExists, msgEmailInUse)
		}
		return account.AdminUser{}, errors.InternalWrap(err, "failed to create account")
	}

	slog.Info("Account created by admin", "userId", created.ID, "isAdmin", created.IsAdmin)
	return created.Admin(s.now()), nil
}

// UpdateUser applies the present fields of params to target. isAdmin=false
// also clears a running temporary grant; isAdmin=true leaves its expiry in
// place.
func (s *AdminService) UpdateUser(ctx context.Context, callerID, targetID uuid.UUID, params UpdateUserParams) (account.AdminUser, error) {
	if callerID == targetID && params.IsAdmin != nil && !*params.IsAdmin {
		return account.AdminUser{}, errors.Validation(msgSelfDemote)
	}

	patch, err := s.buildPatch(ctx, targetID, params)
	if err != nil {
		return account.AdminUser{}, err
	}

	updated, err := s.repo.Update(ctx, targetID, patch)
	if err != nil {
		return account.AdminUser{}, s.translate(err, "failed to update account")
	}
	return updated.Admin(s.now()), nil
}

func (s *AdminService) buildPatch(ctx context.Context, targetID uuid.UUID, params UpdateUserParams) (account.Patch, error) {
	patch := account.Patch{
		IsAdmin:    params.IsAdmin,
		IsBusiness: params.IsBusiness,
		IsUser:     params.IsUser,
	}
	// Revoking admin also ends a running grant. Granting it leaves the expiry
	// alone, so a temporary admin cannot extend their own grant.
	if params.IsAdmin != nil && !*params.IsAdmin {
		patch.ClearTempAdminExpiry = true
	}

	if params.Name != nil {
		if err := s.validator.ValidateName(*params.Name); err != nil {
			return patch, err
		}
		name := *params.Name
		patch.Name = &name
	}

	if params.Phone != nil {
		phone, err := s.validator.NormalizePhone(*params.Phone)
		if err != nil {
			return patch, err
		}
		patch.Phone = &phone
	}

	if params.Email != nil {
		email := account.NormalizeEmail(*params.Email)
		if err := s.validator.ValidateEmail(email); err != nil {
			return patch, err
		}
		owner, err := s.repo.FindByEmail(ctx, email)
		switch {
		case err == nil && owner.ID != targetID:
			return patch, errors.New(errors.ErrCodeUserAlreadyExists, msgEmailInUse)
		case err != nil && !stderrors.Is(err, account.ErrAccountNotFound):
			return patch, errors.InternalWrap(err, "failed to look up email")
		}
		patch.Email = &email
	}
	return patch, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, callerID, targetID uuid.UUID) error {
	if callerID == targetID {
		return errors.Validation(msgSelfDelete)
	}
	if err := s.repo.Delete(ctx, targetID); err != nil {
		return s.translate(err, "failed to delete account")
	}
	slog.Info("Account deleted by admin", "userId", targetID, "callerId", callerID)
	return nil
}

// PromoteToBusinessAccount sets isBusiness. Promoting a business account again
// is not an error.
func (s *AdminService) PromoteToBusinessAccount(ctx context.Context, targetID uuid.UUID) (account.AdminUser, error) {
	business := true
	updated, err := s.repo.Update(ctx, targetID, account.Patch{IsBusiness: &business})
	if err != nil {
		return account.AdminUser{}, s.translate(err, "failed to promote account")
	}
	return updated.Admin(s.now()), nil
}

// AssignTempAdminPrivileges grants admin until now plus duration, in one write.
func (s *AdminService) AssignTempAdminPrivileges(ctx context.Context, targetID uuid.UUID, duration string) (account.AdminUser, error) {
	d, err := account.ParseTempAdminDuration(duration)
	if err != nil {
		return account.AdminUser{}, err
	}

	admin := true
	expiry := d.ExpiryFrom(s.now())
	updated, err := s.repo.Update(ctx, targetID, account.Patch{IsAdmin: &admin, TempAdminExpiry: &expiry})
	if err != nil {
		return account.AdminUser{}, s.translate(err, "failed to grant admin")
	}

	slog.Info("Temporary admin granted", "userId", targetID, "duration", d, "expiresAt", expiry)
	return updated.Admin(s.now()), nil
}

func (s *AdminService) translate(err error, msg string) error {
	switch {
	case stderrors.Is(err, account.ErrAccountNotFound):
		return errors.New(errors.ErrCodeUserNotFound, msgUserNotFound)
	case stderrors.Is(err, account.ErrEmailTaken):
		return errors.New(errors.ErrCodeUserAlreadyExists, msgEmailInUse)
	default:
		return errors.InternalWrap(err, msg)
	}
}
