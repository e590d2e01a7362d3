package client

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/tendant/account-idm/pkg/account"
	"github.com/tendant/account-idm/pkg/errors"
	"github.com/tendant/account-idm/pkg/tokengenerator"
)

const (
	msgNoToken      = "No token provided"
	msgInvalidToken = "Invalid token"
	msgUserNotFound = "User not found"
	msgAdminOnly    = "Access denied. Admins only"
)

// TokenParser validates bearer tokens
type TokenParser interface {
	ParseToken(tokenStr string) (*tokengenerator.Claims, error)
}

// AccountFinder loads the account a token names
type AccountFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (account.Account, error)
}

// Guard authenticates requests and enforces the admin role
type Guard struct {
	tokens   TokenParser
	accounts AccountFinder
	now      func() time.Time
}

// GuardOption configures a Guard
type GuardOption func(*Guard)

// WithClock replaces time.Now for effective admin checks
func WithClock(now func() time.Time) GuardOption {
	return func(g *Guard) {
		g.now = now
	}
}

func NewGuard(tokens TokenParser, accounts AccountFinder, opts ...GuardOption) *Guard {
	g := &Guard{
		tokens:   tokens,
		accounts: accounts,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AuthMiddleware requires a valid bearer token naming an existing account.
// Returns 401 Unauthorized otherwise.
func (g *Guard) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := g.authenticate(r)
		if err != nil {
			errors.RenderError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithAuthUser(r.Context(), user)))
	})
}

func (g *Guard) authenticate(r *http.Request) (*AuthUser, error) {
	tokenStr := jwtauth.TokenFromHeader(r)
	if tokenStr == "" {
		slog.Debug("Missing bearer token", "path", r.URL.Path)
		return nil, errors.Unauthorized(msgNoToken)
	}

	claims, err := g.tokens.ParseToken(tokenStr)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.New(errors.ErrCodeTokenInvalid, msgInvalidToken)
	}

	acct, err := g.accounts.FindByID(r.Context(), id)
	if err != nil {
		if stderrors.Is(err, account.ErrAccountNotFound) {
			slog.Info("Token names a missing account", "userId", id)
			return nil, errors.Unauthorized(msgUserNotFound)
		}
		return nil, errors.InternalWrap(err, "failed to load account")
	}
	return NewAuthUser(acct, claims.Kind), nil
}

// RequireAdmin returns 403 Forbidden unless the caller is an effective admin
// at request time. Returns 401 Unauthorized if not authenticated.
// Must be used after AuthMiddleware.
func (g *Guard) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetAuthUser(r)
		if !ok {
			errors.RenderError(w, r, errors.Unauthorized(msgNoToken))
			return
		}

		if !user.IsEffectiveAdmin(g.now()) {
			slog.Warn("User lacks admin role",
				"userId", user.UserId,
				"userRoles", user.Roles(g.now()))
			errors.RenderError(w, r, errors.Forbidden(msgAdminOnly))
			return
		}

		next.ServeHTTP(w, r)
	})
}
