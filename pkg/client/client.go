package client

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/account-idm/pkg/account"
)

// AuthUser is the authenticated caller, loaded from the store on every
// request so role changes take effect without reissuing tokens.
type AuthUser struct {
	UserId   string `json:"user_id,omitempty"`
	UserUuid uuid.UUID
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`

	IsAdmin         bool       `json:"is_admin"`
	IsBusiness      bool       `json:"is_business"`
	IsUser          bool       `json:"is_user"`
	TempAdminExpiry *time.Time `json:"temp_admin_expiry,omitempty"`

	// TokenKind is the kind of token presented (login or register)
	TokenKind string `json:"token_kind,omitempty"`
}

func (i AuthUser) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("user", i.UserId),
		slog.String("email", i.Email),
		slog.Bool("is_admin", i.IsAdmin),
	)
}

// NewAuthUser builds the context identity for acct
func NewAuthUser(acct account.Account, tokenKind string) *AuthUser {
	return &AuthUser{
		UserId:          acct.ID.String(),
		UserUuid:        acct.ID,
		Name:            acct.Name,
		Email:           acct.Email,
		IsAdmin:         acct.IsAdmin,
		IsBusiness:      acct.IsBusiness,
		IsUser:          acct.IsUser,
		TempAdminExpiry: acct.TempAdminExpiry,
		TokenKind:       tokenKind,
	}
}

// IsEffectiveAdmin reports whether the admin flag holds at now. A temporary
// grant whose expiry has passed no longer counts, even before it is swept.
func (i *AuthUser) IsEffectiveAdmin(now time.Time) bool {
	if i == nil {
		return false
	}
	return i.roleView().IsEffectiveAdmin(now)
}

// Roles lists the caller's effective roles at now
func (i *AuthUser) Roles(now time.Time) []string {
	return i.roleView().RoleNames(now)
}

func (i *AuthUser) roleView() account.Account {
	return account.Account{
		IsAdmin:         i.IsAdmin,
		IsBusiness:      i.IsBusiness,
		IsUser:          i.IsUser,
		TempAdminExpiry: i.TempAdminExpiry,
	}
}

// contextKey is a value for use with context.WithValue. It's used as
// a pointer so it fits in an interface{} without allocation.
type contextKey struct {
	name string
}

func (k *contextKey) String() string {
	return "account-idm context value " + k.name
}

var (
	AuthUserKey = &contextKey{"AuthUser"}
)

// WithAuthUser returns a copy of ctx carrying user
func WithAuthUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, AuthUserKey, user)
}

// GetAuthUser returns the caller stored by the auth middleware, if any
func GetAuthUser(r *http.Request) (*AuthUser, bool) {
	user, ok := r.Context().Value(AuthUserKey).(*AuthUser)
	return user, ok && user != nil
}
