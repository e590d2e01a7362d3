package account

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Account is the persisted user record. PasswordHash never leaves the
// service layer; handlers serialize PublicUser or AdminUser instead.
type Account struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	Phone           string     `json:"phone,omitempty"`
	IsAdmin         bool       `json:"isAdmin"`
	IsBusiness      bool       `json:"isBusiness"`
	IsUser          bool       `json:"isUser"`
	TempAdminExpiry *time.Time `json:"tempAdminExpiry,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	LastLogin       *time.Time `json:"lastLogin,omitempty"`
	IsOnline        bool       `json:"isOnline"`
}

// CreateAccountParams contains parameters for creating a new account
type CreateAccountParams struct {
	Name         string
	Email        string
	PasswordHash string
	Phone        string
	IsAdmin      bool
	IsBusiness   bool
	IsUser       bool
	CreatedAt    time.Time
}

// Patch lists the fields of a single-account update. Nil fields are left
// untouched. TempAdminExpiry sets a grant expiry; ClearTempAdminExpiry
// removes it and wins if both are given.
type Patch struct {
	Name                 *string
	Email                *string
	Phone                *string
	IsAdmin              *bool
	IsBusiness           *bool
	IsUser               *bool
	TempAdminExpiry      *time.Time
	ClearTempAdminExpiry bool
	LastLogin            *time.Time
	IsOnline             *bool
}

// IsEmpty reports whether the patch changes nothing
func (p Patch) IsEmpty() bool {
	return len(p.assignments()) == 0
}

// Apply copies the patch onto a.
func (p Patch) Apply(a *Account) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Email != nil {
		a.Email = *p.Email
	}
	if p.Phone != nil {
		a.Phone = *p.Phone
	}
	if p.IsAdmin != nil {
		a.IsAdmin = *p.IsAdmin
	}
	if p.IsBusiness != nil {
		a.IsBusiness = *p.IsBusiness
	}
	if p.IsUser != nil {
		a.IsUser = *p.IsUser
	}
	if p.ClearTempAdminExpiry {
		a.TempAdminExpiry = nil
	} else if p.TempAdminExpiry != nil {
		t := *p.TempAdminExpiry
		a.TempAdminExpiry = &t
	}
	if p.LastLogin != nil {
		t := *p.LastLogin
		a.LastLogin = &t
	}
	if p.IsOnline != nil {
		a.IsOnline = *p.IsOnline
	}
}

type assignment struct {
	column string
	value  any
}

// assignments renders the patch as column/value pairs for the SQL stores.
// An empty phone and a cleared expiry are written as NULL.
func (p Patch) assignments() []assignment {
	var out []assignment
	if p.Name != nil {
		out = append(out, assignment{"name", *p.Name})
	}
	if p.Email != nil {
		out = append(out, assignment{"email", *p.Email})
	}
	if p.Phone != nil {
		out = append(out, assignment{"phone", nullableString(*p.Phone)})
	}
	if p.IsAdmin != nil {
		out = append(out, assignment{"is_admin", *p.IsAdmin})
	}
	if p.IsBusiness != nil {
		out = append(out, assignment{"is_business", *p.IsBusiness})
	}
	if p.IsUser != nil {
		out = append(out, assignment{"is_user", *p.IsUser})
	}
	if p.ClearTempAdminExpiry {
		out = append(out, assignment{"temp_admin_expiry", nil})
	} else if p.TempAdminExpiry != nil {
		out = append(out, assignment{"temp_admin_expiry", p.TempAdminExpiry.UTC()})
	}
	if p.LastLogin != nil {
		out = append(out, assignment{"last_login", p.LastLogin.UTC()})
	}
	if p.IsOnline != nil {
		out = append(out, assignment{"is_online", *p.IsOnline})
	}
	return out
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// NormalizeEmail lower-cases and trims an email address the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PublicUser is the projection returned to the account owner.
type PublicUser struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	IsAdmin    bool      `json:"isAdmin"`
	IsBusiness bool      `json:"isBusiness"`
	IsUser     bool      `json:"isUser"`
}

// AdminUser is the projection returned by the administration endpoints.
type AdminUser struct {
	PublicUser
	TempAdminExpiry *time.Time `json:"tempAdminExpiry,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	LastLogin       *time.Time `json:"lastLogin,omitempty"`
	IsOnline        bool       `json:"isOnline"`
}

// Public returns the owner-facing projection. IsAdmin is the effective admin
// status at now, so a lapsed grant is never reported as admin.
func (a Account) Public(now time.Time) PublicUser {
	return PublicUser{
		ID:         a.ID,
		Name:       a.Name,
		Email:      a.Email,
		Phone:      a.Phone,
		IsAdmin:    a.IsEffectiveAdmin(now),
		IsBusiness: a.IsBusiness,
		IsUser:     a.IsUser,
	}
}

// Admin returns the projection used by administrators. A grant that lapsed
// before now is reported as revoked even if no sweep has written it yet.
func (a Account) Admin(now time.Time) AdminUser {
	expiry := a.TempAdminExpiry
	if a.TempAdminLapsed(now) {
		expiry = nil
	}
	return AdminUser{
		PublicUser:      a.Public(now),
		TempAdminExpiry: expiry,
		CreatedAt:       a.CreatedAt,
		LastLogin:       a.LastLogin,
		IsOnline:        a.IsOnline,
	}
}
