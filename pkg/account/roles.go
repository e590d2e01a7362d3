package account

import (
	"time"

	"github.com/tendant/account-idm/pkg/errors"
)

// TempAdminDuration is one of the fixed temporary admin grant lengths.
type TempAdminDuration string

const (
	TempAdminOneDay   TempAdminDuration = "1day"
	TempAdminOneWeek  TempAdminDuration = "1week"
	TempAdminOneMonth TempAdminDuration = "1month"
)

const day = 24 * time.Hour

var tempAdminOffsets = map[TempAdminDuration]time.Duration{
	TempAdminOneDay:   day,
	TempAdminOneWeek:  7 * day,
	TempAdminOneMonth: 30 * day,
}

// ParseTempAdminDuration accepts only the three fixed grant lengths.
func ParseTempAdminDuration(s string) (TempAdminDuration, error) {
	d := TempAdminDuration(s)
	if _, ok := tempAdminOffsets[d]; !ok {
		return "", errors.New(errors.ErrCodeInvalidFormat, "Invalid duration. Must be 1day, 1week, or 1month")
	}
	return d, nil
}

// Offset returns the grant length. A month is 30 days.
func (d TempAdminDuration) Offset() time.Duration {
	return tempAdminOffsets[d]
}

// ExpiryFrom returns the instant the grant lapses when issued at now.
func (d TempAdminDuration) ExpiryFrom(now time.Time) time.Time {
	return now.Add(d.Offset())
}

// TempAdminLapsed reports whether a temporary admin grant has expired at now.
// An expiry equal to now has not lapsed yet.
func (a Account) TempAdminLapsed(now time.Time) bool {
	return a.TempAdminExpiry != nil && a.TempAdminExpiry.Before(now)
}

// IsEffectiveAdmin is the admin status every observer must use: the stored
// flag, unless a temporary grant has lapsed.
func (a Account) IsEffectiveAdmin(now time.Time) bool {
	return a.IsAdmin && !a.TempAdminLapsed(now)
}

// RoleNames lists the account's effective roles, used in token claims and logs.
func (a Account) RoleNames(now time.Time) []string {
	var roles []string
	if a.IsEffectiveAdmin(now) {
		roles = append(roles, "admin")
	}
	if a.IsBusiness {
		roles = append(roles, "business")
	}
	if a.IsUser {
		roles = append(roles, "user")
	}
	return roles
}
