package account

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/account-idm/pkg/errors"
)

func TestParseTempAdminDuration(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		in         string
		wantExpiry time.Time
		wantErr    bool
	}{
		{in: "1day", wantExpiry: issued.Add(24 * time.Hour)},
		{in: "1week", wantExpiry: issued.Add(7 * 24 * time.Hour)},
		{in: "1month", wantExpiry: issued.Add(30 * 24 * time.Hour)},
		{in: "2days", wantErr: true},
		{in: "", wantErr: true},
		{in: "1DAY", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseTempAdminDuration(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsKind(err, errors.KindValidation))
				assert.Contains(t, err.Error(), "Invalid duration. Must be 1day, 1week, or 1month")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExpiry, d.ExpiryFrom(issued))
		})
	}
}

func TestIsEffectiveAdmin(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		acct Account
		want bool
	}{
		{"permanent admin", Account{IsAdmin: true}, true},
		{"not admin", Account{}, false},
		{"live grant", Account{IsAdmin: true, TempAdminExpiry: &future}, true},
		{"expiry equal to now", Account{IsAdmin: true, TempAdminExpiry: &now}, true},
		{"lapsed grant", Account{IsAdmin: true, TempAdminExpiry: &past}, false},
		{"stale expiry without flag", Account{TempAdminExpiry: &future}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.acct.IsEffectiveAdmin(now))
		})
	}
}

func TestProjections(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	acct := Account{
		Name:            "Ada",
		Email:           "ada@example.com",
		PasswordHash:    "$2a$10$hash",
		IsAdmin:         true,
		IsUser:          true,
		TempAdminExpiry: &past,
	}

	pub := acct.Public(now)
	assert.False(t, pub.IsAdmin, "lapsed grant must not be reported")
	assert.True(t, pub.IsUser)

	adm := acct.Admin(now)
	assert.False(t, adm.IsAdmin, "admin projection uses the same lapse rule")
	assert.Nil(t, adm.TempAdminExpiry)

	adm = acct.Admin(past.Add(-time.Second))
	assert.True(t, adm.IsAdmin)
	assert.Equal(t, &past, adm.TempAdminExpiry)

	assert.Equal(t, []string{"user"}, acct.RoleNames(now))
	assert.Equal(t, []string{"admin", "user"}, acct.RoleNames(past))
}
