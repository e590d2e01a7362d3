package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/account-idm/pkg/account"
	"github.com/tendant/account-idm/pkg/tokengenerator"
)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type guardFixture struct {
	clock  *testClock
	repo   *account.InMemoryRepository
	tokens *tokengenerator.JwtService
	guard  *Guard
}

func newGuardFixture(t *testing.T) *guardFixture {
	t.Helper()
	clock := &testClock{t: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
	repo := account.NewInMemoryRepository()
	tokens := tokengenerator.NewJwtService(
		tokengenerator.NewJwtTokenGenerator("guard-secret", "account-idm", tokengenerator.WithClock(clock.Now)),
		tokengenerator.WithLoginTokenExpiry(30*24*time.Hour),
	)
	return &guardFixture{
		clock:  clock,
		repo:   repo,
		tokens: tokens,
		guard:  NewGuard(tokens, repo, WithClock(clock.Now)),
	}
}

func (f *guardFixture) createAccount(t *testing.T, email string, isAdmin bool, expiry *time.Time) (account.Account, string) {
	t.Helper()
	acct, err := f.repo.Create(context.Background(), account.CreateAccountParams{
		Name:         "Test",
		Email:        email,
		PasswordHash: "hash",
		IsAdmin:      isAdmin,
		IsUser:       true,
		CreatedAt:    f.clock.Now(),
	})
	require.NoError(t, err)
	if expiry != nil {
		acct, err = f.repo.Update(context.Background(), acct.ID, account.Patch{TempAdminExpiry: expiry})
		require.NoError(t, err)
	}
	token, _, err := f.tokens.GenerateToken(tokengenerator.LOGIN_TOKEN_NAME, acct.ID.String())
	require.NoError(t, err)
	return acct, token
}

func (f *guardFixture) serve(token string, admin bool) *httptest.ResponseRecorder {
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetAuthUser(r)
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		w.Header().Set("X-User", user.UserId)
		w.WriteHeader(http.StatusOK)
	})
	if admin {
		h = f.guard.RequireAdmin(h)
	}
	h = f.guard.AuthMiddleware(h)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func message(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Message
}

func TestAuthMiddleware(t *testing.T) {
	f := newGuardFixture(t)
	acct, token := f.createAccount(t, "user@example.com", false, nil)

	ghostToken, _, err := f.tokens.GenerateToken(tokengenerator.LOGIN_TOKEN_NAME, uuid.NewString())
	require.NoError(t, err)
	nonUUIDToken, _, err := f.tokens.GenerateToken(tokengenerator.LOGIN_TOKEN_NAME, "not-a-uuid")
	require.NoError(t, err)

	testCases := []struct {
		name       string
		token      string
		wantStatus int
		wantMsg    string
	}{
		{name: "valid token", token: token, wantStatus: http.StatusOK},
		{name: "missing token", token: "", wantStatus: http.StatusUnauthorized, wantMsg: "No token provided"},
		{name: "garbage token", token: "abc.def.ghi", wantStatus: http.StatusUnauthorized, wantMsg: "Invalid token"},
		{name: "vanished account", token: ghostToken, wantStatus: http.StatusUnauthorized, wantMsg: "User not found"},
		{name: "non uuid subject", token: nonUUIDToken, wantStatus: http.StatusUnauthorized, wantMsg: "Invalid token"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := f.serve(tc.token, false)
			assert.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantMsg != "" {
				assert.Equal(t, tc.wantMsg, message(t, rr))
			} else {
				assert.Equal(t, acct.ID.String(), rr.Header().Get("X-User"))
			}
		})
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	f := newGuardFixture(t)
	_, token := f.createAccount(t, "user@example.com", false, nil)

	f.clock.Advance(31 * 24 * time.Hour)
	rr := f.serve(token, false)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Token expired", message(t, rr))
}

func TestRequireAdmin(t *testing.T) {
	f := newGuardFixture(t)
	_, adminToken := f.createAccount(t, "admin@example.com", true, nil)
	_, userToken := f.createAccount(t, "user@example.com", false, nil)

	rr := f.serve(adminToken, true)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = f.serve(userToken, true)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "Access denied. Admins only", message(t, rr))

	rr = f.serve("", true)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireAdmin_TemporaryGrantLapses(t *testing.T) {
	f := newGuardFixture(t)
	expiry := account.TempAdminOneDay.ExpiryFrom(f.clock.Now())
	acct, token := f.createAccount(t, "temp@example.com", true, &expiry)

	assert.Equal(t, http.StatusOK, f.serve(token, true).Code)

	f.clock.Advance(24 * time.Hour)
	assert.Equal(t, http.StatusOK, f.serve(token, true).Code, "expiry equal to now has not lapsed")

	f.clock.Advance(time.Second)
	rr := f.serve(token, true)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// the guard only computes; the stored flag is left for the sweep
	stored, err := f.repo.FindByID(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsAdmin)
	require.NotNil(t, stored.TempAdminExpiry)
}

func TestRequireAdmin_SeesRoleChangesWithoutNewToken(t *testing.T) {
	f := newGuardFixture(t)
	acct, token := f.createAccount(t, "admin@example.com", true, nil)
	require.Equal(t, http.StatusOK, f.serve(token, true).Code)

	demoted := false
	_, err := f.repo.Update(context.Background(), acct.ID, account.Patch{IsAdmin: &demoted})
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, f.serve(token, true).Code)
}

func TestAuthUserRoles(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)

	testCases := []struct {
		name  string
		user  *AuthUser
		roles []string
		admin bool
	}{
		{name: "permanent admin", user: &AuthUser{IsAdmin: true, IsUser: true}, roles: []string{"admin", "user"}, admin: true},
		{name: "lapsed admin", user: &AuthUser{IsAdmin: true, IsUser: true, TempAdminExpiry: &past}, roles: []string{"user"}},
		{name: "business", user: &AuthUser{IsBusiness: true, IsUser: true}, roles: []string{"business", "user"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.roles, tc.user.Roles(now))
			assert.Equal(t, tc.admin, tc.user.IsEffectiveAdmin(now))
		})
	}

	var nilUser *AuthUser
	assert.False(t, nilUser.IsEffectiveAdmin(now))
}
