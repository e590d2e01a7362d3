package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/account-idm/pkg/config"
	"github.com/tendant/account-idm/pkg/iam"
	"github.com/tendant/account-idm/pkg/login"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() config.Config {
	return config.Config{
		PhoneDefaultRegion: "US",
		JWT: config.JWTConfig{
			Secret:              "app-secret",
			Issuer:              "account-idm",
			LoginTokenExpiry:    "1h",
			RegisterTokenExpiry: "24h",
		},
		Persistence: config.PersistenceConfig{Type: config.PersistenceMemory},
	}
}

func newServices(t *testing.T, cfg config.Config) (*Services, http.Handler) {
	t.Helper()
	svc, err := New(context.Background(), cfg, WithPasswordHasher(login.NewBcryptHasher(bcrypt.MinCost)))
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })

	r := chi.NewRouter()
	svc.Routes(r)
	return svc, r
}

func call(t *testing.T, h http.Handler, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.10:40000"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var decoded map[string]any
	if rr.Body.Len() > 0 && rr.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &decoded), rr.Body.String())
	}
	return rr.Code, decoded
}

func loginToken(t *testing.T, h http.Handler, email, password string) string {
	t.Helper()
	code, body := call(t, h, http.MethodPost, "/auth/login", "", `{"email":"`+email+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, code, body)
	return body["token"].(string)
}

func TestServices_AdminRoutesFollowRoles(t *testing.T) {
	svc, h := newServices(t, testConfig())

	_, err := svc.Admin.CreateUser(context.Background(), iam.CreateUserParams{
		Name: "Root", Email: "root@example.com", Password: "root-pass!", IsAdmin: true,
	})
	require.NoError(t, err)

	code, body := call(t, h, http.MethodPost, "/auth/register", "", `{"name":"Ada","email":"ada@example.com","password":"correct-horse!"}`)
	require.Equal(t, http.StatusCreated, code, body)
	userToken := body["token"].(string)
	userID := body["user"].(map[string]any)["id"].(string)

	code, body = call(t, h, http.MethodGet, "/admin/users", userToken, "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Access denied. Admins only", body["message"])

	code, _ = call(t, h, http.MethodGet, "/admin/users", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	adminToken := loginToken(t, h, "root@example.com", "root-pass!")
	code, body = call(t, h, http.MethodPatch, "/admin/users/"+userID+"/temp-admin", adminToken, `{"duration":"1day"}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.NotEmpty(t, body["tempAdminExpiry"])

	// the grant applies to the token issued before it
	code, _ = call(t, h, http.MethodGet, "/admin/users", userToken, "")
	assert.Equal(t, http.StatusOK, code)
}

func TestServices_PersistentStoresSurviveRestart(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config, dir string)
	}{
		{"file", func(c *config.Config, dir string) {
			c.Persistence.Type = config.PersistenceFile
			c.Persistence.DataDir = dir
		}},
		{"sqlite", func(c *config.Config, dir string) {
			c.Persistence.Type = config.PersistenceSQLite
			c.Persistence.SQLitePath = filepath.Join(dir, "db", "accounts.db")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg, t.TempDir())

			first, h := newServices(t, cfg)
			code, body := call(t, h, http.MethodPost, "/auth/register", "", `{"name":"Ada","email":"ada@example.com","password":"correct-horse!"}`)
			require.Equal(t, http.StatusCreated, code, body)
			require.NoError(t, first.Close())

			_, h = newServices(t, cfg)
			token := loginToken(t, h, "ada@example.com", "correct-horse!")
			code, body = call(t, h, http.MethodGet, "/auth/me", token, "")
			require.Equal(t, http.StatusOK, code)
			assert.Equal(t, "Ada", body["user"].(map[string]any)["name"])
		})
	}
}

func TestServices_ThrottlesPublicAuthRoutes(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{
		Enabled:    true,
		Backend:    config.RateLimitMemory,
		Capacity:   1,
		RefillRate: 0.001,
	}
	_, h := newServices(t, cfg)

	code, body := call(t, h, http.MethodPost, "/auth/register", "", `{"name":"Ada","email":"ada@example.com","password":"correct-horse!"}`)
	require.Equal(t, http.StatusCreated, code)
	token := body["token"].(string)

	code, _ = call(t, h, http.MethodPost, "/auth/login", "", `{"email":"ada@example.com","password":"correct-horse!"}`)
	assert.Equal(t, http.StatusOK, code)

	code, body = call(t, h, http.MethodPost, "/auth/login", "", `{"email":"ada@example.com","password":"correct-horse!"}`)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "Too many requests", body["message"])

	for i := 0; i < 3; i++ {
		code, _ = call(t, h, http.MethodGet, "/auth/me", token, "")
		assert.Equal(t, http.StatusOK, code, "authenticated routes are not throttled")
	}
}

func TestNew_UnsupportedPersistence(t *testing.T) {
	cfg := testConfig()
	cfg.Persistence.Type = "mongo"

	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, "unsupported persistence type")
}

func TestNew_InvalidTokenExpiry(t *testing.T) {
	cfg := testConfig()
	cfg.JWT.LoginTokenExpiry = "soon"

	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, "LOGIN_TOKEN_EXPIRY")
}
