package bootstrap

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/account-idm/pkg/account"
	"github.com/tendant/account-idm/pkg/iam"
	"github.com/tendant/account-idm/pkg/login"
	"golang.org/x/crypto/bcrypt"
)

func newConfig(repo *account.InMemoryRepository, email, password string) AdminBootstrapConfig {
	return AdminBootstrapConfig{
		AdminEmail:    email,
		AdminPassword: password,
		Accounts:      repo,
		AdminService:  iam.NewAdminService(repo, iam.WithPasswordHasher(login.NewBcryptHasher(bcrypt.MinCost))),
	}
}

func TestBootstrapAdminUser_EmptyStore(t *testing.T) {
	repo := account.NewInMemoryRepository()

	result, err := BootstrapAdminUser(context.Background(), newConfig(repo, "Root@Example.com", "bootstrap-pass!"))
	require.NoError(t, err)
	assert.True(t, result.UserCreated)
	assert.True(t, result.PasswordFromEnv)
	assert.Empty(t, result.Password)

	acct, err := repo.FindByEmail(context.Background(), "root@example.com")
	require.NoError(t, err)
	assert.True(t, acct.IsAdmin)
	assert.True(t, acct.IsUser)
	assert.Nil(t, acct.TempAdminExpiry)
	assert.Equal(t, "Administrator", acct.Name)

	var out bytes.Buffer
	PrintBootstrapResult(&out, result)
	assert.Contains(t, out.String(), "root@example.com")
	assert.NotContains(t, out.String(), "bootstrap-pass!")
}

func TestBootstrapAdminUser_SkipsWhenAccountsExist(t *testing.T) {
	repo := account.NewInMemoryRepository()
	_, err := repo.Create(context.Background(), account.CreateAccountParams{Name: "A", Email: "a@example.com", PasswordHash: "h", IsUser: true})
	require.NoError(t, err)

	result, err := BootstrapAdminUser(context.Background(), newConfig(repo, "root@example.com", "bootstrap-pass!"))
	require.NoError(t, err)
	assert.False(t, result.UserCreated)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestBootstrapAdminUser_GeneratedPassword(t *testing.T) {
	repo := account.NewInMemoryRepository()

	result, err := BootstrapAdminUser(context.Background(), newConfig(repo, "root@example.com", ""))
	require.NoError(t, err)
	require.True(t, result.UserCreated)
	assert.False(t, result.PasswordFromEnv)
	assert.NoError(t, account.ValidatePassword(result.Password))

	var out bytes.Buffer
	PrintBootstrapResult(&out, result)
	assert.Contains(t, out.String(), result.Password)
}

func TestBootstrapAdminUser_InvalidConfig(t *testing.T) {
	repo := account.NewInMemoryRepository()

	_, err := BootstrapAdminUser(context.Background(), newConfig(repo, "", "bootstrap-pass!"))
	assert.Error(t, err)

	_, err = BootstrapAdminUser(context.Background(), newConfig(repo, "root@example.com", "weak"))
	assert.Error(t, err)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
