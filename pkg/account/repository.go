package account

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
)

// Repository errors. Services translate these into client-facing errors.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailTaken      = errors.New("email already in use")
)

// Repository is the credential store. Every write touches one account and is
// atomic for that account; email uniqueness is enforced by the store.
type Repository interface {
	Create(ctx context.Context, params CreateAccountParams) (Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (Account, error)
	FindByEmail(ctx context.Context, email string) (Account, error)
	// List returns every account, newest first.
	List(ctx context.Context) ([]Account, error)
	Update(ctx context.Context, id uuid.UUID, patch Patch) (Account, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
}

func sortNewestFirst(accounts []Account) {
	sort.SliceStable(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.After(accounts[j].CreatedAt)
	})
}
