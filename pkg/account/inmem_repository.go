package account

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository implements Repository using in-memory storage
type InMemoryRepository struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]Account
	byEmail  map[string]uuid.UUID
}

// NewInMemoryRepository creates a new in-memory account repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		accounts: make(map[uuid.UUID]Account),
		byEmail:  make(map[string]uuid.UUID),
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, params CreateAccountParams) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[params.Email]; taken {
		return Account{}, ErrEmailTaken
	}

	createdAt := params.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	acct := Account{
		ID:           uuid.New(),
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Phone:        params.Phone,
		IsAdmin:      params.IsAdmin,
		IsBusiness:   params.IsBusiness,
		IsUser:       params.IsUser,
		CreatedAt:    createdAt,
	}

	r.accounts[acct.ID] = acct
	r.byEmail[acct.Email] = acct.ID
	return acct, nil
}

func (r *InMemoryRepository) FindByID(ctx context.Context, id uuid.UUID) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acct, ok := r.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return acct, nil
}

func (r *InMemoryRepository) FindByEmail(ctx context.Context, email string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return r.accounts[id], nil
}

func (r *InMemoryRepository) List(ctx context.Context) ([]Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accounts := make([]Account, 0, len(r.accounts))
	for _, acct := range r.accounts {
		accounts = append(accounts, acct)
	}
	sortNewestFirst(accounts)
	return accounts, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, id uuid.UUID, patch Patch) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, ok := r.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}

	oldEmail := acct.Email
	if patch.Email != nil && *patch.Email != oldEmail {
		if _, taken := r.byEmail[*patch.Email]; taken {
			return Account{}, ErrEmailTaken
		}
	}

	patch.Apply(&acct)
	r.accounts[id] = acct
	if acct.Email != oldEmail {
		delete(r.byEmail, oldEmail)
		r.byEmail[acct.Email] = id
	}
	return acct, nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, ok := r.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	delete(r.accounts, id)
	delete(r.byEmail, acct.Email)
	return nil
}

func (r *InMemoryRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts), nil
}
