package account

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const accountsFile = "accounts.json"

// fileAccount is the on-disk form. Unlike Account it keeps the password hash.
type fileAccount struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"password_hash"`
	Phone           string     `json:"phone,omitempty"`
	IsAdmin         bool       `json:"is_admin"`
	IsBusiness      bool       `json:"is_business"`
	IsUser          bool       `json:"is_user"`
	TempAdminExpiry *time.Time `json:"temp_admin_expiry,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	LastLogin       *time.Time `json:"last_login,omitempty"`
	IsOnline        bool       `json:"is_online"`
}

func toFileAccount(a Account) fileAccount {
	return fileAccount(a)
}

func (f fileAccount) toAccount() Account {
	return Account(f)
}

// FileRepository implements Repository on a single JSON file. Every write
// rewrites the file through a temp file and rename.
type FileRepository struct {
	dataDir  string
	accounts map[uuid.UUID]fileAccount
	mutex    sync.RWMutex
}

// NewFileRepository creates a file-backed repository rooted at dataDir,
// loading any accounts already there.
func NewFileRepository(dataDir string) (*FileRepository, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	repo := &FileRepository{
		dataDir:  dataDir,
		accounts: make(map[uuid.UUID]fileAccount),
	}
	if err := repo.load(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}
	return repo, nil
}

func (r *FileRepository) Create(ctx context.Context, params CreateAccountParams) (Account, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.findByEmailLocked(params.Email); ok {
		return Account{}, ErrEmailTaken
	}

	createdAt := params.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
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
		CreatedAt:    createdAt.UTC(),
	}
	r.accounts[acct.ID] = toFileAccount(acct)

	if err := r.save(); err != nil {
		delete(r.accounts, acct.ID)
		return Account{}, fmt.Errorf("failed to save: %w", err)
	}
	return acct, nil
}

func (r *FileRepository) FindByID(ctx context.Context, id uuid.UUID) (Account, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	f, ok := r.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return f.toAccount(), nil
}

func (r *FileRepository) FindByEmail(ctx context.Context, email string) (Account, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	f, ok := r.findByEmailLocked(email)
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return f.toAccount(), nil
}

func (r *FileRepository) findByEmailLocked(email string) (fileAccount, bool) {
	for _, f := range r.accounts {
		if f.Email == email {
			return f, true
		}
	}
	return fileAccount{}, false
}

func (r *FileRepository) List(ctx context.Context) ([]Account, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	accounts := make([]Account, 0, len(r.accounts))
	for _, f := range r.accounts {
		accounts = append(accounts, f.toAccount())
	}
	sortNewestFirst(accounts)
	return accounts, nil
}

func (r *FileRepository) Update(ctx context.Context, id uuid.UUID, patch Patch) (Account, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	prev, ok := r.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	if patch.Email != nil && *patch.Email != prev.Email {
		if _, taken := r.findByEmailLocked(*patch.Email); taken {
			return Account{}, ErrEmailTaken
		}
	}

	acct := prev.toAccount()
	patch.Apply(&acct)
	r.accounts[id] = toFileAccount(acct)

	if err := r.save(); err != nil {
		r.accounts[id] = prev
		return Account{}, fmt.Errorf("failed to save: %w", err)
	}
	return acct, nil
}

func (r *FileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	prev, ok := r.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	delete(r.accounts, id)

	if err := r.save(); err != nil {
		r.accounts[id] = prev
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}

func (r *FileRepository) Count(ctx context.Context) (int, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.accounts), nil
}

// load reads accounts from file
func (r *FileRepository) load() error {
	filePath := filepath.Join(r.dataDir, accountsFile)

	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var stored []fileAccount
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}
	for _, f := range stored {
		r.accounts[f.ID] = f
	}
	return nil
}

// save writes accounts to file atomically
func (r *FileRepository) save() error {
	stored := make([]fileAccount, 0, len(r.accounts))
	for _, f := range r.accounts {
		stored = append(stored, f)
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	tempFile := filepath.Join(r.dataDir, accountsFile+".tmp")
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempFile, filepath.Join(r.dataDir, accountsFile)); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}
