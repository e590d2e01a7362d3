package account

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryConfig contains the resources needed by each store. Only the
// field for the selected persistence type has to be set.
type RepositoryConfig struct {
	// Pool is required for PostgreSQL repositories
	Pool *pgxpool.Pool
	// SQLite is required for SQLite repositories
	SQLite *sql.DB
	// DataDir is required for file-based repositories
	DataDir string
}

// NewRepository creates an account repository based on the persistence type
func NewRepository(ctx context.Context, persistenceType string, config RepositoryConfig) (Repository, error) {
	switch persistenceType {
	case "", "memory", "inmem":
		return NewInMemoryRepository(), nil
	case "postgres", "postgresql":
		if config.Pool == nil {
			return nil, fmt.Errorf("pool required for postgres repository")
		}
		return NewPostgresRepository(config.Pool), nil
	case "sqlite":
		if config.SQLite == nil {
			return nil, fmt.Errorf("database handle required for sqlite repository")
		}
		return NewSQLiteRepository(ctx, config.SQLite)
	case "file":
		if config.DataDir == "" {
			return nil, fmt.Errorf("dataDir required for file repository")
		}
		return NewFileRepository(config.DataDir)
	default:
		return nil, fmt.Errorf("unsupported persistence type: %s (supported: memory, file, postgres, sqlite)", persistenceType)
	}
}
