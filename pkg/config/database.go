package config

import (
	"fmt"

	dbutils "github.com/tendant/db-utils/db"
)

// Persistence backends for the credential store
const (
	PersistenceMemory   = "memory"
	PersistenceFile     = "file"
	PersistencePostgres = "postgres"
	PersistenceSQLite   = "sqlite"
)

// PersistenceConfig selects and locates the credential store
type PersistenceConfig struct {
	Type       string `env:"PERSISTENCE_TYPE" env-default:"memory"`
	DataDir    string `env:"ACCOUNT_DATA_DIR" env-default:"./data"`
	SQLitePath string `env:"SQLITE_PATH" env-default:"./data/accounts.db"`
}

func (p PersistenceConfig) validate() ValidationErrors {
	return CollectErrors(
		RequireOneOf("PERSISTENCE_TYPE", p.Type,
			[]string{PersistenceMemory, PersistenceFile, PersistencePostgres, PersistenceSQLite}),
	)
}

// DatabaseConfig holds PostgreSQL database configuration
type DatabaseConfig struct {
	Host     string `env:"IDM_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"IDM_PG_PORT" env-default:"5432"`
	Database string `env:"IDM_PG_DATABASE" env-default:"account_db"`
	User     string `env:"IDM_PG_USER" env-default:"idm"`
	Password string `env:"IDM_PG_PASSWORD" env-default:"pwd"`
}

// ToDatabaseURL converts the config to a PostgreSQL connection URL
func (d DatabaseConfig) ToDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Database)
}

// ToDbConfig converts the config to a db-utils DbConfig
func (d DatabaseConfig) ToDbConfig() dbutils.DbConfig {
	return dbutils.DbConfig{
		Host:     d.Host,
		Port:     d.Port,
		Database: d.Database,
		User:     d.User,
		Password: d.Password,
	}
}

func (d DatabaseConfig) validate() ValidationErrors {
	return CollectErrors(
		RequireNonEmpty("IDM_PG_HOST", d.Host),
		RequireValidPort("IDM_PG_PORT", d.Port),
		RequireNonEmpty("IDM_PG_DATABASE", d.Database),
		RequireNonEmpty("IDM_PG_USER", d.User),
	)
}
