package config

import "sync"

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

var (
	dbOnce   sync.Once
	dbConfig *DatabaseConfig
)

type DatabaseConfig struct {
	Driver     string
	DSN        string
	SQLitePath string
}

// GetDatabaseConfig selects the relational backend. Postgres is the
// deployment default; sqlite keeps local development self-contained.
func GetDatabaseConfig() *DatabaseConfig {
	dbOnce.Do(func() {
		loadEnv()
		dbConfig = &DatabaseConfig{
			Driver:     getenv("DB_DRIVER", DBDriverPostgres),
			DSN:        getenv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=content_engine port=5432 sslmode=disable"),
			SQLitePath: getenv("SQLITE_PATH", "data/engine.db"),
		}
	})
	return dbConfig
}
