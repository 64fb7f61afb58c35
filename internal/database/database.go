// FilePath: internal/database/database.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pondworks/pondgate/internal/config"
	"github.com/pondworks/pondgate/internal/errors"
	nuts "github.com/vaudience/go-nuts"
)

// RequiredTables are the relations the gateway writes into. They are
// provisioned externally; the gateway only verifies they exist.
var RequiredTables = []string{"pond_metrics", "station_metrics"}

// DB is the interface the time-series store must implement
type DB interface {
	Close() error
	GetDB() *sqlx.DB
}

// TimescaleDB represents a TimescaleDB database connection
type TimescaleDB struct {
	db *sqlx.DB
}

// Transaction represents a database transaction
type Transaction interface {
	Commit() error
	Rollback() error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// NewTimescaleDB creates a new TimescaleDB database connection
func NewTimescaleDB(ctx context.Context, cfg config.PostgresConfig) (DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
		int(cfg.ConnectTimeout.Seconds()),
	)

	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to TimescaleDB: %w", err)
	}

	nuts.L.Infof("[TimescaleDB] Connected to %s:%d/%s", cfg.Host, cfg.Port, cfg.DBName)
	return &TimescaleDB{db: db}, nil
}

func (t *TimescaleDB) Close() error {
	return t.db.Close()
}

func (t *TimescaleDB) GetDB() *sqlx.DB {
	return t.db
}

// VerifySchema checks that every required relation exists. A missing
// table is a provisioning failure, not a retryable condition, so the
// caller must treat the returned SchemaError as fatal. Gating is on
// existence only; row counts are logged as diagnostics.
func VerifySchema(ctx context.Context, db DB) error {
	existing := []string{}
	err := db.GetDB().SelectContext(ctx, &existing, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'public'
		AND table_name = ANY($1)`, pq.Array(RequiredTables))
	if err != nil {
		return errors.NewSchemaError("failed to query information_schema", err)
	}

	present := make(map[string]bool, len(existing))
	for _, name := range existing {
		present[name] = true
	}

	missing := []string{}
	for _, table := range RequiredTables {
		if !present[table] {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		return errors.NewSchemaError(
			fmt.Sprintf("missing required tables: %v (run the provisioning SQL before starting the gateway)", missing),
			nil,
		).WithDetails(missing)
	}

	logTableCounts(ctx, db, existing)
	nuts.L.Infof("[TimescaleDB] Schema verified, all required tables exist")
	return nil
}

func logTableCounts(ctx context.Context, db DB, tables []string) {
	for _, table := range tables {
		var count int64
		// table names come from our own RequiredTables list, not user input
		err := db.GetDB().GetContext(ctx, &count, fmt.Sprintf("SELECT COUNT(*) FROM %s", table))
		if err != nil {
			nuts.L.Warnf("[TimescaleDB] Could not count rows in %s: %v", table, err)
			continue
		}
		nuts.L.Infof("[TimescaleDB] Table %q has %d records", table, count)
	}
}
