package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/safar/store-dashboard/internal/config"
)

func NewConnection(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// TableExists probes the current schema for an optional table. Optional
// collaborators (memberships, invoices) are wired only when their table
// is present.
func TableExists(ctx context.Context, db *sql.DB, table string) (bool, error) {
	var name sql.NullString
	err := db.QueryRowContext(ctx, `SELECT to_regclass($1)::text`, table).Scan(&name)
	if err != nil {
		return false, fmt.Errorf("probe table %s: %w", table, err)
	}
	return name.Valid, nil
}
