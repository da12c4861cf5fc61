// internal/db/postgres.go
package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// PostgresDB bundles the two handles the repositories use: a pgx pool for
// account data and a database/sql handle (via sqlx) for leads and contacts.
type PostgresDB struct {
	Pool *pgxpool.Pool
	SQL  *sqlx.DB
}

func NewPostgresDB(databaseURL string) (*PostgresDB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB, err := OpenSQL(ctx, databaseURL)
	if err != nil {
		pool.Close()
		return nil, err
	}

	log.Println("[DB] ✅ Connected to PostgreSQL")
	return &PostgresDB{Pool: pool, SQL: sqlDB}, nil
}

// OpenSQL opens a database/sql handle through the pgx stdlib driver.
func OpenSQL(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	sqlDB, err := sqlx.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open sql DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping sql DB: %w", err)
	}
	return sqlDB, nil
}

// Ping checks both handles; used by the health endpoint.
func (db *PostgresDB) Ping(ctx context.Context) error {
	if err := db.Pool.Ping(ctx); err != nil {
		return err
	}
	return db.SQL.PingContext(ctx)
}

func (db *PostgresDB) Close() {
	if db.SQL != nil {
		db.SQL.Close()
	}
	if db.Pool != nil {
		db.Pool.Close()
		log.Println("[DB] PostgreSQL connection closed")
	}
}
