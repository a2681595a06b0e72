package database

import (
	"context"
	"fmt"
	"time"

	"github.com/chatflow-io/chatflow/pkg/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const pingTimeout = 5 * time.Second

// NewPostgresDB abre el pool de conexiones a PostgreSQL y verifica que responda
func NewPostgresDB(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// CloseDB cierra el pool si existe
func CloseDB(db *sqlx.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}
