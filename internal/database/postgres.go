package database

import (
	"database/sql"
	"time"

	"github.com/AnshRaj112/journal-backend/internal/logger"
	_ "github.com/lib/pq"
)

// ConnectPostgres opens the audit database and creates its tables.
func ConnectPostgres(postgresURI string) (*sql.DB, error) {
	db, err := sql.Open("postgres", postgresURI)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Default().Info("✅ Connected to PostgreSQL")

	if err = InitPostgresTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// InitPostgresTables creates all necessary tables if they don't exist
func InitPostgresTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS journal_audit (
			id UUID PRIMARY KEY,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			action VARCHAR(50) NOT NULL,
			user_name VARCHAR(255) NOT NULL,
			entry_id VARCHAR(24) NOT NULL,
			request_id VARCHAR(64)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_journal_audit_created_at ON journal_audit(created_at DESC)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}
