// Package audit keeps a PostgreSQL trail of journal entry mutations.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/AnshRaj112/journal-backend/internal/logger"
	"github.com/google/uuid"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Record is one row of the journal_audit table.
type Record struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Action    string    `json:"action"`
	UserName  string    `json:"userName"`
	EntryID   string    `json:"entryId"`
	RequestID string    `json:"requestId,omitempty"`
}

type PostgresRecorder struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresRecorder(db *sql.DB) *PostgresRecorder {
	return &PostgresRecorder{db: db, now: time.Now}
}

// Record inserts an audit row tagged with the request id found in ctx.
func (r *PostgresRecorder) Record(ctx context.Context, action, userName, entryID string) error {
	var requestID sql.NullString
	if id := logger.RequestIDFromContext(ctx); id != "" {
		requestID = sql.NullString{String: id, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO journal_audit (id, created_at, action, user_name, entry_id, request_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.New(), r.now().UTC(), action, userName, entryID, requestID)
	if err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}
	return nil
}

// Recent returns the newest records first. limit is clamped to [1, MaxLimit].
func (r *PostgresRecorder) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at, action, user_name, entry_id, request_id
		FROM journal_audit
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var rec Record
		var requestID sql.NullString
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.Action, &rec.UserName, &rec.EntryID, &requestID); err != nil {
			return nil, err
		}
		rec.RequestID = requestID.String
		records = append(records, rec)
	}
	return records, rows.Err()
}
