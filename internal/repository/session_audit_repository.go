package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionAuditEntry is one row of the session audit trail.
type SessionAuditEntry struct {
	ID         string
	EventType  string
	UserID     string
	Username   string
	Role       string
	Detail     string
	Source     string
	OccurredAt time.Time
	RecordedAt time.Time
}

// SessionAuditRepository persists session lifecycle events.
type SessionAuditRepository interface {
	Append(ctx context.Context, entry *SessionAuditEntry) error
	ListByUsername(ctx context.Context, username string, limit int) ([]SessionAuditEntry, error)
}

type sessionAuditRepository struct {
	pool *pgxpool.Pool
}

// NewSessionAuditRepository constructs repository.
func NewSessionAuditRepository(pool *pgxpool.Pool) SessionAuditRepository {
	return &sessionAuditRepository{pool: pool}
}

func (r *sessionAuditRepository) Append(ctx context.Context, entry *SessionAuditEntry) error {
	const query = `
        INSERT INTO session_audit (id, event_type, user_id, username, role, detail, source, occurred_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (id) DO NOTHING
        RETURNING recorded_at`
	err := r.pool.QueryRow(ctx, query,
		entry.ID,
		entry.EventType,
		entry.UserID,
		entry.Username,
		entry.Role,
		entry.Detail,
		entry.Source,
		entry.OccurredAt,
	).Scan(&entry.RecordedAt)
	if isNoRows(err) {
		return nil
	}
	return err
}

func (r *sessionAuditRepository) ListByUsername(ctx context.Context, username string, limit int) ([]SessionAuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT id, event_type, user_id, username, role, detail, source, occurred_at, recorded_at
        FROM session_audit WHERE username=$1
        ORDER BY occurred_at DESC
        LIMIT $2`
	rows, err := r.pool.Query(ctx, query, username, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []SessionAuditEntry
	for rows.Next() {
		var e SessionAuditEntry
		if err := rows.Scan(
			&e.ID,
			&e.EventType,
			&e.UserID,
			&e.Username,
			&e.Role,
			&e.Detail,
			&e.Source,
			&e.OccurredAt,
			&e.RecordedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
