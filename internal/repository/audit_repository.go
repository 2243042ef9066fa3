package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/archie-s/card-vault/internal/domain"
)

// AuditRepository persists audit trail entries.
type AuditRepository interface {
	Insert(ctx context.Context, entry *domain.AuditEntry) error
	List(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository returns a Postgres-backed implementation.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Insert(ctx context.Context, entry *domain.AuditEntry) error {
	const query = `
        INSERT INTO audit_logs (log_id, user_id, action, table_affected, record_id, ip_address)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Action,
		entry.Resource,
		entry.RecordID,
		entry.IPAddress,
	).Scan(&entry.CreatedAt)
}

func (r *auditRepository) List(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const query = `
        SELECT log_id, user_id, action, table_affected, record_id, COALESCE(ip_address, ''), created_at
        FROM audit_logs
        ORDER BY created_at DESC
        LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Action,
			&entry.Resource,
			&entry.RecordID,
			&entry.IPAddress,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
