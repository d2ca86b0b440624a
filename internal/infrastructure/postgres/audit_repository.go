package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/billy-api/internal/domain/entity"
	"github.com/jhoicas/billy-api/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo bitácora de auditoría sobre la tabla audit_log (solo INSERT y SELECT).
type AuditRepo struct {
	q Querier
}

// NewAuditRepository construye el adaptador.
func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

func (r *AuditRepo) Append(ctx context.Context, rec *entity.AuditRecord) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO audit_log (id, user_id, action, entity, details, ip, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.UserID, rec.Action, rec.Entity, rec.Details, rec.IP, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

func (r *AuditRepo) List(ctx context.Context, f entity.AuditFilter) ([]*entity.AuditRecord, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, user_id, action, entity, details, ip, created_at
		FROM audit_log
		WHERE ($1 = '' OR user_id = $1)
		  AND ($2 = '' OR action = $2)
		  AND ($3 = '' OR entity = $3)
		  AND ($4::timestamptz IS NULL OR created_at >= $4)
		  AND ($5::timestamptz IS NULL OR created_at <= $5)
		ORDER BY created_at DESC, id DESC`,
		f.UserID, f.Action, f.Entity, f.From, f.To)
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.AuditRecord, 0)
	for rows.Next() {
		var rec entity.AuditRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Action, &rec.Entity, &rec.Details, &rec.IP, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		list = append(list, &rec)
	}
	return list, rows.Err()
}
