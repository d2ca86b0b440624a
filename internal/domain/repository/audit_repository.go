package repository

import (
	"context"

	"github.com/jhoicas/billy-api/internal/domain/entity"
)

// AuditRepository almacén de auditoría, solo inserción.
type AuditRepository interface {
	Append(ctx context.Context, record *entity.AuditRecord) error
	// List filtra y ordena por CreatedAt descendente.
	List(ctx context.Context, filter entity.AuditFilter) ([]*entity.AuditRecord, error)
}
