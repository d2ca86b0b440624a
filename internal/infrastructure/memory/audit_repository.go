package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/billy-api/internal/domain/entity"
	"github.com/jhoicas/billy-api/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepository)(nil)

// AuditRepository registro de auditoría en memoria, solo inserción.
type AuditRepository struct {
	s *Store
}

// NewAuditRepository construye el repositorio sobre el almacén.
func NewAuditRepository(s *Store) *AuditRepository {
	return &AuditRepository{s: s}
}

func (r *AuditRepository) Append(_ context.Context, rec *entity.AuditRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *rec
	r.s.audit = append(r.s.audit, &cp)
	return nil
}

// List devuelve los registros que cumplen el filtro, el más reciente primero.
// A igual fecha gana el insertado después.
func (r *AuditRepository) List(_ context.Context, f entity.AuditFilter) ([]*entity.AuditRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.AuditRecord, 0)
	for i := len(r.s.audit) - 1; i >= 0; i-- {
		rec := r.s.audit[i]
		if !f.Matches(rec) {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
