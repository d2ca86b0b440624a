package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/billy-api/internal/domain"
	"github.com/jhoicas/billy-api/internal/domain/entity"
	"github.com/jhoicas/billy-api/internal/domain/repository"
	"github.com/jhoicas/billy-api/pkg/textutil"
)

var _ repository.ClientRepository = (*ClientRepository)(nil)

// ClientRepository implementación en memoria de ClientRepository.
type ClientRepository struct {
	s *Store
}

// NewClientRepository construye el repositorio sobre el almacén.
func NewClientRepository(s *Store) *ClientRepository {
	return &ClientRepository{s: s}
}

// checkClientKeys verifica NIT y NRC por separado; selfID se excluye (actualizaciones).
func (s *Store) checkClientKeys(c *entity.Client, selfID string) error {
	if c.NIT != "" {
		if owner, ok := s.nits[c.NIT]; ok && owner != selfID {
			return &domain.ConflictError{Entity: "cliente", Field: "nit", Value: c.NIT}
		}
	}
	if c.NRC != "" {
		if owner, ok := s.nrcs[c.NRC]; ok && owner != selfID {
			return &domain.ConflictError{Entity: "cliente", Field: "nrc", Value: c.NRC}
		}
	}
	return nil
}

func (s *Store) indexClient(c *entity.Client) {
	if c.NIT != "" {
		s.nits[c.NIT] = c.ID
	}
	if c.NRC != "" {
		s.nrcs[c.NRC] = c.ID
	}
}

func (s *Store) unindexClient(c *entity.Client) {
	if c.NIT != "" && s.nits[c.NIT] == c.ID {
		delete(s.nits, c.NIT)
	}
	if c.NRC != "" && s.nrcs[c.NRC] == c.ID {
		delete(s.nrcs, c.NRC)
	}
}

// Create inserta el cliente verificando NIT y NRC.
func (r *ClientRepository) Create(_ context.Context, c *entity.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.clients[c.ID]; ok {
		return &domain.ConflictError{Entity: "cliente", Field: "id", Value: c.ID}
	}
	if err := r.s.checkClientKeys(c, ""); err != nil {
		return err
	}
	r.s.clients[c.ID] = cloneClient(c)
	r.s.indexClient(c)
	return nil
}

// GetByID devuelve nil, nil si no existe.
func (r *ClientRepository) GetByID(_ context.Context, id string) (*entity.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.clients[id]
	if !ok {
		return nil, nil
	}
	return cloneClient(c), nil
}

// List filtra por búsqueda (nombre, NIT, NRC, email), perfil fiscal y estado.
func (r *ClientRepository) List(_ context.Context, f entity.ClientFilter) ([]*entity.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Client, 0, len(r.s.clients))
	for _, c := range r.s.clients {
		if f.FiscalProfile != "" && c.FiscalProfile != f.FiscalProfile {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if !textutil.Contains(f.Search, c.Name, c.NIT, c.NRC, c.Email) {
			continue
		}
		out = append(out, cloneClient(c))
	}
	sortClients(out)
	return out, nil
}

// Update aplica el patch. Con ventas facturadas solo se aceptan campos de contacto.
func (r *ClientRepository) Update(_ context.Context, id string, patch entity.ClientPatch, now time.Time) (*entity.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.clients[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if r.s.invoicedClients[id] > 0 {
		if fields := patch.RestrictedFields(); len(fields) > 0 {
			return nil, &domain.RestrictedFieldError{Fields: fields}
		}
	}
	next := patch.Apply(*cur)
	next.UpdatedAt = now
	if err := r.s.checkClientKeys(&next, id); err != nil {
		return nil, err
	}
	r.s.unindexClient(cur)
	r.s.clients[id] = cloneClient(&next)
	r.s.indexClient(&next)
	return cloneClient(&next), nil
}

// Delete elimina el cliente si ninguna venta lo referencia.
func (r *ClientRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok {
		return domain.ErrNotFound
	}
	if n := r.s.clientRefs[id]; n > 0 {
		return &domain.ReferentialIntegrityError{
			Entity: "cliente",
			Reason: fmt.Sprintf("tiene %d venta(s) asociada(s)", n),
		}
	}
	r.s.unindexClient(c)
	delete(r.s.clients, id)
	return nil
}
