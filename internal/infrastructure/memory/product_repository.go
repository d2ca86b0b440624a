package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/billy-api/internal/domain"
	"github.com/jhoicas/billy-api/internal/domain/entity"
	"github.com/jhoicas/billy-api/internal/domain/repository"
	"github.com/jhoicas/billy-api/pkg/textutil"
)

var _ repository.ProductRepository = (*ProductRepository)(nil)

// ProductRepository implementación en memoria de ProductRepository.
type ProductRepository struct {
	s *Store
}

// NewProductRepository construye el repositorio sobre el almacén.
func NewProductRepository(s *Store) *ProductRepository {
	return &ProductRepository{s: s}
}

// Create inserta el producto verificando la unicidad del SKU.
func (r *ProductRepository) Create(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[p.ID]; ok {
		return &domain.ConflictError{Entity: "producto", Field: "id", Value: p.ID}
	}
	if _, ok := r.s.skus[p.SKU]; ok {
		return &domain.ConflictError{Entity: "producto", Field: "sku", Value: p.SKU}
	}
	r.s.products[p.ID] = cloneProduct(p)
	r.s.skus[p.SKU] = p.ID
	return nil
}

// GetByID devuelve nil, nil si no existe.
func (r *ProductRepository) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return cloneProduct(p), nil
}

// List filtra por búsqueda (nombre, SKU, categoría), categoría y estado.
func (r *ProductRepository) List(_ context.Context, f entity.ProductFilter) ([]*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if !textutil.Contains(f.Search, p.Name, p.SKU, p.Category) {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	sortProducts(out)
	return out, nil
}

// Update reemplaza el producto; el SKU no puede pertenecer a otro producto.
func (r *ProductRepository) Update(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.products[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if owner, ok := r.s.skus[p.SKU]; ok && owner != p.ID {
		return &domain.ConflictError{Entity: "producto", Field: "sku", Value: p.SKU}
	}
	delete(r.s.skus, cur.SKU)
	r.s.skus[p.SKU] = p.ID
	r.s.products[p.ID] = cloneProduct(p)
	return nil
}

// Delete elimina el producto si ninguna línea de venta lo referencia.
func (r *ProductRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	if n := r.s.productRefs[id]; n > 0 {
		return &domain.ReferentialIntegrityError{
			Entity: "producto",
			Reason: fmt.Sprintf("está incluido en %d línea(s) de venta", n),
		}
	}
	delete(r.s.skus, p.SKU)
	delete(r.s.products, id)
	return nil
}

// Categories categorías distintas ordenadas alfabéticamente.
func (r *ProductRepository) Categories(_ context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, p := range r.s.products {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out, nil
}
