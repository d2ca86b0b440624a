package repository

import (
	"context"

	"github.com/jhoicas/billy-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// Las implementaciones garantizan la unicidad del SKU y bloquean el borrado de
// productos referenciados por alguna línea de venta.
type ProductRepository interface {
	// Create devuelve *domain.ConflictError si el SKU ya existe.
	Create(ctx context.Context, product *entity.Product) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	List(ctx context.Context, filter entity.ProductFilter) ([]*entity.Product, error)
	// Update reemplaza el producto; ConflictError si el SKU pertenece a otro producto.
	Update(ctx context.Context, product *entity.Product) error
	// Delete devuelve *domain.ReferentialIntegrityError si alguna venta lo referencia.
	Delete(ctx context.Context, id string) error
	Categories(ctx context.Context) ([]string, error)
}
