package repository

import (
	"context"
	"time"

	"github.com/jhoicas/billy-api/internal/domain/entity"
)

// SaleRepository define el puerto del libro de ventas.
type SaleRepository interface {
	// Create asigna Number desde el consecutivo único y persiste la venta.
	Create(ctx context.Context, sale *entity.Sale) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	// List devuelve las ventas por fecha de creación descendente.
	List(ctx context.Context, filter entity.SaleFilter) ([]*entity.Sale, error)
	// TransitionStatus cambia el estado solo si el actual es from (compare-and-swap).
	// Devuelve *domain.InvalidStateError si el estado no coincide y domain.ErrNotFound si no existe.
	TransitionStatus(ctx context.Context, id, from, to string, now time.Time) error
}
