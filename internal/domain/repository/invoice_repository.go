package repository

import (
	"context"

	"github.com/jhoicas/billy-api/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia de intentos de emisión (solo inserción).
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	// ListBySale devuelve los intentos de la venta en orden de creación.
	ListBySale(ctx context.Context, saleID string) ([]*entity.Invoice, error)
	// List devuelve los intentos filtrados, más recientes primero.
	List(ctx context.Context, filter entity.InvoiceFilter) ([]*entity.Invoice, error)
}
