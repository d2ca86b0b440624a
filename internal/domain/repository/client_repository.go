package repository

import (
	"context"
	"time"

	"github.com/jhoicas/billy-api/internal/domain/entity"
)

// ClientRepository define el puerto de persistencia para Client.
type ClientRepository interface {
	// Create devuelve *domain.ConflictError si el NIT o el NRC ya existen.
	Create(ctx context.Context, client *entity.Client) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Client, error)
	List(ctx context.Context, filter entity.ClientFilter) ([]*entity.Client, error)
	// Update aplica el patch de forma atómica con sus verificaciones:
	// RestrictedFieldError si el cliente tiene ventas facturadas y el patch toca
	// campos no editables, ConflictError por NIT/NRC duplicado.
	Update(ctx context.Context, id string, patch entity.ClientPatch, now time.Time) (*entity.Client, error)
	// Delete devuelve *domain.ReferentialIntegrityError si alguna venta lo referencia.
	Delete(ctx context.Context, id string) error
}
