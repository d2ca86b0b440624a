package repository

import (
	"context"
	"time"

	"github.com/jhoicas/billy-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
type UserRepository interface {
	// Create devuelve *domain.ConflictError si el email ya está registrado.
	Create(ctx context.Context, user *entity.User) error
	// GetByID y GetByEmail devuelven nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	List(ctx context.Context, filter entity.UserFilter) ([]*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	UpdatePassword(ctx context.Context, id, hash string) error
	TouchLastAccess(ctx context.Context, id string, at time.Time) error
	// Delete devuelve domain.ErrLastAdmin si el usuario es el último ADMIN activo.
	Delete(ctx context.Context, id string) error
}
