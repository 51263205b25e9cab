package repository

import (
	"context"

	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
)

// MovementRepository puerto del libro de movimientos (solo inserción, nunca update ni delete).
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	List(ctx context.Context, filter entity.MovementFilter) ([]*entity.Movement, error)
	// SumDelta reconstruye el stock del producto reproduciendo el libro.
	SumDelta(ctx context.Context, productID string) (int64, error)
}
