package repository

import (
	"context"

	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
)

// LotRepository define el puerto de persistencia para lotes. Los lotes nunca se borran.
type LotRepository interface {
	Create(ctx context.Context, lot *entity.Lot) error
	GetByID(ctx context.Context, id string) (*entity.Lot, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Lot, error)
	Update(ctx context.Context, lot *entity.Lot) error
	// ListByProduct devuelve todos los lotes del producto (incluye retirados), ordenados por ID.
	ListByProduct(ctx context.Context, productID string) ([]*entity.Lot, error)
	// ListByProductForUpdate igual que ListByProduct pero bloqueando las filas.
	ListByProductForUpdate(ctx context.Context, productID string) ([]*entity.Lot, error)
	ListByIDs(ctx context.Context, ids []string) ([]*entity.Lot, error)
	SumOnHand(ctx context.Context, productID string) (int64, error)
}
