package repository

import (
	"context"

	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
)

// StockRepository define el puerto para el stock agregado por producto.
// Usado dentro de transacciones para garantizar consistencia.
type StockRepository interface {
	Get(ctx context.Context, productID string) (*entity.Stock, error)
	// GetForUpdate bloquea la fila del producto (SELECT FOR UPDATE); es el lock por producto
	// que serializa movimientos y asignaciones concurrentes.
	GetForUpdate(ctx context.Context, productID string) (*entity.Stock, error)
	Upsert(ctx context.Context, stock *entity.Stock) error
}
