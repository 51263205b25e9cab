package repository

import (
	"context"

	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
)

// ProductRepository puerto de solo lectura sobre el catálogo de productos (CRUD externo).
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
}
