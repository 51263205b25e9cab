package entity

import "time"

// Stock es el agregado por producto (fila product_stock). Debe ser igual a la suma de
// QuantityOnHand de sus lotes y al acumulado del libro de movimientos.
// Su fila se bloquea (SELECT FOR UPDATE) para serializar las escrituras sobre un producto.
type Stock struct {
	ProductID string
	Quantity  int64
	UpdatedAt time.Time
}
