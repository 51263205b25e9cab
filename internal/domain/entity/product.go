package entity

import "time"

// Product es la vista de solo lectura de un producto veterinario (el CRUD vive fuera de este servicio).
// RequiresStockControl indica si sus dosis consumen lotes físicos.
type Product struct {
	ID                   string
	Name                 string
	RequiresStockControl bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
