package entity

import (
	"strings"
	"time"
)

// MovementType es el conjunto cerrado de tipos de movimiento de stock.
type MovementType string

const (
	MovementIngreso           MovementType = "ingreso"            // entrada de mercancía (crea o incrementa lote)
	MovementEgreso            MovementType = "egreso"             // salida física
	MovementAjustePositivo    MovementType = "ajuste_positivo"    // corrección por reconteo
	MovementAjusteNegativo    MovementType = "ajuste_negativo"    // corrección por faltante
	MovementReserva           MovementType = "reserva"            // retención para una dosis programada
	MovementLiberacionReserva MovementType = "liberacion_reserva" // devuelve una reserva
)

// MovementTypes lista los tipos válidos en orden estable.
var MovementTypes = []MovementType{
	MovementIngreso, MovementEgreso, MovementAjustePositivo,
	MovementAjusteNegativo, MovementReserva, MovementLiberacionReserva,
}

// ParseMovementType valida la etiqueta recibida en el borde; ok=false si no se reconoce.
func ParseMovementType(s string) (MovementType, bool) {
	t := MovementType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range MovementTypes {
		if t == known {
			return t, true
		}
	}
	return "", false
}

// StockDelta devuelve el efecto del movimiento sobre el stock agregado del producto.
// Reservas y liberaciones no cambian existencias físicas.
func (t MovementType) StockDelta(quantity int64) int64 {
	switch t {
	case MovementIngreso, MovementAjustePositivo:
		return quantity
	case MovementEgreso, MovementAjusteNegativo:
		return -quantity
	default:
		return 0
	}
}

// RequiresLot indica si el tipo exige un lote explícito (no se resuelve por FEFO).
func (t MovementType) RequiresLot() bool {
	switch t {
	case MovementAjustePositivo, MovementReserva, MovementLiberacionReserva:
		return true
	default:
		return false
	}
}

// Movement es una entrada inmutable del libro de movimientos.
// StockBefore/StockAfter son el agregado del producto (no del lote) al momento de escribir.
type Movement struct {
	ID          string
	ProductID   string
	LotID       string // vacío si el movimiento no apunta a un lote
	Type        MovementType
	Quantity    int64 // siempre positiva; el signo lo da Type
	StockBefore int64
	StockAfter  int64
	Reason      string
	Notes       string
	Actor       string
	CreatedAt   time.Time
}

// MovementFilter filtros para listar movimientos. Campos nil/vacíos no filtran.
type MovementFilter struct {
	ProductID string
	LotID     string
	Type      MovementType
	DateFrom  *time.Time
	DateTo    *time.Time
	Limit     int
	Offset    int
}
