package inventory

import (
	"math"

	"github.com/jhoicas/Inventario-vacunas/internal/domain"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
)

// ApplyToLot aplica el efecto de un movimiento sobre el lote, sin tocarlo si la transición
// violaría QuantityOnHand >= 0 o QuantityReserved <= QuantityOnHand.
// consumeReservation solo aplica a egreso: descuenta la salida de lo reservado (aplicación de dosis).
func ApplyToLot(lot *entity.Lot, t entity.MovementType, quantity int64, consumeReservation bool) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	switch t {
	case entity.MovementIngreso, entity.MovementAjustePositivo:
		if lot.QuantityOnHand > math.MaxInt64-quantity {
			return domain.ErrInvalidQuantity
		}
		lot.QuantityOnHand += quantity

	case entity.MovementEgreso:
		if quantity > lot.QuantityOnHand {
			return domain.ErrInsufficientStock
		}
		if consumeReservation {
			if quantity > lot.QuantityReserved {
				return domain.ErrReleaseExceedsReserved
			}
			lot.QuantityReserved -= quantity
		} else if quantity > lot.Available() {
			return domain.ErrInsufficientStock
		}
		lot.QuantityOnHand -= quantity

	case entity.MovementAjusteNegativo:
		// Lo reservado no se puede ajustar sin liberar primero.
		if quantity > lot.QuantityOnHand || quantity > lot.Available() {
			return domain.ErrInsufficientStock
		}
		lot.QuantityOnHand -= quantity

	case entity.MovementReserva:
		if quantity > lot.Available() {
			return domain.ErrReservationExceedsStock
		}
		lot.QuantityReserved += quantity

	case entity.MovementLiberacionReserva:
		if quantity > lot.QuantityReserved {
			return domain.ErrReleaseExceedsReserved
		}
		lot.QuantityReserved -= quantity

	default:
		return domain.ErrInvalidMovementType
	}
	return nil
}
