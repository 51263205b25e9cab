package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrInsufficientStock = errors.New("stock insuficiente")

	// Validación de movimientos: se rechazan antes de cualquier escritura.
	ErrInvalidQuantity     = errors.New("la cantidad debe ser un entero positivo")
	ErrInvalidMovementType = errors.New("tipo de movimiento desconocido")

	// Reservas.
	ErrReservationExceedsStock = errors.New("la reserva excede el stock del lote")
	ErrReleaseExceedsReserved  = errors.New("la liberación excede la cantidad reservada")
	ErrOverCommit              = errors.New("las asignaciones exceden el stock del lote")

	ErrLotNotFound          = errors.New("lote no encontrado")
	ErrProductNotFound      = errors.New("producto no encontrado")
	ErrCalendarItemNotFound = errors.New("ítem de calendario no encontrado")

	// ErrLockTimeout: contención sobre las filas del producto; seguro de reintentar (sin aplicación parcial).
	ErrLockTimeout = errors.New("tiempo de espera de bloqueo agotado")
	// ErrInconsistentState: stock agregado, suma de lotes y libro de movimientos no coinciden. Nunca se reintenta.
	ErrInconsistentState = errors.New("estado de inventario inconsistente")
)
