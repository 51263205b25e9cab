package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot representa un lote de vacunas: misma fecha de vencimiento y ubicación física.
// Invariante: 0 <= QuantityReserved <= QuantityOnHand.
type Lot struct {
	ID               string
	ProductID        string
	Code             string     // etiqueta del lote impresa en el empaque
	QuantityOnHand   int64
	QuantityReserved int64
	ExpirationDate   *time.Time // nil = sin vencimiento
	Location         string
	UnitCost         decimal.Decimal
	Retired          bool // sin existencias y sin asignaciones; nunca se borra
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Available devuelve la cantidad libre para nuevas reservas.
func (l *Lot) Available() int64 {
	return l.QuantityOnHand - l.QuantityReserved
}

// IsExpiredAt indica si el lote venció antes del día de referencia.
func (l *Lot) IsExpiredAt(today time.Time) bool {
	if l.ExpirationDate == nil {
		return false
	}
	return l.expirationDay().Before(CalendarDay(today))
}

// ExpiresWithin indica si el lote (aún vigente) vence dentro de la ventana indicada.
func (l *Lot) ExpiresWithin(today time.Time, window time.Duration) bool {
	if l.ExpirationDate == nil || l.IsExpiredAt(today) {
		return false
	}
	return l.expirationDay().Before(CalendarDay(today).Add(window))
}

// DaysUntilExpiry devuelve los días hasta el vencimiento; -1 si no vence.
func (l *Lot) DaysUntilExpiry(today time.Time) int {
	if l.ExpirationDate == nil {
		return -1
	}
	return int(l.expirationDay().Sub(CalendarDay(today)).Hours() / 24)
}

// expirationDay la columna DATE llega como medianoche UTC; se toma su fecha en UTC.
func (l *Lot) expirationDay() time.Time {
	return CalendarDay(l.ExpirationDate.UTC())
}

// CalendarDay fecha civil de t en su propia zona, como medianoche UTC. Permite comparar
// días sin que el huso del servidor corra la fecha.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
