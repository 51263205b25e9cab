package entity

import "time"

// CalendarItem es una dosis programada dentro del plan de vacunación (contrato) de un cliente.
type CalendarItem struct {
	ID                   string
	ContractID           string
	ProductID            string
	DoseQuantityRequired int64
	ScheduledDate        time.Time
	Assignments          []Assignment
}

// AssignedQuantity suma las cantidades asignadas al ítem.
func (c *CalendarItem) AssignedQuantity() int64 {
	var total int64
	for _, a := range c.Assignments {
		total += a.QuantityAssigned
	}
	return total
}

// FullyAllocated indica si la suma asignada cubre la dosis requerida.
func (c *CalendarItem) FullyAllocated() bool {
	return c.AssignedQuantity() == c.DoseQuantityRequired
}

// Assignment vincula una cantidad de un lote a un ítem de calendario.
// Cada asignación está respaldada por una reserva del mismo monto en el lote.
type Assignment struct {
	CalendarItemID   string
	LotID            string
	QuantityAssigned int64
	CreatedAt        time.Time
}

// AssignmentDetail es la asignación con los metadatos del lote para mostrar en pantalla.
type AssignmentDetail struct {
	Assignment
	LotCode        string
	ExpirationDate *time.Time
	Location       string
}
