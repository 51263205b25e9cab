package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
)

// CalendarRepository lectura de los ítems del plan de vacunación (CRUD externo) y
// persistencia de sus asignaciones lote↔dosis.
type CalendarRepository interface {
	// GetItem devuelve el ítem con sus asignaciones.
	GetItem(ctx context.Context, id string) (*entity.CalendarItem, error)
	// ListByContract devuelve los ítems del contrato con sus asignaciones.
	ListByContract(ctx context.Context, contractID string) ([]*entity.CalendarItem, error)
	// ListContractsWithDosesBetween contratos con dosis programadas en [from, to].
	ListContractsWithDosesBetween(ctx context.Context, from, to time.Time) ([]string, error)

	// ReplaceAssignments reemplaza el conjunto de asignaciones del ítem (delete-then-insert).
	ReplaceAssignments(ctx context.Context, calendarItemID string, assignments []entity.Assignment) error
	ListAssignments(ctx context.Context, calendarItemID string) ([]entity.AssignmentDetail, error)
	// SumAssignedByLot suma lo asignado a un lote excluyendo un ítem (vacío = ninguno).
	SumAssignedByLot(ctx context.Context, lotID, excludeItemID string) (int64, error)
}
