package dto

import (
	"time"

	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
)

// AllocateDoseRequest body para POST /api/calendar-items/:id/allocation.
// Quantity 0 = la dosis requerida del ítem.
type AllocateDoseRequest struct {
	ProductID string `json:"product_id,omitempty"`
	Quantity  int64  `json:"quantity,omitempty"`
}

// AllocationLineResponse cantidad tomada de un lote.
type AllocationLineResponse struct {
	LotID          string `json:"lot_id"`
	LotCode        string `json:"lot_code"`
	ExpirationDate string `json:"expiration_date,omitempty"`
	Quantity       int64  `json:"quantity"`
}

// AllocationResponse resultado de asignar lotes a una dosis.
type AllocationResponse struct {
	CalendarItemID  string                   `json:"calendar_item_id,omitempty"`
	ProductID       string                   `json:"product_id"`
	Required        int64                    `json:"quantity_required"`
	Assignments     []AllocationLineResponse `json:"assignments"`
	Shortfall       int64                    `json:"shortfall"`
	ExpiredLotIDs   []string                 `json:"expired_lot_ids,omitempty"`
	StockControlled bool                     `json:"stock_controlled"`
}

// BindAssignmentsRequest body para PUT /api/calendar-items/:id/assignments.
type BindAssignmentsRequest struct {
	Assignments []BindAssignmentLine `json:"assignments"`
}

// BindAssignmentLine asignación manual de un lote.
type BindAssignmentLine struct {
	LotID    string `json:"lot_id"`
	Quantity int64  `json:"quantity"`
}

// AssignmentResponse asignación con metadatos del lote.
type AssignmentResponse struct {
	LotID            string    `json:"lot_id"`
	LotCode          string    `json:"lot_code"`
	ExpirationDate   string    `json:"expiration_date,omitempty"`
	Location         string    `json:"location,omitempty"`
	QuantityAssigned int64     `json:"quantity_assigned"`
	CreatedAt        time.Time `json:"created_at"`
}

// AssignmentsResponse composición de la dosis: un lote o lote múltiple.
type AssignmentsResponse struct {
	CalendarItemID string               `json:"calendar_item_id"`
	Assignments    []AssignmentResponse `json:"assignments"`
	TotalAssigned  int64                `json:"total_assigned"`
	LoteMultiple   bool                 `json:"lote_multiple"`
}

// ToAssignmentsResponse mapea las asignaciones de un ítem (ya en orden FEFO).
func ToAssignmentsResponse(calendarItemID string, details []entity.AssignmentDetail) AssignmentsResponse {
	out := AssignmentsResponse{
		CalendarItemID: calendarItemID,
		Assignments:    make([]AssignmentResponse, 0, len(details)),
	}
	for _, d := range details {
		out.Assignments = append(out.Assignments, AssignmentResponse{
			LotID:            d.LotID,
			LotCode:          d.LotCode,
			ExpirationDate:   FormatDate(d.ExpirationDate),
			Location:         d.Location,
			QuantityAssigned: d.QuantityAssigned,
			CreatedAt:        d.CreatedAt,
		})
		out.TotalAssigned += d.QuantityAssigned
	}
	out.LoteMultiple = len(details) > 1
	return out
}
