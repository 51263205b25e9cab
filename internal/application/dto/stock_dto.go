package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
)

// DateLayout formato de fechas de vencimiento en la API.
const DateLayout = "2006-01-02"

// RegisterMovementRequest body para POST /api/stock/movements.
type RegisterMovementRequest struct {
	ProductID          string         `json:"product_id"`
	LotID              string         `json:"lot_id,omitempty"`
	Type               string         `json:"type"`
	Quantity           int64          `json:"quantity"`
	Reason             string         `json:"reason,omitempty"`
	Notes              string         `json:"notes,omitempty"`
	ConsumeReservation bool           `json:"consume_reservation,omitempty"`
	CalendarItemID     string         `json:"calendar_item_id,omitempty"` // requerido con consume_reservation
	Lot                *NewLotRequest `json:"lot,omitempty"`
}

// NewLotRequest metadatos de un lote creado por un ingreso.
type NewLotRequest struct {
	Code           string           `json:"code"`
	ExpirationDate string           `json:"expiration_date,omitempty"` // YYYY-MM-DD
	Location       string           `json:"location,omitempty"`
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"`
}

// MovementResponse registro del libro de movimientos.
type MovementResponse struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	LotID       string    `json:"lot_id,omitempty"`
	Type        string    `json:"type"`
	Quantity    int64     `json:"quantity"`
	StockBefore int64     `json:"stock_before"`
	StockAfter  int64     `json:"stock_after"`
	Reason      string    `json:"reason,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Actor       string    `json:"actor,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListMovementsResponse listado paginado de movimientos.
type ListMovementsResponse struct {
	Movements []MovementResponse `json:"movements"`
	Page      PageResponse       `json:"page"`
}

// LotResponse estado de un lote.
type LotResponse struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"product_id"`
	Code             string          `json:"code"`
	QuantityOnHand   int64           `json:"quantity_on_hand"`
	QuantityReserved int64           `json:"quantity_reserved"`
	Available        int64           `json:"available_quantity"`
	ExpirationDate   string          `json:"expiration_date,omitempty"`
	Location         string          `json:"location,omitempty"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	Retired          bool            `json:"retired"`
}

// StockResponse stock actual de un producto con sus lotes y valorización.
type StockResponse struct {
	ProductID      string          `json:"product_id"`
	ProductName    string          `json:"product_name"`
	StockControl   bool            `json:"requires_stock_control"`
	Quantity       int64           `json:"quantity"`
	Reserved       int64           `json:"reserved"`
	Available      int64           `json:"available"`
	AverageCost    decimal.Decimal `json:"average_cost"`
	InventoryValue decimal.Decimal `json:"inventory_value"`
	Lots           []LotResponse   `json:"lots"`
}

// ReconcileResponse resultado de la conciliación de un producto.
type ReconcileResponse struct {
	ProductID      string   `json:"product_id"`
	AggregateStock int64    `json:"aggregate_stock"`
	LotsOnHand     int64    `json:"lots_on_hand"`
	LedgerTotal    int64    `json:"ledger_total"`
	Consistent     bool     `json:"consistent"`
	Violations     []string `json:"violations,omitempty"`
}

// ToMovementResponse mapea un movimiento de dominio.
func ToMovementResponse(m *entity.Movement) MovementResponse {
	return MovementResponse{
		ID:          m.ID,
		ProductID:   m.ProductID,
		LotID:       m.LotID,
		Type:        string(m.Type),
		Quantity:    m.Quantity,
		StockBefore: m.StockBefore,
		StockAfter:  m.StockAfter,
		Reason:      m.Reason,
		Notes:       m.Notes,
		Actor:       m.Actor,
		CreatedAt:   m.CreatedAt,
	}
}

// ToLotResponse mapea un lote de dominio.
func ToLotResponse(l *entity.Lot) LotResponse {
	return LotResponse{
		ID:               l.ID,
		ProductID:        l.ProductID,
		Code:             l.Code,
		QuantityOnHand:   l.QuantityOnHand,
		QuantityReserved: l.QuantityReserved,
		Available:        l.Available(),
		ExpirationDate:   FormatDate(l.ExpirationDate),
		Location:         l.Location,
		UnitCost:         l.UnitCost,
		Retired:          l.Retired,
	}
}

// FormatDate devuelve "" para fechas nil.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}
