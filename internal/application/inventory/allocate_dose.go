package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-vacunas/internal/domain"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/inventory"
)

// AllocateDoseUseCase asigna lotes a una dosis programada con política FEFO.
// Lectura de lotes, liberación de reservas previas, nuevas reservas y vínculo lote↔dosis ocurren
// en una sola transacción que mantiene bloqueada la fila del producto: dos asignaciones
// concurrentes no pueden leer la misma disponibilidad.
type AllocateDoseUseCase struct {
	txRunner TxRunner
	ledger   *RegisterMovementUseCase
	metrics  Metrics
	log      zerolog.Logger
	now      func() time.Time
}

// NewAllocateDoseUseCase construye el asignador.
func NewAllocateDoseUseCase(txRunner TxRunner, ledger *RegisterMovementUseCase, metrics Metrics, log zerolog.Logger, opts Options) *AllocateDoseUseCase {
	if metrics == nil {
		metrics = NopMetrics
	}
	opts = opts.withDefaults()
	return &AllocateDoseUseCase{
		txRunner: txRunner,
		ledger:   ledger,
		metrics:  metrics,
		log:      log.With().Str("component", "allocator").Logger(),
		now:      opts.Now,
	}
}

// AllocateDoseInput entrada de AllocateDose. Quantity 0 = dosis requerida del ítem;
// ProductID vacío = producto del ítem.
type AllocateDoseInput struct {
	CalendarItemID string
	ProductID      string
	Quantity       int64
	Actor          string
}

// AllocationLine cantidad tomada de un lote.
type AllocationLine struct {
	LotID          string
	LotCode        string
	ExpirationDate *time.Time
	Quantity       int64
}

// AllocationResult resultado de la asignación. Shortfall > 0 es un estado recuperable
// (cantidad_insuficiente): lo asignado se mantiene.
type AllocationResult struct {
	CalendarItemID  string
	ProductID       string
	Required        int64
	Assignments     []AllocationLine
	Shortfall       int64
	ExpiredLotIDs   []string
	StockControlled bool
	Movements       []*entity.Movement
}

// AllocateDose libera las reservas previas del ítem, selecciona lotes por vencimiento ascendente,
// reserva lo tomado de cada lote y persiste las asignaciones del ítem.
func (uc *AllocateDoseUseCase) AllocateDose(ctx context.Context, in AllocateDoseInput) (*AllocationResult, error) {
	if in.CalendarItemID == "" {
		return nil, fmt.Errorf("%w: calendar_item_id requerido", domain.ErrInvalidInput)
	}
	if in.Quantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}

	now := uc.now()
	var result *AllocationResult
	err := uc.txRunner.Run(ctx, func(r Repos) error {
		res, err := uc.allocateInTx(ctx, r, in, now)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		ev := uc.log.Warn()
		if errors.Is(err, domain.ErrInconsistentState) {
			ev = uc.log.Error()
		}
		ev.Err(err).Str("calendar_item_id", in.CalendarItemID).Msg("asignación de lotes fallida")
		return nil, err
	}

	uc.metrics.AllocationDone(result.Shortfall)
	for _, m := range result.Movements {
		uc.metrics.MovementApplied(m.Type)
	}
	uc.ledger.publish(ctx, result.Movements...)
	uc.log.Info().
		Str("calendar_item_id", result.CalendarItemID).
		Str("product_id", result.ProductID).
		Int64("required", result.Required).
		Int("lots", len(result.Assignments)).
		Int64("shortfall", result.Shortfall).
		Msg("dosis asignada")
	return result, nil
}

func (uc *AllocateDoseUseCase) allocateInTx(ctx context.Context, r Repos, in AllocateDoseInput, now time.Time) (*AllocationResult, error) {
	item, err := r.Calendar.GetItem(ctx, in.CalendarItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrCalendarItemNotFound
	}
	if in.ProductID != "" && in.ProductID != item.ProductID {
		return nil, fmt.Errorf("%w: el ítem %s es del producto %s", domain.ErrInvalidInput, item.ID, item.ProductID)
	}
	required := in.Quantity
	if required == 0 {
		required = item.DoseQuantityRequired
	}
	if required <= 0 || required > item.DoseQuantityRequired {
		return nil, fmt.Errorf("%w: se requieren entre 1 y %d unidades", domain.ErrInvalidQuantity, item.DoseQuantityRequired)
	}

	product, err := r.Products.GetByID(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}
	result := &AllocationResult{
		CalendarItemID:  item.ID,
		ProductID:       item.ProductID,
		Required:        required,
		StockControlled: product.RequiresStockControl,
	}
	if !product.RequiresStockControl {
		return result, nil
	}

	// Lock por producto durante toda la secuencia leer-reservar
	if item, err = lockItem(ctx, r, item); err != nil {
		return nil, err
	}

	released, err := releaseAssignments(ctx, uc.ledger, r, item, in.Actor, "reasignación de dosis", now)
	if err != nil {
		return nil, err
	}
	result.Movements = append(result.Movements, released...)

	lots, err := r.Lots.ListByProductForUpdate(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	sel := inventory.SelectFEFO(lots, required, now)
	result.Shortfall = sel.Shortfall
	result.ExpiredLotIDs = sel.ExpiredLotIDs

	assignments := make([]entity.Assignment, 0, len(sel.Picks))
	for _, pick := range sel.Picks {
		mov, err := uc.ledger.applyInTx(ctx, r, entity.MovementReserva, MovementInputDTO{
			ProductID: item.ProductID,
			LotID:     pick.Lot.ID,
			Type:      string(entity.MovementReserva),
			Quantity:  pick.Quantity,
			Reason:    "reserva para dosis programada",
			Notes:     "calendar_item:" + item.ID,
			Actor:     in.Actor,
		}, now)
		if err != nil {
			return nil, err
		}
		result.Movements = append(result.Movements, mov)
		result.Assignments = append(result.Assignments, AllocationLine{
			LotID:          pick.Lot.ID,
			LotCode:        pick.Lot.Code,
			ExpirationDate: pick.Lot.ExpirationDate,
			Quantity:       pick.Quantity,
		})
		assignments = append(assignments, entity.Assignment{
			CalendarItemID:   item.ID,
			LotID:            pick.Lot.ID,
			QuantityAssigned: pick.Quantity,
			CreatedAt:        now,
		})
	}
	if err := r.Calendar.ReplaceAssignments(ctx, item.ID, assignments); err != nil {
		return nil, err
	}
	return result, nil
}

// lockItem bloquea la fila de stock del producto del ítem y relee el ítem bajo ese lock.
// Las asignaciones leídas antes del lock pueden estar desactualizadas.
func lockItem(ctx context.Context, r Repos, item *entity.CalendarItem) (*entity.CalendarItem, error) {
	if _, err := r.Stock.GetForUpdate(ctx, item.ProductID); err != nil {
		return nil, err
	}
	locked, err := r.Calendar.GetItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	if locked == nil {
		return nil, domain.ErrCalendarItemNotFound
	}
	return locked, nil
}

// releaseAssignments libera las reservas que respaldan las asignaciones actuales del ítem.
// Una asignación sin reserva que la respalde indica un invariante roto.
func releaseAssignments(ctx context.Context, ledger *RegisterMovementUseCase, r Repos, item *entity.CalendarItem, actor, reason string, now time.Time) ([]*entity.Movement, error) {
	var movements []*entity.Movement
	for _, a := range item.Assignments {
		if a.QuantityAssigned <= 0 {
			continue
		}
		mov, err := ledger.applyInTx(ctx, r, entity.MovementLiberacionReserva, MovementInputDTO{
			ProductID: item.ProductID,
			LotID:     a.LotID,
			Type:      string(entity.MovementLiberacionReserva),
			Quantity:  a.QuantityAssigned,
			Reason:    reason,
			Notes:     "calendar_item:" + item.ID,
			Actor:     actor,
		}, now)
		if err != nil {
			if errors.Is(err, domain.ErrReleaseExceedsReserved) || errors.Is(err, domain.ErrLotNotFound) {
				return nil, fmt.Errorf("%w: asignación %s/%s sin reserva: %v", domain.ErrInconsistentState, item.ID, a.LotID, err)
			}
			return nil, err
		}
		movements = append(movements, mov)
	}
	return movements, nil
}
