package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-vacunas/internal/domain"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
)

// BindAssignmentsUseCase persiste el vínculo lote↔dosis de un ítem de calendario.
// Es el único camino de lectura de asignaciones (GetAssignments); la escritura ocurre aquí o en AllocateDose.
type BindAssignmentsUseCase struct {
	txRunner TxRunner
	ledger   *RegisterMovementUseCase
	log      zerolog.Logger
	now      func() time.Time
}

// NewBindAssignmentsUseCase construye el binder.
func NewBindAssignmentsUseCase(txRunner TxRunner, ledger *RegisterMovementUseCase, log zerolog.Logger, opts Options) *BindAssignmentsUseCase {
	opts = opts.withDefaults()
	return &BindAssignmentsUseCase{
		txRunner: txRunner,
		ledger:   ledger,
		log:      log.With().Str("component", "binder").Logger(),
		now:      opts.Now,
	}
}

// BindLine cantidad de un lote a vincular.
type BindLine struct {
	LotID    string
	Quantity int64
}

func validateLines(item *entity.CalendarItem, lines []BindLine) error {
	seen := make(map[string]struct{}, len(lines))
	var total int64
	for _, l := range lines {
		if l.LotID == "" {
			return fmt.Errorf("%w: lot_id requerido", domain.ErrInvalidInput)
		}
		if l.Quantity <= 0 {
			return domain.ErrInvalidQuantity
		}
		if _, dup := seen[l.LotID]; dup {
			return fmt.Errorf("%w: lote %s repetido", domain.ErrInvalidInput, l.LotID)
		}
		seen[l.LotID] = struct{}{}
		total += l.Quantity
	}
	if total > item.DoseQuantityRequired {
		return fmt.Errorf("%w: asignado %d excede la dosis requerida %d", domain.ErrInvalidQuantity, total, item.DoseQuantityRequired)
	}
	return nil
}

// BindAssignments reemplaza atómicamente el conjunto de asignaciones del ítem.
// Libera las reservas anteriores, valida que ningún lote quede sobre-comprometido y reserva
// lo vinculado. Una lista vacía desvincula el ítem.
func (uc *BindAssignmentsUseCase) BindAssignments(ctx context.Context, calendarItemID string, lines []BindLine, actor string) ([]entity.AssignmentDetail, error) {
	now := uc.now()
	var movements []*entity.Movement
	err := uc.txRunner.Run(ctx, func(r Repos) error {
		item, err := r.Calendar.GetItem(ctx, calendarItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrCalendarItemNotFound
		}
		if err := validateLines(item, lines); err != nil {
			return err
		}
		product, err := r.Products.GetByID(ctx, item.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrProductNotFound
		}
		if item, err = lockItem(ctx, r, item); err != nil {
			return err
		}

		released, err := releaseAssignments(ctx, uc.ledger, r, item, actor, "reemplazo manual de asignación", now)
		if err != nil {
			return err
		}
		movements = append(movements, released...)

		assignments := make([]entity.Assignment, 0, len(lines))
		for _, l := range lines {
			lot, err := r.Lots.GetForUpdate(ctx, l.LotID)
			if err != nil {
				return err
			}
			if lot == nil || lot.ProductID != item.ProductID {
				return fmt.Errorf("%w: %s", domain.ErrLotNotFound, l.LotID)
			}
			committed, err := r.Calendar.SumAssignedByLot(ctx, lot.ID, item.ID)
			if err != nil {
				return err
			}
			if committed+l.Quantity > lot.QuantityOnHand {
				return fmt.Errorf("%w: lote %s existencias %d, comprometido %d, solicitado %d",
					domain.ErrOverCommit, lot.Code, lot.QuantityOnHand, committed, l.Quantity)
			}
			mov, err := uc.ledger.applyInTx(ctx, r, entity.MovementReserva, MovementInputDTO{
				ProductID: item.ProductID,
				LotID:     lot.ID,
				Type:      string(entity.MovementReserva),
				Quantity:  l.Quantity,
				Reason:    "asignación manual de lote",
				Notes:     "calendar_item:" + item.ID,
				Actor:     actor,
			}, now)
			if err != nil {
				if errors.Is(err, domain.ErrReservationExceedsStock) {
					return fmt.Errorf("%w: %v", domain.ErrOverCommit, err)
				}
				return err
			}
			movements = append(movements, mov)
			assignments = append(assignments, entity.Assignment{
				CalendarItemID:   item.ID,
				LotID:            lot.ID,
				QuantityAssigned: l.Quantity,
				CreatedAt:        now,
			})
		}
		return r.Calendar.ReplaceAssignments(ctx, item.ID, assignments)
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("calendar_item_id", calendarItemID).Msg("vínculo de lotes rechazado")
		return nil, err
	}
	uc.ledger.publish(ctx, movements...)
	uc.log.Info().Str("calendar_item_id", calendarItemID).Int("lots", len(lines)).Str("actor", actor).Msg("asignaciones reemplazadas")
	return uc.GetAssignments(ctx, calendarItemID)
}

// GetAssignments devuelve las asignaciones del ítem con los metadatos de cada lote.
func (uc *BindAssignmentsUseCase) GetAssignments(ctx context.Context, calendarItemID string) ([]entity.AssignmentDetail, error) {
	var out []entity.AssignmentDetail
	err := uc.txRunner.Run(ctx, func(r Repos) error {
		item, err := r.Calendar.GetItem(ctx, calendarItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrCalendarItemNotFound
		}
		out, err = r.Calendar.ListAssignments(ctx, calendarItemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
