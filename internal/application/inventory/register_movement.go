package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-vacunas/internal/domain"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/inventory"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/repository"
)

// RegisterMovementUseCase es el libro de movimientos: registra cada movimiento de stock de forma
// transaccional, con bloqueo de la fila del producto (SELECT FOR UPDATE) y Commit/Rollback.
// Ningún movimiento queda registrado sin su cambio de saldo ni al revés.
type RegisterMovementUseCase struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	publisher   MovementPublisher
	metrics     Metrics
	log         zerolog.Logger
	now         func() time.Time
}

// NewRegisterMovementUseCase construye el caso de uso. publisher y metrics pueden ser nil.
func NewRegisterMovementUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	publisher MovementPublisher,
	metrics Metrics,
	log zerolog.Logger,
	opts Options,
) *RegisterMovementUseCase {
	if publisher == nil {
		publisher = NopPublisher
	}
	if metrics == nil {
		metrics = NopMetrics
	}
	opts = opts.withDefaults()
	return &RegisterMovementUseCase{
		txRunner:    txRunner,
		productRepo: productRepo,
		publisher:   publisher,
		metrics:     metrics,
		log:         log.With().Str("component", "movement_ledger").Logger(),
		now:         opts.Now,
	}
}

// MovementInputDTO entrada para registrar un movimiento.
// LotID es opcional en ingreso (se crea lote), egreso y ajuste_negativo (se resuelve por FEFO);
// obligatorio en ajuste_positivo, reserva y liberacion_reserva.
type MovementInputDTO struct {
	ProductID string
	LotID     string
	Type      string
	Quantity  int64
	Reason    string
	Notes     string
	Actor     string
	// ConsumeReservation solo para egreso: la salida descuenta lo reservado (aplicación de dosis).
	// Requiere CalendarItemID; la asignación del ítem sobre el lote baja en la misma cantidad.
	ConsumeReservation bool
	CalendarItemID     string
	// NewLot metadatos del lote a crear en un ingreso sin LotID.
	NewLot *NewLotInput
}

// NewLotInput metadatos de un lote nuevo.
type NewLotInput struct {
	Code           string
	ExpirationDate *time.Time
	Location       string
	UnitCost       decimal.Decimal
}

// validate rechaza la entrada antes de cualquier escritura.
func (in MovementInputDTO) validate() (entity.MovementType, error) {
	t, ok := entity.ParseMovementType(in.Type)
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidMovementType, in.Type)
	}
	if in.Quantity <= 0 {
		return "", domain.ErrInvalidQuantity
	}
	if strings.TrimSpace(in.ProductID) == "" {
		return "", fmt.Errorf("%w: product_id requerido", domain.ErrInvalidInput)
	}
	if in.NewLot != nil {
		if t != entity.MovementIngreso || in.LotID != "" {
			return "", fmt.Errorf("%w: los datos de lote nuevo solo aplican a un ingreso sin lote", domain.ErrInvalidInput)
		}
		if in.NewLot.UnitCost.IsNegative() {
			return "", fmt.Errorf("%w: costo unitario negativo", domain.ErrInvalidInput)
		}
	}
	if t.RequiresLot() && in.LotID == "" {
		return "", fmt.Errorf("%w: el movimiento %s requiere lote", domain.ErrInvalidInput, t)
	}
	if in.ConsumeReservation && (t != entity.MovementEgreso || in.LotID == "" || in.CalendarItemID == "") {
		return "", fmt.Errorf("%w: consumir reserva solo aplica a un egreso con lote e ítem de calendario", domain.ErrInvalidInput)
	}
	if !in.ConsumeReservation && in.CalendarItemID != "" {
		return "", fmt.Errorf("%w: calendar_item_id solo aplica al consumir una reserva", domain.ErrInvalidInput)
	}
	return t, nil
}

// RegisterMovement valida la entrada, verifica el producto, inicia la transacción, bloquea la fila
// del producto, aplica el movimiento al lote, anota el movimiento en el libro y hace Commit o Rollback.
// Después del commit publica el movimiento (best effort).
func (uc *RegisterMovementUseCase) RegisterMovement(ctx context.Context, input MovementInputDTO) (*entity.Movement, error) {
	t, err := input.validate()
	if err != nil {
		uc.metrics.MovementRejected(entity.MovementType(input.Type), err)
		return nil, err
	}

	product, err := uc.productRepo.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		uc.metrics.MovementRejected(t, domain.ErrProductNotFound)
		return nil, domain.ErrProductNotFound
	}

	now := uc.now()
	var mov *entity.Movement
	err = uc.txRunner.Run(ctx, func(r Repos) error {
		m, err := uc.applyInTx(ctx, r, t, input, now)
		if err != nil {
			return err
		}
		mov = m
		return nil
	})
	if err != nil {
		uc.metrics.MovementRejected(t, err)
		uc.logFailure(err, t, input)
		return nil, err
	}

	uc.metrics.MovementApplied(t)
	uc.log.Info().
		Str("movement_id", mov.ID).
		Str("product_id", mov.ProductID).
		Str("lot_id", mov.LotID).
		Str("type", string(mov.Type)).
		Int64("quantity", mov.Quantity).
		Int64("stock_before", mov.StockBefore).
		Int64("stock_after", mov.StockAfter).
		Str("actor", mov.Actor).
		Msg("movimiento registrado")
	uc.publish(ctx, mov)
	return mov, nil
}

// applyInTx aplica un movimiento usando los repositorios de la transacción del caller.
// El caller debe haber validado la entrada; la fila del producto se bloquea aquí
// (re-bloquear dentro de la misma transacción es inocuo).
func (uc *RegisterMovementUseCase) applyInTx(
	ctx context.Context,
	r Repos,
	t entity.MovementType,
	input MovementInputDTO,
	now time.Time,
) (*entity.Movement, error) {
	// Bloquea la fila del producto para serializar escrituras concurrentes
	stock, err := r.Stock.GetForUpdate(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	// El agregado debe coincidir con la suma de lotes antes de tocar nada
	onHand, err := r.Lots.SumOnHand(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if onHand != stock.Quantity {
		return nil, fmt.Errorf("%w: producto %s stock agregado=%d suma lotes=%d",
			domain.ErrInconsistentState, input.ProductID, stock.Quantity, onHand)
	}

	lot, created, err := uc.resolveLot(ctx, r, t, input, now)
	if err != nil {
		return nil, err
	}
	if err := inventory.ApplyToLot(lot, t, input.Quantity, input.ConsumeReservation); err != nil {
		return nil, err
	}

	if input.ConsumeReservation {
		if err := consumeAssignment(ctx, r, input, lot.ID); err != nil {
			return nil, err
		}
	}

	delta := t.StockDelta(input.Quantity)
	switch {
	case delta > 0:
		lot.Retired = false
	case delta < 0 && lot.QuantityOnHand == 0:
		// Retiro lógico: sin existencias y sin dosis que lo referencien
		assigned, err := r.Calendar.SumAssignedByLot(ctx, lot.ID, "")
		if err != nil {
			return nil, err
		}
		lot.Retired = assigned == 0
	}
	lot.UpdatedAt = now
	if created {
		err = r.Lots.Create(ctx, lot)
	} else {
		err = r.Lots.Update(ctx, lot)
	}
	if err != nil {
		return nil, err
	}

	before := stock.Quantity
	stock.Quantity = before + delta
	stock.UpdatedAt = now
	if err := r.Stock.Upsert(ctx, stock); err != nil {
		return nil, err
	}

	mov := &entity.Movement{
		ID:          uuid.New().String(),
		ProductID:   input.ProductID,
		LotID:       lot.ID,
		Type:        t,
		Quantity:    input.Quantity,
		StockBefore: before,
		StockAfter:  stock.Quantity,
		Reason:      input.Reason,
		Notes:       input.Notes,
		Actor:       input.Actor,
		CreatedAt:   now,
	}
	if err := r.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// consumeAssignment descuenta la dosis aplicada de la asignación del ítem sobre el lote,
// para que lo asignado siga respaldado por lo reservado. La asignación en cero se elimina.
func consumeAssignment(ctx context.Context, r Repos, input MovementInputDTO, lotID string) error {
	item, err := r.Calendar.GetItem(ctx, input.CalendarItemID)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrCalendarItemNotFound
	}
	if item.ProductID != input.ProductID {
		return fmt.Errorf("%w: el ítem %s es del producto %s", domain.ErrInvalidInput, item.ID, item.ProductID)
	}
	remaining := make([]entity.Assignment, 0, len(item.Assignments))
	found := false
	for _, a := range item.Assignments {
		if a.LotID == lotID {
			if input.Quantity > a.QuantityAssigned {
				return fmt.Errorf("%w: el ítem %s tiene %d asignadas del lote, se aplican %d",
					domain.ErrReleaseExceedsReserved, item.ID, a.QuantityAssigned, input.Quantity)
			}
			found = true
			a.QuantityAssigned -= input.Quantity
			if a.QuantityAssigned == 0 {
				continue
			}
		}
		remaining = append(remaining, a)
	}
	if !found {
		return fmt.Errorf("%w: el ítem %s no tiene asignado el lote %s", domain.ErrReleaseExceedsReserved, item.ID, lotID)
	}
	return r.Calendar.ReplaceAssignments(ctx, item.ID, remaining)
}

// resolveLot obtiene (bloqueado) el lote destino del movimiento o construye uno nuevo en un ingreso.
func (uc *RegisterMovementUseCase) resolveLot(
	ctx context.Context,
	r Repos,
	t entity.MovementType,
	input MovementInputDTO,
	now time.Time,
) (*entity.Lot, bool, error) {
	if input.LotID != "" {
		lot, err := r.Lots.GetForUpdate(ctx, input.LotID)
		if err != nil {
			return nil, false, err
		}
		if lot == nil {
			return nil, false, domain.ErrLotNotFound
		}
		if lot.ProductID != input.ProductID {
			return nil, false, fmt.Errorf("%w: el lote %s no pertenece al producto %s",
				domain.ErrLotNotFound, input.LotID, input.ProductID)
		}
		return lot, false, nil
	}

	switch t {
	case entity.MovementIngreso:
		return newLot(input, now), true, nil
	case entity.MovementEgreso, entity.MovementAjusteNegativo:
		lots, err := r.Lots.ListByProductForUpdate(ctx, input.ProductID)
		if err != nil {
			return nil, false, err
		}
		candidates := inventory.CandidateLots(lots, now)
		if t == entity.MovementAjusteNegativo {
			// Los ajustes negativos también dan de baja lotes vencidos, que salen primero.
			candidates = append([]*entity.Lot(nil), lots...)
			inventory.SortFEFO(candidates)
		}
		for _, l := range candidates {
			if l.Available() >= input.Quantity {
				return l, false, nil
			}
		}
		return nil, false, fmt.Errorf("%w: ningún lote cubre %d unidades", domain.ErrInsufficientStock, input.Quantity)
	}
	return nil, false, fmt.Errorf("%w: el movimiento %s requiere lote", domain.ErrInvalidInput, t)
}

func newLot(input MovementInputDTO, now time.Time) *entity.Lot {
	id := uuid.New().String()
	lot := &entity.Lot{
		ID:        id,
		ProductID: input.ProductID,
		UnitCost:  decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.NewLot != nil {
		lot.Code = strings.TrimSpace(input.NewLot.Code)
		lot.ExpirationDate = input.NewLot.ExpirationDate
		lot.Location = input.NewLot.Location
		lot.UnitCost = input.NewLot.UnitCost
	}
	if lot.Code == "" {
		lot.Code = "AUTO-" + now.Format("20060102") + "-" + strings.ToUpper(id[:8])
	}
	return lot
}

func (uc *RegisterMovementUseCase) publish(ctx context.Context, movements ...*entity.Movement) {
	for _, m := range movements {
		if err := uc.publisher.PublishMovement(ctx, m); err != nil {
			uc.log.Warn().Err(err).Str("movement_id", m.ID).Msg("no se pudo publicar el movimiento")
		}
	}
}

func (uc *RegisterMovementUseCase) logFailure(err error, t entity.MovementType, input MovementInputDTO) {
	var ev *zerolog.Event
	switch {
	case errors.Is(err, domain.ErrInconsistentState):
		ev = uc.log.Error()
	case errors.Is(err, domain.ErrLockTimeout):
		ev = uc.log.Warn().Bool("retryable", true)
	default:
		ev = uc.log.Warn()
	}
	ev.Err(err).
		Str("product_id", input.ProductID).
		Str("lot_id", input.LotID).
		Str("type", string(t)).
		Int64("quantity", input.Quantity).
		Str("actor", input.Actor).
		Msg("movimiento rechazado")
}
