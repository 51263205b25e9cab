package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-vacunas/internal/application/dto"
	"github.com/jhoicas/Inventario-vacunas/internal/application/inventory"
	"github.com/jhoicas/Inventario-vacunas/internal/domain"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
	"github.com/jhoicas/Inventario-vacunas/internal/infrastructure/memory"
)

var march = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

// Ingreso 100, egreso 30 y ajuste negativo 5 encadenan stock anterior y posterior.
func TestRegisterMovement_IngresoEgresoAjusteEncadenados(t *testing.T) {
	f := newFixture(t, march)

	m1, err := f.ledger.RegisterMovement(f.ctx, inventory.MovementInputDTO{ProductID: prodRabia, Type: "ingreso", Quantity: 100, Actor: actor})
	require.NoError(t, err)
	m2, err := f.ledger.RegisterMovement(f.ctx, inventory.MovementInputDTO{ProductID: prodRabia, Type: "egreso", Quantity: 30, Actor: actor})
	require.NoError(t, err)
	m3, err := f.ledger.RegisterMovement(f.ctx, inventory.MovementInputDTO{ProductID: prodRabia, Type: "ajuste_negativo", Quantity: 5, Actor: actor})
	require.NoError(t, err)

	assert.Equal(t, [2]int64{0, 100}, [2]int64{m1.StockBefore, m1.StockAfter})
	assert.Equal(t, [2]int64{100, 70}, [2]int64{m2.StockBefore, m2.StockAfter})
	assert.Equal(t, [2]int64{70, 65}, [2]int64{m3.StockBefore, m3.StockAfter})
	assert.Equal(t, m1.LotID, m2.LotID, "el egreso se resuelve por FEFO al único lote")

	assert.Equal(t, int64(65), f.stock(prodRabia).Quantity)
	lot := f.lot(m1.LotID)
	assert.Contains(t, lot.Code, "AUTO-20240301-")
	assert.Nil(t, lot.ExpirationDate)

	list, err := f.query.ListMovements(f.ctx, entity.MovementFilter{ProductID: prodRabia})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, entity.MovementAjusteNegativo, list[0].Type, "del más reciente al más antiguo")
	f.pub.AssertNumberOfCalls(t, "PublishMovement", 3)
	f.requireConsistent(prodRabia)
}

// Reserva y liberación del mismo monto dejan el lote igual; una liberación extra falla.
func TestRegisterMovement_ReservaYLiberacionSimetricas(t *testing.T) {
	f := newFixture(t, march)
	lotX := f.ingreso("X", day(2024, 12, 1), 50)

	for _, typ := range []string{"reserva", "liberacion_reserva"} {
		_, err := f.ledger.RegisterMovement(f.ctx, inventory.MovementInputDTO{ProductID: prodRabia, LotID: lotX, Type: typ, Quantity: 20, Actor: actor})
		require.NoError(t, err)
	}
	assert.Zero(t, f.lot(lotX).QuantityReserved)

	_, err := f.ledger.RegisterMovement(f.ctx, inventory.MovementInputDTO{ProductID: prodRabia, LotID: lotX, Type: "liberacion_reserva", Quantity: 1, Actor: actor})
	assert.ErrorIs(t, err, domain.ErrReleaseExceedsReserved)
	f.requireConsistent(prodRabia)
}

func TestRegisterMovement_RechazosNoEscriben(t *testing.T) {
	f := newFixture(t, march)
	lotX := f.ingreso("X", day(2024, 12, 1), 10)
	other := "otro-producto"
	f.product(other, true)

	cases := []struct {
		name string
		in   inventory.MovementInputDTO
		want error
	}{
		{"tipo desconocido", inventory.MovementInputDTO{ProductID: prodRabia, Type: "traslado", Quantity: 1}, domain.ErrInvalidMovementType},
		{"cantidad negativa", inventory.MovementInputDTO{ProductID: prodRabia, Type: "ingreso", Quantity: -1}, domain.ErrInvalidQuantity},
		{"producto vacío", inventory.MovementInputDTO{Type: "ingreso", Quantity: 1}, domain.ErrInvalidInput},
		{"producto inexistente", inventory.MovementInputDTO{ProductID: "nope", Type: "ingreso", Quantity: 1}, domain.ErrProductNotFound},
		{"reserva sin lote", inventory.MovementInputDTO{ProductID: prodRabia, Type: "reserva", Quantity: 1}, domain.ErrInvalidInput},
		{"lote de otro producto", inventory.MovementInputDTO{ProductID: other, LotID: lotX, Type: "reserva", Quantity: 1}, domain.ErrLotNotFound},
		{"egreso excede", inventory.MovementInputDTO{ProductID: prodRabia, LotID: lotX, Type: "egreso", Quantity: 11}, domain.ErrInsufficientStock},
		{"egreso FEFO sin cobertura", inventory.MovementInputDTO{ProductID: prodRabia, Type: "egreso", Quantity: 11}, domain.ErrInsufficientStock},
		{"reserva excede", inventory.MovementInputDTO{ProductID: prodRabia, LotID: lotX, Type: "reserva", Quantity: 11}, domain.ErrReservationExceedsStock},
		{"lote nuevo en egreso", inventory.MovementInputDTO{ProductID: prodRabia, Type: "egreso", Quantity: 1, NewLot: &inventory.NewLotInput{Code: "N"}}, domain.ErrInvalidInput},
		{"costo negativo", inventory.MovementInputDTO{ProductID: prodRabia, Type: "ingreso", Quantity: 1, NewLot: &inventory.NewLotInput{Code: "N", UnitCost: decimal.NewFromInt(-1)}}, domain.ErrInvalidInput},
		{"consumir reserva sin lote", inventory.MovementInputDTO{ProductID: prodRabia, Type: "egreso", Quantity: 1, ConsumeReservation: true}, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.ledger.RegisterMovement(f.ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	list, err := f.query.ListMovements(f.ctx, entity.MovementFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1, "solo el ingreso inicial")
	assert.Equal(t, int64(10), f.lot(lotX).QuantityOnHand)
	assert.Zero(t, f.lot(lotX).QuantityReserved)
	f.requireConsistent(prodRabia)
}

func TestRegisterMovement_EgresoConsumeReserva(t *testing.T) {
	f := newFixture(t, march)
	lotX := f.ingreso("X", day(2024, 12, 1), 10)
	f.item("ci-1", prodRabia, 8)
	_, err := f.allocator.AllocateDose(f.ctx, inventory.AllocateDoseInput{CalendarItemID: "ci-1"})
	require.NoError(t, err)

	// Sin consumir la reserva solo quedan 2 libres.
	_, err = f.ledger.RegisterMovement(f.ctx, inventory.MovementInputDTO{ProductID: prodRabia, LotID: lotX, Type: "egreso", Quantity: 3})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = f.ledger.RegisterMovement(f.ctx, inventory.MovementInputDTO{
		ProductID: prodRabia, LotID: lotX, Type: "egreso", Quantity: 8, ConsumeReservation: true, CalendarItemID: "ci-1",
	})
	require.NoError(t, err)
	lot := f.lot(lotX)
	assert.Equal(t, int64(2), lot.QuantityOnHand)
	assert.Zero(t, lot.QuantityReserved)

	details, err := f.binder.GetAssignments(f.ctx, "ci-1")
	require.NoError(t, err)
	assert.Empty(t, details, "la asignación aplicada por completo desaparece")
	f.requireConsistent(prodRabia)
}

// Aplicar toda la dosis deja el lote en cero, retirado y consistente; reasignar no falla.
func TestRegisterMovement_AplicacionCompletaDeDosis(t *testing.T) {
	f := newFixture(t, march)
	lotA := f.ingreso("A", day(2024, 12, 1), 50)
	f.item("ci-1", prodRabia, 50)
	_, err := f.allocator.AllocateDose(f.ctx, inventory.AllocateDoseInput{CalendarItemID: "ci-1"})
	require.NoError(t, err)

	_, err = f.ledger.RegisterMovement(f.ctx, inventory.MovementInputDTO{
		ProductID: prodRabia, LotID: lotA, Type: "egreso", Quantity: 50, ConsumeReservation: true, CalendarItemID: "ci-1",
	})
	require.NoError(t, err)
	f.requireConsistent(prodRabia)
	assert.True(t, f.lot(lotA).Retired)

	res, err := f.allocator.AllocateDose(f.ctx, inventory.AllocateDoseInput{CalendarItemID: "ci-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(50), res.Shortfall)
}

func TestRegisterMovement_ConsumoDeReservaRechazado(t *testing.T) {
	f := newFixture(t, march)
	lotX := f.ingreso("X", day(2024, 12, 1), 30)
	lotY := f.ingreso("Y", day(2025, 1, 1), 30)
	f.item("ci-1", prodRabia, 10)
	f.item("ci-libre", prodLibre, 10)
	_, err := f.allocator.AllocateDose(f.ctx, inventory.AllocateDoseInput{CalendarItemID: "ci-1"})
	require.NoError(t, err)
	// Reserva suelta en Y, sin asignación que la respalde.
	_, err = f.ledger.RegisterMovement(f.ctx, inventory.MovementInputDTO{ProductID: prodRabia, LotID: lotY, Type: "reserva", Quantity: 5})
	require.NoError(t, err)

	consume := func(lotID, itemID string, qty int64) inventory.MovementInputDTO {
		return inventory.MovementInputDTO{
			ProductID: prodRabia, LotID: lotID, Type: "egreso", Quantity: qty, ConsumeReservation: true, CalendarItemID: itemID,
		}
	}
	cases := []struct {
		name string
		in   inventory.MovementInputDTO
		want error
	}{
		{"sin ítem", consume(lotX, "", 1), domain.ErrInvalidInput},
		{"ítem inexistente", consume(lotX, "nope", 1), domain.ErrCalendarItemNotFound},
		{"ítem de otro producto", consume(lotX, "ci-libre", 1), domain.ErrInvalidInput},
		{"más de lo asignado", consume(lotX, "ci-1", 11), domain.ErrReleaseExceedsReserved},
		{"lote no asignado al ítem", consume(lotY, "ci-1", 5), domain.ErrReleaseExceedsReserved},
		{"ítem sin consumir reserva", inventory.MovementInputDTO{ProductID: prodRabia, LotID: lotX, Type: "egreso", Quantity: 1, CalendarItemID: "ci-1"}, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.ledger.RegisterMovement(f.ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, int64(10), f.lot(lotX).QuantityReserved)
	assert.Equal(t, int64(5), f.lot(lotY).QuantityReserved)
	f.requireConsistent(prodRabia)
}

func TestRegisterMovement_RetiroLogico(t *testing.T) {
	f := newFixture(t, march)
	lotX := f.ingreso("X", day(2024, 12, 1), 5)

	_, err := f.ledger.RegisterMovement(f.ctx, inventory.MovementInputDTO{ProductID: prodRabia, LotID: lotX, Type: "egreso", Quantity: 5})
	require.NoError(t, err)
	assert.True(t, f.lot(lotX).Retired)

	_, err = f.ledger.RegisterMovement(f.ctx, inventory.MovementInputDTO{ProductID: prodRabia, LotID: lotX, Type: "ajuste_positivo", Quantity: 1})
	require.NoError(t, err)
	assert.False(t, f.lot(lotX).Retired)
}

func TestRegisterMovement_AjusteNegativoDaDeBajaVencidoPrimero(t *testing.T) {
	f := newFixture(t, march)
	vencido := f.ingreso("V", day(2024, 1, 31), 10)
	vigente := f.ingreso("W", day(2024, 9, 30), 10)

	mov, err := f.ledger.RegisterMovement(f.ctx, inventory.MovementInputDTO{ProductID: prodRabia, Type: "ajuste_negativo", Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, vencido, mov.LotID)

	// El egreso nunca toma un lote vencido.
	mov, err = f.ledger.RegisterMovement(f.ctx, inventory.MovementInputDTO{ProductID: prodRabia, Type: "egreso", Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, vigente, mov.LotID)
}

func TestRegisterMovementFromRequest(t *testing.T) {
	f := newFixture(t, march)
	cost := decimal.RequireFromString("12.50")
	mov, err := f.ledger.RegisterMovementFromRequest(f.ctx, actor, dto.RegisterMovementRequest{
		ProductID: prodRabia, Type: "INGRESO", Quantity: 4,
		Lot: &dto.NewLotRequest{Code: " L-77 ", ExpirationDate: "2024-08-31", Location: "nevera 2", UnitCost: &cost},
	})
	require.NoError(t, err)
	assert.Equal(t, actor, mov.Actor)

	lot := f.lot(mov.LotID)
	assert.Equal(t, "L-77", lot.Code)
	require.NotNil(t, lot.ExpirationDate)
	assert.Equal(t, "2024-08-31", lot.ExpirationDate.Format(dto.DateLayout))
	assert.True(t, lot.UnitCost.Equal(cost))

	_, err = f.ledger.RegisterMovementFromRequest(f.ctx, actor, dto.RegisterMovementRequest{
		ProductID: prodRabia, Type: "ingreso", Quantity: 1, Lot: &dto.NewLotRequest{ExpirationDate: "31/08/2024"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegisterMovement_EstadoInconsistente(t *testing.T) {
	f := newFixture(t, march)
	f.ingreso("X", day(2024, 12, 1), 10)
	require.NoError(t, f.store.PutStock(f.ctx, entity.Stock{ProductID: prodRabia, Quantity: 12, UpdatedAt: march}))

	_, err := f.ledger.RegisterMovement(f.ctx, inventory.MovementInputDTO{ProductID: prodRabia, Type: "ingreso", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInconsistentState)

	res, err := f.reconciler.Reconcile(f.ctx, prodRabia)
	assert.ErrorIs(t, err, domain.ErrInconsistentState)
	require.NotNil(t, res)
	assert.False(t, res.Consistent())
	assert.Equal(t, int64(12), res.Aggregate)
	assert.Equal(t, int64(10), res.LotsOnHand)
	assert.Equal(t, int64(10), res.LedgerBalance)
}

func TestRegisterMovement_LockTimeout(t *testing.T) {
	store := memory.NewStore(50 * time.Millisecond)
	ctx := context.Background()
	require.NoError(t, store.PutProduct(ctx, entity.Product{ID: prodRabia, RequiresStockControl: true}))
	pub := &publisherMock{}
	ledger := inventory.NewRegisterMovementUseCase(store, store.Products(), pub, nil, zerolog.Nop(), inventory.Options{})

	holding := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = store.Run(ctx, func(inventory.Repos) error {
			close(holding)
			<-done
			return nil
		})
	}()
	<-holding

	_, err := ledger.RegisterMovement(ctx, inventory.MovementInputDTO{ProductID: prodRabia, Type: "ingreso", Quantity: 1})
	close(done)
	assert.ErrorIs(t, err, domain.ErrLockTimeout)
	pub.AssertNotCalled(t, "PublishMovement", mock.Anything, mock.Anything)
}

// Reservas concurrentes sobre el mismo lote nunca superan las existencias.
func TestRegisterMovement_ReservasConcurrentes(t *testing.T) {
	f := newFixture(t, march)
	lotX := f.ingreso("X", day(2024, 12, 1), 100)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		overErr int
	)
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.RegisterMovement(f.ctx, inventory.MovementInputDTO{ProductID: prodRabia, LotID: lotX, Type: "reserva", Quantity: 10})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case assert.ErrorIs(t, err, domain.ErrReservationExceedsStock):
				overErr++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, 5, overErr)
	assert.Equal(t, int64(100), f.lot(lotX).QuantityReserved)
	f.requireConsistent(prodRabia)
}
