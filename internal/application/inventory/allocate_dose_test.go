package inventory_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-vacunas/internal/application/inventory"
	"github.com/jhoicas/Inventario-vacunas/internal/domain"
)

var december = time.Date(2023, 12, 1, 9, 0, 0, 0, time.UTC)

func picks(res *inventory.AllocationResult) map[string]int64 {
	out := make(map[string]int64, len(res.Assignments))
	for _, a := range res.Assignments {
		out[a.LotID] = a.Quantity
	}
	return out
}

// Dos ítems consumen los lotes en orden de vencimiento.
func TestAllocateDose_DosItemsConsumenPorVencimiento(t *testing.T) {
	f := newFixture(t, december)
	lotA := f.ingreso("A", day(2024, 1, 1), 50)
	lotB := f.ingreso("B", day(2024, 6, 1), 100)
	f.item("ci-1", prodRabia, 80)
	f.item("ci-2", prodRabia, 40)

	res, err := f.allocator.AllocateDose(f.ctx, inventory.AllocateDoseInput{CalendarItemID: "ci-1", Actor: actor})
	require.NoError(t, err)
	require.Len(t, res.Assignments, 2)
	assert.Equal(t, lotA, res.Assignments[0].LotID, "primero el que vence antes")
	assert.Equal(t, map[string]int64{lotA: 50, lotB: 30}, picks(res))
	assert.Zero(t, res.Shortfall)
	assert.Equal(t, int64(80), res.Required)
	assert.Zero(t, f.lot(lotA).Available())
	assert.Equal(t, int64(70), f.lot(lotB).Available())

	res, err = f.allocator.AllocateDose(f.ctx, inventory.AllocateDoseInput{CalendarItemID: "ci-2", Actor: actor})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{lotB: 40}, picks(res))
	assert.Equal(t, int64(30), f.lot(lotB).Available())

	// Las reservas no mueven existencias físicas.
	view := f.stock(prodRabia)
	assert.Equal(t, int64(150), view.Quantity)
	assert.Equal(t, int64(120), view.Reserved)
	assert.Equal(t, int64(30), view.Available)

	details, err := f.binder.GetAssignments(f.ctx, "ci-1")
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, "A", details[0].LotCode)
	f.requireConsistent(prodRabia)
}

// El único lote está vencido: nada se asigna y todo es faltante.
func TestAllocateDose_SoloLoteVencido(t *testing.T) {
	f := newFixture(t, december)
	lotV := f.ingreso("V", day(2023, 11, 15), 20)
	f.item("ci-1", prodRabia, 20)

	res, err := f.allocator.AllocateDose(f.ctx, inventory.AllocateDoseInput{CalendarItemID: "ci-1"})
	require.NoError(t, err)
	assert.Empty(t, res.Assignments)
	assert.Equal(t, int64(20), res.Shortfall)
	assert.Equal(t, []string{lotV}, res.ExpiredLotIDs)
	assert.Zero(t, f.lot(lotV).QuantityReserved)
}

// Reasignar libera las reservas anteriores: lo reservado por ítem nunca supera la dosis.
func TestAllocateDose_ReasignacionLiberaReservas(t *testing.T) {
	f := newFixture(t, december)
	lotA := f.ingreso("A", day(2024, 1, 1), 50)
	lotB := f.ingreso("B", day(2024, 6, 1), 100)
	f.item("ci-1", prodRabia, 80)

	for i := 0; i < 3; i++ {
		_, err := f.allocator.AllocateDose(f.ctx, inventory.AllocateDoseInput{CalendarItemID: "ci-1"})
		require.NoError(t, err)
		reserved := f.lot(lotA).QuantityReserved + f.lot(lotB).QuantityReserved
		assert.Equal(t, int64(80), reserved, "iteración %d", i)
	}

	// Una cantidad parcial reemplaza la asignación completa.
	res, err := f.allocator.AllocateDose(f.ctx, inventory.AllocateDoseInput{CalendarItemID: "ci-1", Quantity: 30})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{lotA: 30}, picks(res))
	assert.Equal(t, int64(30), f.lot(lotA).QuantityReserved)
	assert.Zero(t, f.lot(lotB).QuantityReserved)
	f.requireConsistent(prodRabia)
}

func TestAllocateDose_FaltanteParcial(t *testing.T) {
	f := newFixture(t, december)
	lotA := f.ingreso("A", day(2024, 1, 1), 30)
	f.item("ci-1", prodRabia, 80)

	res, err := f.allocator.AllocateDose(f.ctx, inventory.AllocateDoseInput{CalendarItemID: "ci-1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{lotA: 30}, picks(res))
	assert.Equal(t, int64(50), res.Shortfall)

	report, err := f.verifier.VerifyContract(f.ctx, contrato)
	require.NoError(t, err)
	require.Len(t, report.Items, 1)
	assert.Contains(t, problemTypes(report.Items[0].Problems), "cantidad_insuficiente")
}

func TestAllocateDose_ProductoSinControlDeStock(t *testing.T) {
	f := newFixture(t, december)
	f.item("ci-libre", prodLibre, 10)

	res, err := f.allocator.AllocateDose(f.ctx, inventory.AllocateDoseInput{CalendarItemID: "ci-libre"})
	require.NoError(t, err)
	assert.False(t, res.StockControlled)
	assert.Empty(t, res.Assignments)
	assert.Zero(t, res.Shortfall)
	assert.Empty(t, res.Movements)
}

func TestAllocateDose_Rechazos(t *testing.T) {
	f := newFixture(t, december)
	f.item("ci-1", prodRabia, 80)

	cases := []struct {
		name string
		in   inventory.AllocateDoseInput
		want error
	}{
		{"sin ítem", inventory.AllocateDoseInput{}, domain.ErrInvalidInput},
		{"ítem inexistente", inventory.AllocateDoseInput{CalendarItemID: "nope"}, domain.ErrCalendarItemNotFound},
		{"cantidad negativa", inventory.AllocateDoseInput{CalendarItemID: "ci-1", Quantity: -1}, domain.ErrInvalidQuantity},
		{"cantidad mayor a la dosis", inventory.AllocateDoseInput{CalendarItemID: "ci-1", Quantity: 81}, domain.ErrInvalidQuantity},
		{"producto distinto", inventory.AllocateDoseInput{CalendarItemID: "ci-1", ProductID: prodLibre}, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.allocator.AllocateDose(f.ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

// Aplicar parte de la dosis baja la asignación junto con la reserva; reasignar vuelve a cubrir la dosis.
func TestAllocateDose_AplicacionParcialYReasignacion(t *testing.T) {
	f := newFixture(t, december)
	lotA := f.ingreso("A", day(2024, 1, 1), 50)
	f.item("ci-1", prodRabia, 20)
	_, err := f.allocator.AllocateDose(f.ctx, inventory.AllocateDoseInput{CalendarItemID: "ci-1"})
	require.NoError(t, err)

	_, err = f.ledger.RegisterMovement(f.ctx, inventory.MovementInputDTO{
		ProductID: prodRabia, LotID: lotA, Type: "egreso", Quantity: 15, ConsumeReservation: true, CalendarItemID: "ci-1",
	})
	require.NoError(t, err)
	f.requireConsistent(prodRabia)

	details, err := f.binder.GetAssignments(f.ctx, "ci-1")
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, int64(5), details[0].QuantityAssigned)
	assert.Equal(t, int64(5), f.lot(lotA).QuantityReserved)

	res, err := f.allocator.AllocateDose(f.ctx, inventory.AllocateDoseInput{CalendarItemID: "ci-1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{lotA: 20}, picks(res))
	assert.Equal(t, int64(35), f.lot(lotA).QuantityOnHand)
	assert.Equal(t, int64(20), f.lot(lotA).QuantityReserved)
	f.requireConsistent(prodRabia)
}

func TestPreviewAllocation(t *testing.T) {
	f := newFixture(t, december)
	lotA := f.ingreso("A", day(2024, 1, 1), 50)
	lotB := f.ingreso("B", day(2024, 6, 1), 100)

	res, err := f.query.PreviewAllocation(f.ctx, prodRabia, 80)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{lotA: 50, lotB: 30}, picks(res))
	assert.Zero(t, f.lot(lotA).QuantityReserved, "la vista previa no reserva")

	_, err = f.query.PreviewAllocation(f.ctx, prodRabia, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = f.query.PreviewAllocation(f.ctx, "nope", 1)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

// Asignaciones concurrentes del mismo ítem y de ítems distintos sobre lotes compartidos
// nunca reservan más de lo disponible ni más de la dosis de cada ítem.
func TestAllocateDose_Concurrente(t *testing.T) {
	f := newFixture(t, december)
	lotA := f.ingreso("A", day(2024, 1, 1), 60)
	lotB := f.ingreso("B", day(2024, 6, 1), 60)
	items := []string{"ci-1", "ci-2", "ci-3", "ci-4"}
	for _, id := range items {
		f.item(id, prodRabia, 40)
	}
	f.item("ci-5", prodRabia, 30)

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for round := 0; round < 3; round++ {
		for _, id := range items {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				if _, err := f.allocator.AllocateDose(f.ctx, inventory.AllocateDoseInput{CalendarItemID: id, Actor: actor}); err != nil {
					errs <- err
				}
			}(id)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.binder.BindAssignments(f.ctx, "ci-5", []inventory.BindLine{{LotID: lotB, Quantity: 30}}, actor)
			if err != nil && !errors.Is(err, domain.ErrOverCommit) {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.ErrorIs(t, err, domain.ErrLockTimeout)
	}

	assigned := map[string]int64{}
	require.NoError(t, f.store.Run(f.ctx, func(r inventory.Repos) error {
		for _, id := range []string{"ci-1", "ci-2", "ci-3", "ci-4", "ci-5"} {
			it, err := r.Calendar.GetItem(f.ctx, id)
			if err != nil {
				return err
			}
			assert.LessOrEqual(t, it.AssignedQuantity(), it.DoseQuantityRequired, id)
			for _, a := range it.Assignments {
				assigned[a.LotID] += a.QuantityAssigned
			}
		}
		return nil
	}))

	for _, id := range []string{lotA, lotB} {
		l := f.lot(id)
		assert.Equal(t, assigned[id], l.QuantityReserved, id)
		assert.LessOrEqual(t, l.QuantityReserved, l.QuantityOnHand, id)
	}
	f.requireConsistent(prodRabia)
}
