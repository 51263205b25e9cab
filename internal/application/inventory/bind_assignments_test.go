package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-vacunas/internal/application/inventory"
	"github.com/jhoicas/Inventario-vacunas/internal/domain"
)

func TestBindAssignments_ReemplazaYReserva(t *testing.T) {
	f := newFixture(t, december)
	lotA := f.ingreso("A", day(2024, 1, 1), 50)
	lotB := f.ingreso("B", day(2024, 6, 1), 100)
	f.item("ci-1", prodRabia, 80)

	details, err := f.binder.BindAssignments(f.ctx, "ci-1", []inventory.BindLine{{LotID: lotB, Quantity: 60}}, actor)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "B", details[0].LotCode)
	assert.Equal(t, int64(60), f.lot(lotB).QuantityReserved)

	details, err = f.binder.BindAssignments(f.ctx, "ci-1", []inventory.BindLine{
		{LotID: lotB, Quantity: 30},
		{LotID: lotA, Quantity: 50},
	}, actor)
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, lotA, details[0].LotID, "orden FEFO")
	assert.Equal(t, int64(50), f.lot(lotA).QuantityReserved)
	assert.Equal(t, int64(30), f.lot(lotB).QuantityReserved)

	// Lista vacía desvincula y libera todo.
	details, err = f.binder.BindAssignments(f.ctx, "ci-1", nil, actor)
	require.NoError(t, err)
	assert.Empty(t, details)
	assert.Zero(t, f.lot(lotA).QuantityReserved)
	assert.Zero(t, f.lot(lotB).QuantityReserved)
	f.requireConsistent(prodRabia)
}

func TestBindAssignments_SobreCompromiso(t *testing.T) {
	f := newFixture(t, december)
	lotX := f.ingreso("X", day(2024, 6, 1), 60)
	f.item("ci-1", prodRabia, 50)
	f.item("ci-2", prodRabia, 40)

	_, err := f.binder.BindAssignments(f.ctx, "ci-1", []inventory.BindLine{{LotID: lotX, Quantity: 50}}, actor)
	require.NoError(t, err)

	_, err = f.binder.BindAssignments(f.ctx, "ci-2", []inventory.BindLine{{LotID: lotX, Quantity: 20}}, actor)
	assert.ErrorIs(t, err, domain.ErrOverCommit)

	// El rechazo no deja rastros.
	details, err := f.binder.GetAssignments(f.ctx, "ci-2")
	require.NoError(t, err)
	assert.Empty(t, details)
	assert.Equal(t, int64(50), f.lot(lotX).QuantityReserved)

	_, err = f.binder.BindAssignments(f.ctx, "ci-2", []inventory.BindLine{{LotID: lotX, Quantity: 10}}, actor)
	require.NoError(t, err)
	assert.Equal(t, int64(60), f.lot(lotX).QuantityReserved)
	f.requireConsistent(prodRabia)
}

func TestBindAssignments_Rechazos(t *testing.T) {
	f := newFixture(t, december)
	lotX := f.ingreso("X", day(2024, 6, 1), 100)
	f.item("ci-1", prodRabia, 50)
	f.product("otro", true)
	otro, err := f.ledger.RegisterMovement(f.ctx, inventory.MovementInputDTO{ProductID: "otro", Type: "ingreso", Quantity: 10})
	require.NoError(t, err)

	cases := []struct {
		name  string
		item  string
		lines []inventory.BindLine
		want  error
	}{
		{"ítem inexistente", "nope", nil, domain.ErrCalendarItemNotFound},
		{"lote vacío", "ci-1", []inventory.BindLine{{Quantity: 1}}, domain.ErrInvalidInput},
		{"cantidad cero", "ci-1", []inventory.BindLine{{LotID: lotX}}, domain.ErrInvalidQuantity},
		{"lote repetido", "ci-1", []inventory.BindLine{{LotID: lotX, Quantity: 1}, {LotID: lotX, Quantity: 1}}, domain.ErrInvalidInput},
		{"excede la dosis", "ci-1", []inventory.BindLine{{LotID: lotX, Quantity: 51}}, domain.ErrInvalidQuantity},
		{"lote inexistente", "ci-1", []inventory.BindLine{{LotID: "nope", Quantity: 1}}, domain.ErrLotNotFound},
		{"lote de otro producto", "ci-1", []inventory.BindLine{{LotID: otro.LotID, Quantity: 1}}, domain.ErrLotNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.binder.BindAssignments(f.ctx, tc.item, tc.lines, actor)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Zero(t, f.lot(lotX).QuantityReserved)
}
