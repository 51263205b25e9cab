package inventory_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-vacunas/internal/domain"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/inventory"
)

func TestApplyToLot(t *testing.T) {
	cases := []struct {
		name         string
		onHand, res  int64
		typ          entity.MovementType
		qty          int64
		consume      bool
		wantErr      error
		wantOnHand   int64
		wantReserved int64
	}{
		{"ingreso suma existencias", 10, 0, entity.MovementIngreso, 5, false, nil, 15, 0},
		{"ajuste positivo", 10, 4, entity.MovementAjustePositivo, 2, false, nil, 12, 4},
		{"egreso dentro de lo disponible", 10, 4, entity.MovementEgreso, 6, false, nil, 4, 4},
		{"egreso toca lo reservado", 10, 4, entity.MovementEgreso, 7, false, domain.ErrInsufficientStock, 10, 4},
		{"egreso excede existencias", 10, 0, entity.MovementEgreso, 11, false, domain.ErrInsufficientStock, 10, 0},
		{"egreso consumiendo reserva", 10, 4, entity.MovementEgreso, 4, true, nil, 6, 0},
		{"egreso consume más de lo reservado", 10, 4, entity.MovementEgreso, 5, true, domain.ErrReleaseExceedsReserved, 10, 4},
		{"ajuste negativo", 10, 0, entity.MovementAjusteNegativo, 10, false, nil, 0, 0},
		{"ajuste negativo sobre reservado", 10, 5, entity.MovementAjusteNegativo, 6, false, domain.ErrInsufficientStock, 10, 5},
		{"reserva", 10, 4, entity.MovementReserva, 6, false, nil, 10, 10},
		{"reserva excede disponible", 10, 4, entity.MovementReserva, 7, false, domain.ErrReservationExceedsStock, 10, 4},
		{"liberación", 10, 4, entity.MovementLiberacionReserva, 4, false, nil, 10, 0},
		{"liberación excede reservado", 10, 4, entity.MovementLiberacionReserva, 5, false, domain.ErrReleaseExceedsReserved, 10, 4},
		{"cantidad cero", 10, 0, entity.MovementIngreso, 0, false, domain.ErrInvalidQuantity, 10, 0},
		{"tipo desconocido", 10, 0, entity.MovementType("traslado"), 1, false, domain.ErrInvalidMovementType, 10, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lot := &entity.Lot{ID: "L", QuantityOnHand: tc.onHand, QuantityReserved: tc.res}
			err := inventory.ApplyToLot(lot, tc.typ, tc.qty, tc.consume)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.wantOnHand, lot.QuantityOnHand)
			assert.Equal(t, tc.wantReserved, lot.QuantityReserved)
			assert.GreaterOrEqual(t, lot.QuantityOnHand, lot.QuantityReserved)
		})
	}
}

func TestApplyToLot_Desbordamiento(t *testing.T) {
	lot := &entity.Lot{QuantityOnHand: math.MaxInt64 - 1}
	assert.ErrorIs(t, inventory.ApplyToLot(lot, entity.MovementIngreso, 2, false), domain.ErrInvalidQuantity)
	assert.Equal(t, int64(math.MaxInt64-1), lot.QuantityOnHand)
}

// Reserva y liberación del mismo monto dejan el lote como estaba; una liberación extra falla.
func TestApplyToLot_ReservaLiberacionIdaYVuelta(t *testing.T) {
	lot := &entity.Lot{QuantityOnHand: 50, QuantityReserved: 5}
	require.NoError(t, inventory.ApplyToLot(lot, entity.MovementReserva, 20, false))
	require.NoError(t, inventory.ApplyToLot(lot, entity.MovementLiberacionReserva, 20, false))
	assert.Equal(t, int64(5), lot.QuantityReserved)

	require.NoError(t, inventory.ApplyToLot(lot, entity.MovementLiberacionReserva, 5, false))
	assert.ErrorIs(t, inventory.ApplyToLot(lot, entity.MovementLiberacionReserva, 1, false), domain.ErrReleaseExceedsReserved)
}
