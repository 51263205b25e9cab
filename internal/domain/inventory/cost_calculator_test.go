package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/inventory"
)

func TestCostCalculator(t *testing.T) {
	got := inventory.CostCalculator(
		decimal.NewFromInt(100), decimal.NewFromInt(10),
		decimal.NewFromInt(50), decimal.NewFromInt(16),
	)
	assert.True(t, got.Equal(decimal.NewFromInt(12)), got.String())

	assert.True(t, inventory.CostCalculator(decimal.Zero, decimal.Zero, decimal.Zero, decimal.NewFromInt(5)).IsZero())
}

func TestWeightedLotCost(t *testing.T) {
	lots := []*entity.Lot{
		{ID: "a", QuantityOnHand: 100, UnitCost: decimal.NewFromInt(10)},
		{ID: "b", QuantityOnHand: 50, UnitCost: decimal.NewFromInt(16)},
		{ID: "agotado", QuantityOnHand: 0, UnitCost: decimal.NewFromInt(999)},
	}
	avg, total := inventory.WeightedLotCost(lots)
	assert.Equal(t, "12", avg.String())
	assert.Equal(t, "1800", total.String())

	avg, total = inventory.WeightedLotCost(nil)
	assert.True(t, avg.IsZero())
	assert.True(t, total.IsZero())
}
