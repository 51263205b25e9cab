package inventory

import (
	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CostCalculator implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
func CostCalculator(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	sum := stockActual.Add(cantEntrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return num.Div(sum)
}

// WeightedLotCost acumula el costo promedio ponderado de las existencias de los lotes
// y devuelve también el valor total en existencia.
func WeightedLotCost(lots []*entity.Lot) (avgCost, totalValue decimal.Decimal) {
	stock := decimal.Zero
	avgCost = decimal.Zero
	for _, l := range lots {
		if l.QuantityOnHand <= 0 {
			continue
		}
		qty := decimal.NewFromInt(l.QuantityOnHand)
		avgCost = CostCalculator(stock, avgCost, qty, l.UnitCost)
		stock = stock.Add(qty)
		totalValue = totalValue.Add(qty.Mul(l.UnitCost))
	}
	return avgCost.Round(4), totalValue.Round(2)
}
