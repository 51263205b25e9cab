package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-vacunas/internal/domain"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/inventory"
)

const (
	defaultMovementsLimit = 50
	maxMovementsLimit     = 500
)

// StockQueryUseCase consultas de solo lectura: stock actual, vista previa FEFO y libro de movimientos.
type StockQueryUseCase struct {
	txRunner TxRunner
	now      func() time.Time
}

func NewStockQueryUseCase(txRunner TxRunner, opts Options) *StockQueryUseCase {
	opts = opts.withDefaults()
	return &StockQueryUseCase{txRunner: txRunner, now: opts.Now}
}

// StockView stock de un producto con sus lotes (ordenados FEFO) y valorización.
type StockView struct {
	Product        *entity.Product
	Quantity       int64
	Reserved       int64
	Available      int64
	AverageCost    decimal.Decimal
	InventoryValue decimal.Decimal
	Lots           []*entity.Lot
}

// GetCurrentStock devuelve el stock agregado del producto y el estado de cada lote.
func (uc *StockQueryUseCase) GetCurrentStock(ctx context.Context, productID string) (*StockView, error) {
	var view *StockView
	err := uc.txRunner.Run(ctx, func(r Repos) error {
		product, err := r.Products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrProductNotFound
		}
		stock, err := r.Stock.Get(ctx, productID)
		if err != nil {
			return err
		}
		lots, err := r.Lots.ListByProduct(ctx, productID)
		if err != nil {
			return err
		}
		inventory.SortFEFO(lots)
		view = &StockView{Product: product, Lots: lots}
		if stock != nil {
			view.Quantity = stock.Quantity
		}
		for _, l := range lots {
			view.Reserved += l.QuantityReserved
		}
		view.Available = view.Quantity - view.Reserved
		view.AverageCost, view.InventoryValue = inventory.WeightedLotCost(lots)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// PreviewAllocation simula la selección FEFO sin reservar nada.
func (uc *StockQueryUseCase) PreviewAllocation(ctx context.Context, productID string, quantity int64) (*AllocationResult, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	res := &AllocationResult{ProductID: productID, Required: quantity}
	err := uc.txRunner.Run(ctx, func(r Repos) error {
		product, err := r.Products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrProductNotFound
		}
		res.StockControlled = product.RequiresStockControl
		if !product.RequiresStockControl {
			return nil
		}
		lots, err := r.Lots.ListByProduct(ctx, productID)
		if err != nil {
			return err
		}
		sel := inventory.SelectFEFO(lots, quantity, uc.now())
		res.Shortfall = sel.Shortfall
		res.ExpiredLotIDs = sel.ExpiredLotIDs
		for _, p := range sel.Picks {
			res.Assignments = append(res.Assignments, AllocationLine{
				LotID:          p.Lot.ID,
				LotCode:        p.Lot.Code,
				ExpirationDate: p.Lot.ExpirationDate,
				Quantity:       p.Quantity,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ListMovements consulta el libro con filtros opcionales, del más reciente al más antiguo.
func (uc *StockQueryUseCase) ListMovements(ctx context.Context, filter entity.MovementFilter) ([]*entity.Movement, error) {
	if filter.Type != "" {
		t, ok := entity.ParseMovementType(string(filter.Type))
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidMovementType, filter.Type)
		}
		filter.Type = t
	}
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateTo.Before(*filter.DateFrom) {
		return nil, fmt.Errorf("%w: date_to anterior a date_from", domain.ErrInvalidInput)
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultMovementsLimit
	}
	if filter.Limit > maxMovementsLimit {
		filter.Limit = maxMovementsLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	var out []*entity.Movement
	err := uc.txRunner.Run(ctx, func(r Repos) error {
		var err error
		out, err = r.Movements.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
