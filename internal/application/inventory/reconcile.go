package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-vacunas/internal/domain"
)

// ReconcileUseCase compara el stock agregado, la suma de lotes y la reproducción del libro de un
// producto. Nunca repara: una diferencia se reporta como ErrInconsistentState.
type ReconcileUseCase struct {
	txRunner TxRunner
	log      zerolog.Logger
}

func NewReconcileUseCase(txRunner TxRunner, log zerolog.Logger) *ReconcileUseCase {
	return &ReconcileUseCase{txRunner: txRunner, log: log.With().Str("component", "reconciler").Logger()}
}

// ReconcileResult totales observados bajo el lock del producto.
type ReconcileResult struct {
	ProductID     string
	Aggregate     int64
	LotsOnHand    int64
	LedgerBalance int64
	Issues        []string
}

// Consistent indica si los tres totales y las invariantes por lote coinciden.
func (r *ReconcileResult) Consistent() bool { return len(r.Issues) == 0 }

// Reconcile devuelve el resultado y, si hay diferencias, un error que envuelve ErrInconsistentState.
func (uc *ReconcileUseCase) Reconcile(ctx context.Context, productID string) (*ReconcileResult, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: product_id requerido", domain.ErrInvalidInput)
	}
	res := &ReconcileResult{ProductID: productID}
	err := uc.txRunner.Run(ctx, func(r Repos) error {
		product, err := r.Products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrProductNotFound
		}
		stock, err := r.Stock.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		res.Aggregate = stock.Quantity
		lots, err := r.Lots.ListByProduct(ctx, productID)
		if err != nil {
			return err
		}
		for _, l := range lots {
			res.LotsOnHand += l.QuantityOnHand
			if l.QuantityOnHand < 0 || l.QuantityReserved < 0 || l.QuantityReserved > l.QuantityOnHand {
				res.Issues = append(res.Issues, fmt.Sprintf("lote %s: existencias %d reservado %d", l.ID, l.QuantityOnHand, l.QuantityReserved))
			}
			assigned, err := r.Calendar.SumAssignedByLot(ctx, l.ID, "")
			if err != nil {
				return err
			}
			if assigned > l.QuantityOnHand {
				res.Issues = append(res.Issues, fmt.Sprintf("lote %s: asignado %d excede existencias %d", l.ID, assigned, l.QuantityOnHand))
			}
		}
		if res.LedgerBalance, err = r.Movements.SumDelta(ctx, productID); err != nil {
			return err
		}
		if res.Aggregate != res.LotsOnHand || res.Aggregate != res.LedgerBalance {
			res.Issues = append(res.Issues, fmt.Sprintf("agregado %d, suma lotes %d, libro %d", res.Aggregate, res.LotsOnHand, res.LedgerBalance))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !res.Consistent() {
		uc.log.Error().
			Str("product_id", productID).
			Int64("aggregate", res.Aggregate).
			Int64("lots_on_hand", res.LotsOnHand).
			Int64("ledger", res.LedgerBalance).
			Strs("issues", res.Issues).
			Msg("inventario inconsistente")
		return res, fmt.Errorf("%w: %s", domain.ErrInconsistentState, strings.Join(res.Issues, "; "))
	}
	return res, nil
}
