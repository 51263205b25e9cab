package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-vacunas/internal/domain"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/inventory"
)

// VerifyContractUseCase motor de diagnóstico: re-valida cada dosis del contrato contra el estado
// actual de los lotes. Es de solo lectura; se puede ejecutar en paralelo con escrituras.
type VerifyContractUseCase struct {
	txRunner TxRunner
	cache    ReportCache
	metrics  Metrics
	log      zerolog.Logger
	window   time.Duration
	now      func() time.Time
}

// NewVerifyContractUseCase construye el motor. cache y metrics pueden ser nil.
func NewVerifyContractUseCase(txRunner TxRunner, cache ReportCache, metrics Metrics, log zerolog.Logger, opts Options) *VerifyContractUseCase {
	if cache == nil {
		cache = NopCache
	}
	if metrics == nil {
		metrics = NopMetrics
	}
	opts = opts.withDefaults()
	return &VerifyContractUseCase{
		txRunner: txRunner,
		cache:    cache,
		metrics:  metrics,
		log:      log.With().Str("component", "diagnostics").Logger(),
		window:   opts.NearExpiryWindow,
		now:      opts.Now,
	}
}

// VerifyContract clasifica los problemas de cada ítem del contrato y arma el resumen.
// Los problemas son datos del reporte; solo fallas de infraestructura devuelven error.
func (uc *VerifyContractUseCase) VerifyContract(ctx context.Context, contractID string) (*entity.Report, error) {
	if contractID == "" {
		return nil, fmt.Errorf("%w: contract_id requerido", domain.ErrInvalidInput)
	}
	start := time.Now()
	today := uc.now()

	var diagnoses []entity.ItemDiagnosis
	err := uc.txRunner.Run(ctx, func(r Repos) error {
		items, err := r.Calendar.ListByContract(ctx, contractID)
		if err != nil {
			return err
		}
		products := make(map[string]*entity.Product)
		lotsByProduct := make(map[string][]*entity.Lot)
		diagnoses = make([]entity.ItemDiagnosis, 0, len(items))
		for _, item := range items {
			product, ok := products[item.ProductID]
			if !ok {
				if product, err = r.Products.GetByID(ctx, item.ProductID); err != nil {
					return err
				}
				products[item.ProductID] = product
			}
			d := entity.ItemDiagnosis{
				CalendarItemID:       item.ID,
				ProductID:            item.ProductID,
				ScheduledDate:        item.ScheduledDate,
				DoseQuantityRequired: item.DoseQuantityRequired,
				QuantityAssigned:     item.AssignedQuantity(),
				Problems:             []entity.Problem{},
			}
			// Productos sin control de stock no generan problemas
			if product != nil && !product.RequiresStockControl {
				diagnoses = append(diagnoses, d)
				continue
			}
			lots, ok := lotsByProduct[item.ProductID]
			if !ok {
				if lots, err = r.Lots.ListByProduct(ctx, item.ProductID); err != nil {
					return err
				}
				lotsByProduct[item.ProductID] = lots
			}
			index := make(map[string]*entity.Lot, len(lots))
			for _, l := range lots {
				index[l.ID] = l
			}
			if problems := inventory.Classify(inventory.ClassifyInput{
				Item:             item,
				ProductLots:      lots,
				Lots:             index,
				Today:            today,
				NearExpiryWindow: uc.window,
			}); len(problems) > 0 {
				d.Problems = problems
			}
			diagnoses = append(diagnoses, d)
		}
		return nil
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("contract_id", contractID).Msg("verificación fallida")
		return nil, err
	}

	report := inventory.Summarize(contractID, today, diagnoses)
	uc.metrics.VerificationDone(time.Since(start), report)
	if err := uc.cache.SaveReport(ctx, report); err != nil {
		uc.log.Warn().Err(err).Str("contract_id", contractID).Msg("no se pudo guardar el reporte en caché")
	}
	uc.log.Debug().
		Str("contract_id", contractID).
		Int("items", report.Summary.TotalItems).
		Int("con_problemas", report.Summary.ItemsConProblemas).
		Bool("requires_attention", report.RequiresAttention).
		Msg("contrato verificado")
	return report, nil
}

// LastReport devuelve el último reporte en caché o lo recalcula si no existe.
func (uc *VerifyContractUseCase) LastReport(ctx context.Context, contractID string) (*entity.Report, error) {
	report, err := uc.cache.LastReport(ctx, contractID)
	if err != nil {
		uc.log.Warn().Err(err).Str("contract_id", contractID).Msg("caché de reportes no disponible")
	}
	if report != nil {
		return report, nil
	}
	return uc.VerifyContract(ctx, contractID)
}

// RefreshUpcoming recalcula el reporte de los contratos con dosis programadas en los próximos
// horizon días. Lo usa el job de refresco; los errores por contrato se registran y no detienen el resto.
func (uc *VerifyContractUseCase) RefreshUpcoming(ctx context.Context, horizon time.Duration) (int, error) {
	from := uc.now()
	var contracts []string
	err := uc.txRunner.Run(ctx, func(r Repos) error {
		var err error
		contracts, err = r.Calendar.ListContractsWithDosesBetween(ctx, from, from.Add(horizon))
		return err
	})
	if err != nil {
		return 0, err
	}
	refreshed := 0
	for _, id := range contracts {
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}
		if _, err := uc.VerifyContract(ctx, id); err != nil {
			continue
		}
		refreshed++
	}
	return refreshed, nil
}
