// Package metrics expone la instrumentación del motor de stock en formato Prometheus.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/Inventario-vacunas/internal/application/inventory"
	"github.com/jhoicas/Inventario-vacunas/internal/domain"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
)

var _ inventory.Metrics = (*Prometheus)(nil)

const namespace = "vacunas_stock"

// Prometheus implementa inventory.Metrics.
type Prometheus struct {
	movements      *prometheus.CounterVec
	rejections     *prometheus.CounterVec
	allocations    *prometheus.CounterVec
	shortfall      prometheus.Counter
	verifyDuration prometheus.Histogram
	itemsProblem   prometheus.Counter
}

// NewPrometheus registra los colectores en reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "movements_total",
			Help:      "Movimientos confirmados por tipo.",
		}, []string{"type"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "movements_rejected_total",
			Help:      "Movimientos rechazados por tipo y motivo.",
		}, []string{"type", "reason"}),
		allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocations_total",
			Help:      "Asignaciones FEFO, completas o con faltante.",
		}, []string{"result"}),
		shortfall: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocation_shortfall_units_total",
			Help:      "Unidades no cubiertas por las asignaciones.",
		}),
		verifyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "verification_duration_seconds",
			Help:      "Duración de la verificación de un contrato.",
			Buckets:   prometheus.DefBuckets,
		}),
		itemsProblem: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_items_with_problems_total",
			Help:      "Ítems con al menos un problema en las verificaciones.",
		}),
	}
	reg.MustRegister(p.movements, p.rejections, p.allocations, p.shortfall, p.verifyDuration, p.itemsProblem)
	return p
}

func (p *Prometheus) MovementApplied(t entity.MovementType) {
	p.movements.WithLabelValues(string(t)).Inc()
}

func (p *Prometheus) MovementRejected(t entity.MovementType, err error) {
	if _, ok := entity.ParseMovementType(string(t)); !ok {
		t = "desconocido"
	}
	p.rejections.WithLabelValues(string(t), Reason(err)).Inc()
}

func (p *Prometheus) AllocationDone(shortfall int64) {
	if shortfall > 0 {
		p.allocations.WithLabelValues("faltante").Inc()
		p.shortfall.Add(float64(shortfall))
		return
	}
	p.allocations.WithLabelValues("completa").Inc()
}

func (p *Prometheus) VerificationDone(d time.Duration, report *entity.Report) {
	p.verifyDuration.Observe(d.Seconds())
	if report != nil {
		p.itemsProblem.Add(float64(report.Summary.ItemsConProblemas))
	}
}

// Reason etiqueta de baja cardinalidad para un error del motor.
func Reason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, domain.ErrLockTimeout):
		return "lock_timeout"
	case errors.Is(err, domain.ErrInconsistentState):
		return "inconsistent_state"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, domain.ErrInvalidMovementType):
		return "invalid_type"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrReservationExceedsStock):
		return "reservation_exceeds_stock"
	case errors.Is(err, domain.ErrReleaseExceedsReserved):
		return "release_exceeds_reserved"
	case errors.Is(err, domain.ErrLotNotFound):
		return "lot_not_found"
	case errors.Is(err, domain.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	default:
		return "other"
	}
}
