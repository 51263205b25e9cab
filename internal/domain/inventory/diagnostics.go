package inventory

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ClassifyInput datos necesarios para clasificar un ítem de calendario.
type ClassifyInput struct {
	Item *entity.CalendarItem
	// ProductLots todos los lotes del producto del ítem (incluye retirados y vencidos).
	ProductLots []*entity.Lot
	// Lots índice por ID de los lotes asignados (pueden pertenecer a ProductLots).
	Lots             map[string]*entity.Lot
	Today            time.Time
	NearExpiryWindow time.Duration
}

// Classify evalúa un ítem contra el estado actual de los lotes y devuelve sus problemas
// en orden de prioridad. Cada tipo aparece a lo sumo una vez; tipos distintos pueden coexistir.
func Classify(in ClassifyInput) []entity.Problem {
	item := in.Item
	var problems []entity.Problem
	add := func(t entity.ProblemType, sev entity.Severity, detail string, lotIDs ...string) {
		problems = append(problems, entity.Problem{
			CalendarItemID: item.ID,
			Type:           t,
			Severity:       sev,
			Detail:         detail,
			LotIDs:         lotIDs,
		})
	}

	assigned := item.AssignedQuantity()
	needsStock := assigned < item.DoseQuantityRequired

	if len(item.Assignments) == 0 {
		add(entity.ProblemSinLote, entity.SeverityError, "la dosis no tiene lote asignado")
	}

	var missing []string
	for _, a := range item.Assignments {
		if _, ok := in.Lots[a.LotID]; !ok {
			missing = append(missing, a.LotID)
		}
	}
	switch {
	case len(in.ProductLots) == 0:
		add(entity.ProblemStockInexistente, entity.SeverityError, "el producto no tiene lotes registrados")
	case len(missing) > 0:
		add(entity.ProblemStockInexistente, entity.SeverityError, "lote asignado no existe", missing...)
	}

	if needsStock && len(in.ProductLots) > 0 && len(CandidateLots(in.ProductLots, in.Today)) == 0 {
		add(entity.ProblemStockNoDisponible, entity.SeverityError, "ningún lote vigente del producto tiene cantidad disponible")
	}

	if len(item.Assignments) > 0 && needsStock {
		add(entity.ProblemCantidadInsuficiente, entity.SeverityError,
			fmt.Sprintf("asignado %d de %d requeridas", assigned, item.DoseQuantityRequired))
	}

	var expired, nearExpiry, onlyReserved []*entity.Lot
	for _, a := range item.Assignments {
		lot, ok := in.Lots[a.LotID]
		if !ok {
			continue
		}
		switch {
		case lot.IsExpiredAt(in.Today):
			expired = append(expired, lot)
		case lot.ExpiresWithin(in.Today, in.NearExpiryWindow):
			nearExpiry = append(nearExpiry, lot)
		}
		if lot.Available() == 0 && lot.QuantityReserved > 0 && a.QuantityAssigned > 0 {
			onlyReserved = append(onlyReserved, lot)
		}
	}
	if len(expired) > 0 {
		add(entity.ProblemLoteVencido, entity.SeverityError,
			"lote vencido: "+describeLots(expired, in.Today), lotIDs(expired)...)
	}
	if len(nearExpiry) > 0 {
		add(entity.ProblemVencimientoProximo, entity.SeverityWarning,
			"vence pronto: "+describeLots(nearExpiry, in.Today), lotIDs(nearExpiry)...)
	}
	if len(onlyReserved) > 0 {
		add(entity.ProblemSoloReservado, entity.SeverityInfo,
			"el lote solo tiene existencias reservadas: "+describeLots(onlyReserved, in.Today), lotIDs(onlyReserved)...)
	}
	return problems
}

// Summarize arma el reporte de un contrato a partir de los diagnósticos por ítem.
func Summarize(contractID string, today time.Time, items []entity.ItemDiagnosis) *entity.Report {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].ScheduledDate.Equal(items[j].ScheduledDate) {
			return items[i].ScheduledDate.Before(items[j].ScheduledDate)
		}
		return items[i].CalendarItemID < items[j].CalendarItemID
	})

	summary := entity.ReportSummary{
		TotalItems:          len(items),
		PorTipo:             make(map[entity.ProblemType]int, len(entity.ProblemTypes)),
		PorcentajeSaludable: decimal.Zero,
	}
	report := &entity.Report{ContractID: contractID, ReferenceDate: entity.CalendarDay(today), Items: items}
	for _, it := range items {
		if len(it.Problems) == 0 {
			summary.ItemsSinProblemas++
			continue
		}
		summary.ItemsConProblemas++
		for _, p := range it.Problems {
			summary.PorTipo[p.Type]++
			if p.Severity == entity.SeverityWarning {
				summary.AlertasPreventivas++
			}
			if p.Severity == entity.SeverityError {
				report.RequiresAttention = true
			}
		}
	}
	if summary.TotalItems > 0 {
		summary.PorcentajeSaludable = decimal.NewFromInt(int64(summary.ItemsSinProblemas)).
			Div(decimal.NewFromInt(int64(summary.TotalItems))).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}
	report.Summary = summary
	return report
}

func describeLots(lots []*entity.Lot, today time.Time) string {
	parts := make([]string, 0, len(lots))
	for _, l := range lots {
		if l.ExpirationDate == nil {
			parts = append(parts, l.Code)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%s, %d días)", l.Code, l.ExpirationDate.Format("2006-01-02"), l.DaysUntilExpiry(today)))
	}
	return strings.Join(parts, ", ")
}

func lotIDs(lots []*entity.Lot) []string {
	ids := make([]string, len(lots))
	for i, l := range lots {
		ids[i] = l.ID
	}
	return ids
}
