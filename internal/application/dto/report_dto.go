package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
)

// ProblemResponse problema detectado en un ítem.
type ProblemResponse struct {
	Type     string   `json:"tipo"`
	Severity string   `json:"severidad"`
	Detail   string   `json:"detalle"`
	LotIDs   []string `json:"lot_ids,omitempty"`
}

// ItemDiagnosisResponse problemas de un ítem de calendario.
type ItemDiagnosisResponse struct {
	CalendarItemID       string            `json:"calendar_item_id"`
	ProductID            string            `json:"product_id"`
	ScheduledDate        string            `json:"scheduled_date"`
	DoseQuantityRequired int64             `json:"dose_quantity_required"`
	QuantityAssigned     int64             `json:"quantity_assigned"`
	Problems             []ProblemResponse `json:"problemas"`
}

// ReportSummaryResponse resumen del reporte.
type ReportSummaryResponse struct {
	TotalItems          int             `json:"total_items"`
	ItemsSinProblemas   int             `json:"items_sin_problemas"`
	ItemsConProblemas   int             `json:"items_con_problemas"`
	AlertasPreventivas  int             `json:"alertas_preventivas"`
	PorTipo             map[string]int  `json:"por_tipo"`
	PorcentajeSaludable decimal.Decimal `json:"porcentaje_saludable"`
}

// ReportResponse reporte de verificación de un contrato.
type ReportResponse struct {
	ContractID        string                  `json:"contract_id"`
	ReferenceDate     string                  `json:"fecha_referencia"`
	Items             []ItemDiagnosisResponse `json:"items"`
	Summary           ReportSummaryResponse   `json:"resumen"`
	RequiresAttention bool                    `json:"requiere_atencion"`
}

// ArchiveReportResponse URL temporal del PDF archivado.
type ArchiveReportResponse struct {
	ContractID string `json:"contract_id"`
	URL        string `json:"url"`
}

// ToReportResponse mapea el reporte de dominio.
func ToReportResponse(r *entity.Report) ReportResponse {
	out := ReportResponse{
		ContractID:        r.ContractID,
		ReferenceDate:     r.ReferenceDate.Format(DateLayout),
		Items:             make([]ItemDiagnosisResponse, 0, len(r.Items)),
		RequiresAttention: r.RequiresAttention,
		Summary: ReportSummaryResponse{
			TotalItems:          r.Summary.TotalItems,
			ItemsSinProblemas:   r.Summary.ItemsSinProblemas,
			ItemsConProblemas:   r.Summary.ItemsConProblemas,
			AlertasPreventivas:  r.Summary.AlertasPreventivas,
			PorTipo:             make(map[string]int, len(r.Summary.PorTipo)),
			PorcentajeSaludable: r.Summary.PorcentajeSaludable,
		},
	}
	for t, n := range r.Summary.PorTipo {
		out.Summary.PorTipo[string(t)] = n
	}
	for _, it := range r.Items {
		item := ItemDiagnosisResponse{
			CalendarItemID:       it.CalendarItemID,
			ProductID:            it.ProductID,
			ScheduledDate:        it.ScheduledDate.Format(DateLayout),
			DoseQuantityRequired: it.DoseQuantityRequired,
			QuantityAssigned:     it.QuantityAssigned,
			Problems:             make([]ProblemResponse, 0, len(it.Problems)),
		}
		for _, p := range it.Problems {
			item.Problems = append(item.Problems, ProblemResponse{
				Type:     string(p.Type),
				Severity: string(p.Severity),
				Detail:   p.Detail,
				LotIDs:   p.LotIDs,
			})
		}
		out.Items = append(out.Items, item)
	}
	return out
}
