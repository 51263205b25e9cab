package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemDiagnosis agrupa los problemas de un ítem de calendario.
type ItemDiagnosis struct {
	CalendarItemID       string
	ProductID            string
	ScheduledDate        time.Time
	DoseQuantityRequired int64
	QuantityAssigned     int64
	Problems             []Problem
}

// ReportSummary agregados del reporte de verificación.
type ReportSummary struct {
	TotalItems          int
	ItemsSinProblemas   int
	ItemsConProblemas   int
	AlertasPreventivas  int
	PorTipo             map[ProblemType]int
	PorcentajeSaludable decimal.Decimal
}

// Report resultado de verificar un contrato. ReferenceDate es el día contra el que se evaluaron
// los vencimientos; dos verificaciones sin mutaciones intermedias producen el mismo Report.
type Report struct {
	ContractID        string
	ReferenceDate     time.Time
	Items             []ItemDiagnosis
	Summary           ReportSummary
	RequiresAttention bool
}
