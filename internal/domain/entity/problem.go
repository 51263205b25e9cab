package entity

// ProblemType clasifica un problema de inventario detectado para un ítem de calendario.
type ProblemType string

const (
	ProblemSinLote              ProblemType = "sin_lote"
	ProblemStockInexistente     ProblemType = "stock_inexistente"
	ProblemStockNoDisponible    ProblemType = "stock_no_disponible"
	ProblemCantidadInsuficiente ProblemType = "cantidad_insuficiente"
	ProblemLoteVencido          ProblemType = "lote_vencido"
	ProblemVencimientoProximo   ProblemType = "vencimiento_proximo"
	ProblemSoloReservado        ProblemType = "solo_reservado"
)

// ProblemTypes en orden de prioridad de evaluación.
var ProblemTypes = []ProblemType{
	ProblemSinLote, ProblemStockInexistente, ProblemStockNoDisponible, ProblemCantidadInsuficiente,
	ProblemLoteVencido, ProblemVencimientoProximo, ProblemSoloReservado,
}

// Severity de un problema; solo "error" exige atención del operador.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Problem es un hallazgo transitorio: se recalcula en cada verificación.
type Problem struct {
	CalendarItemID string
	Type           ProblemType
	Severity       Severity
	Detail         string
	LotIDs         []string
}
