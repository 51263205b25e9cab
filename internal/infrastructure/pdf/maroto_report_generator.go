// Package pdf genera la versión imprimible del reporte de verificación de un contrato.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + Contrato   │  Fecha referencia + Estado   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: total / sin problemas / con problemas / % sano    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Fecha | Ítem | Req. | Asig. | Problemas             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR del contrato + leyenda                          │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jhoicas/Inventario-vacunas/internal/application/inventory"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorError   = &props.Color{Red: 180, Green: 30, Blue: 30}
	colorWarning = &props.Color{Red: 200, Green: 120, Blue: 0}
	colorOK      = &props.Color{Red: 20, Green: 120, Blue: 60}
)

// Cantidades con separador de miles en español (1.234.567).
var es = message.NewPrinter(language.Spanish)

func formatQuantity(n int64) string { return es.Sprintf("%d", n) }

// ── Generator ─────────────────────────────────────────────────────────────────

var _ inventory.ReportRenderer = (*MarotoReportGenerator)(nil)

// MarotoReportGenerator implementa inventory.ReportRenderer usando Maroto v2.
type MarotoReportGenerator struct {
	company string
}

// NewMarotoReportGenerator construye el generador; company aparece como autor del documento.
func NewMarotoReportGenerator(company string) *MarotoReportGenerator {
	return &MarotoReportGenerator{company: company}
}

// RenderReportPDF genera el PDF y devuelve sus bytes.
func (g *MarotoReportGenerator) RenderReportPDF(_ context.Context, report *entity.Report) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Verificación de lotes "+report.ContractID, true).
		WithAuthor(g.company, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(report.Summary))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range itemRows(report.Items) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(report))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(report *entity.Report) core.Row {
	status, color := "SIN ALERTAS CRÍTICAS", colorOK
	if report.RequiresAttention {
		status, color = "REQUIERE ATENCIÓN", colorError
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New("VERIFICACIÓN DE LOTES", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Contrato: "+report.ContractID, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("Fecha de referencia: "+report.ReferenceDate.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 2, Color: colorGray,
			}),
			text.New(status, props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 8, Color: color,
			}),
		),
	)
}

func summaryRow(s entity.ReportSummary) core.Row {
	cell := func(label, value string) core.Col {
		return col.New(3).Add(
			text.New(label, props.Text{Size: 7, Align: align.Center, Color: colorGray, Top: 1}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 11, Align: align.Center, Top: 5}),
		)
	}
	return row.New(14).Add(
		cell("Dosis", formatQuantity(int64(s.TotalItems))),
		cell("Sin problemas", formatQuantity(int64(s.ItemsSinProblemas))),
		cell("Con problemas", fmt.Sprintf("%s (%s alertas)", formatQuantity(int64(s.ItemsConProblemas)), formatQuantity(int64(s.AlertasPreventivas)))),
		cell("% saludable", s.PorcentajeSaludable.StringFixed(2)+"%"),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Fecha", 2, align.Left),
		h("Ítem", 2, align.Left),
		h("Req.", 1, align.Center),
		h("Asig.", 1, align.Center),
		h("Problemas", 6, align.Left),
	)
}

// itemRows una fila por dosis; la altura crece con la cantidad de problemas.
func itemRows(items []entity.ItemDiagnosis) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		problems, color := "—", colorOK
		if len(it.Problems) > 0 {
			lines := make([]string, 0, len(it.Problems))
			color = colorWarning
			for _, p := range it.Problems {
				lines = append(lines, fmt.Sprintf("[%s] %s: %s", p.Severity, p.Type, p.Detail))
				if p.Severity == entity.SeverityError {
					color = colorError
				}
			}
			problems = strings.Join(lines, "\n")
		}
		height := 7.0 + 4*float64(max(len(it.Problems)-1, 0))
		result = append(result, row.New(height).Add(
			col.New(2).Add(text.New(it.ScheduledDate.Format("02/01/2006"), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(it.CalendarItemID, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(1).Add(text.New(formatQuantity(it.DoseQuantityRequired), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(1).Add(text.New(formatQuantity(it.QuantityAssigned), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(6).Add(text.New(problems, props.Text{Size: 7, Top: 1, Left: 1, Color: color})),
		))
	}
	return result
}

func footerRow(report *entity.Report) core.Row {
	return row.New(30).Add(
		col.New(3).Add(code.NewQr("contrato:"+report.ContractID+"|"+report.ReferenceDate.Format("2006-01-02"), props.Rect{
			Percent: 90,
			Center:  true,
		})),
		col.New(9).Add(
			text.New("Los problemas se recalculan en cada verificación contra el estado actual de los lotes.", props.Text{
				Size: 7, Top: 4, Left: 3, Color: colorGray,
			}),
			text.New("Severidad error: requiere acción antes de aplicar la dosis.", props.Text{
				Size: 7, Top: 10, Left: 3, Color: colorGray,
			}),
		),
	)
}
