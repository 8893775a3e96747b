// Package pdf genera el reporte de existencias en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + Empresa    │  Fecha de generación         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: Productos / Stock / Reservado / Disponible         │
//	│  ALERTAS: productos en o bajo su umbral                      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Producto | Unidad | Stock | Reservado | Disponible   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  MOVIMIENTOS RECIENTES: Fecha | Tipo | Producto | Cant.      │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
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
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/ports"
)

var _ ports.StockReportRenderer = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 180, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa ports.StockReportRenderer usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// RenderStockReport genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) RenderStockReport(_ context.Context, data *dto.StockReportData) ([]byte, error) {
	if data == nil {
		return nil, fmt.Errorf("pdf: reporte vacío")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte de existencias", true).
		WithAuthor(data.CompanyID, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(data))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	if data.Summary != nil {
		m.AddRows(summaryRow(data.Summary))
		m.AddRows(alertRows(data.Summary)...)
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(sectionTitle("EXISTENCIAS POR PRODUCTO"))
	m.AddRows(productHeaderRow())
	m.AddRows(productRows(data.Products)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(sectionTitle("MOVIMIENTOS RECIENTES"))
	m.AddRows(movementHeaderRow())
	m.AddRows(movementRows(data.Movements)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: título y empresa (izq), fecha de generación (der).
func headerRow(data *dto.StockReportData) core.Row {
	label := ""
	if data.Summary != nil {
		label = data.Summary.DateLabel
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New("REPORTE DE EXISTENCIAS", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Empresa: "+data.CompanyID, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(nonEmpty(label, "-"), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 2,
			}),
			text.New("Generado: "+data.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 10, Color: colorGray,
			}),
		),
	)
}

// summaryRow: cuatro indicadores agregados.
func summaryRow(s *dto.DashboardSummaryDTO) core.Row {
	kpi := func(title, value string) core.Col {
		return col.New(3).Add(
			text.New(title, props.Text{Size: 7, Color: colorGray, Top: 1, Align: align.Center}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 11, Top: 5, Align: align.Center}),
		)
	}
	return row.New(14).Add(
		kpi("PRODUCTOS", fmt.Sprintf("%d", s.ProductCount)),
		kpi("STOCK TOTAL", formatQty(s.TotalStock)),
		kpi("RESERVADO", formatQty(s.TotalReserved)),
		kpi("DISPONIBLE", formatQty(s.TotalAvailable)),
	)
}

// alertRows: productos con stock bajo, en rojo.
func alertRows(s *dto.DashboardSummaryDTO) []core.Row {
	if len(s.LowStock) == 0 {
		return nil
	}
	rows := []core.Row{sectionTitle(fmt.Sprintf("STOCK BAJO (%d)", len(s.LowStock)))}
	for _, a := range s.LowStock {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New(fmt.Sprintf("%s: disponible %s, umbral %s", a.Name, formatQty(a.Available), formatQty(a.Threshold)),
				props.Text{Size: 8, Color: colorAlert, Left: 2}),
		)))
	}
	return rows
}

func sectionTitle(s string) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(s, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2}),
	))
}

func headerCell(label string, size int, a align.Type) core.Col {
	return col.New(size).Add(text.New(label, props.Text{
		Style: fontstyle.Bold, Size: 8, Align: a, Top: 1, Left: 1, Right: 1,
	}))
}

func cell(value string, size int, a align.Type) core.Col {
	return col.New(size).Add(text.New(value, props.Text{
		Size: 8, Align: a, Top: 1, Left: 1, Right: 1,
	}))
}

func productHeaderRow() core.Row {
	return row.New(7).Add(
		headerCell("Producto", 4, align.Left),
		headerCell("Unidad", 1, align.Center),
		headerCell("Stock", 2, align.Right),
		headerCell("Reservado", 2, align.Right),
		headerCell("Disponible", 2, align.Right),
		headerCell("Alerta", 1, align.Center),
	)
}

// productRows: una fila por producto, en el orden de la proyección.
func productRows(products []dto.ProductResponse) []core.Row {
	result := make([]core.Row, 0, len(products))
	for _, p := range products {
		flag := ""
		if p.LowStock {
			flag = "BAJO"
		}
		result = append(result, row.New(6).Add(
			cell(p.Name, 4, align.Left),
			cell(p.Unit, 1, align.Center),
			cell(formatQty(p.Stock), 2, align.Right),
			cell(formatQty(p.ReservedStock), 2, align.Right),
			cell(formatQty(p.Available), 2, align.Right),
			cell(flag, 1, align.Center),
		))
	}
	return result
}

func movementHeaderRow() core.Row {
	return row.New(7).Add(
		headerCell("Fecha", 2, align.Left),
		headerCell("Tipo", 2, align.Left),
		headerCell("Producto", 3, align.Left),
		headerCell("Cant.", 1, align.Right),
		headerCell("Usuario", 2, align.Left),
		headerCell("Motivo", 2, align.Left),
	)
}

func movementRows(movements []dto.MovementResponse) []core.Row {
	result := make([]core.Row, 0, len(movements))
	for _, mv := range movements {
		kind := mv.Type
		if mv.IsAudit {
			kind += " (auditoría)"
		}
		result = append(result, row.New(6).Add(
			cell(mv.Timestamp.Format("02/01/2006 15:04"), 2, align.Left),
			cell(kind, 2, align.Left),
			cell(mv.ProductName, 3, align.Left),
			cell(formatQty(mv.Quantity), 1, align.Right),
			cell(nonEmpty(mv.UserName, mv.UserID), 2, align.Left),
			cell(mv.Reason, 2, align.Left),
		))
	}
	return result
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatQty formato local: punto de miles y coma decimal, hasta dos decimales.
// Ej: 25000 → "25.000", -1234.5 → "-1.234,50"
func formatQty(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	if d.Equal(d.Truncate(0)) {
		return sign + groupThousands(d.StringFixed(0))
	}
	intPart, frac, _ := strings.Cut(d.StringFixed(2), ".")
	return sign + groupThousands(intPart) + "," + frac
}

// groupThousands inserta puntos de miles en un string numérico sin decimales.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
