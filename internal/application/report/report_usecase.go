// Package report orquesta los documentos derivados del ledger: el PDF de existencias
// y la exportación XLSX del log de movimientos.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/application/usecase"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

const (
	reportMovements = 30   // movimientos recientes en el PDF
	exportMaxRows   = 5000 // tope de filas de la hoja exportada
)

// ReportUseCase genera documentos de solo lectura. Nunca escribe en el ledger.
type ReportUseCase struct {
	summaries  usecase.SummarySource
	projection *inventory.StockProjection
	movements  *inventory.MovementLog
	pdf        ports.StockReportRenderer
	xlsx       ports.MovementExporter
	now        func() time.Time
}

// NewReportUseCase construye el caso de uso inyectando los renderizadores.
func NewReportUseCase(
	summaries usecase.SummarySource,
	projection *inventory.StockProjection,
	movements *inventory.MovementLog,
	pdf ports.StockReportRenderer,
	xlsx ports.MovementExporter,
) *ReportUseCase {
	return &ReportUseCase{
		summaries:  summaries,
		projection: projection,
		movements:  movements,
		pdf:        pdf,
		xlsx:       xlsx,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// StockPDF genera el reporte de existencias de la empresa.
//
// Retorna (pdfBytes, filename, nil) si todo sale bien.
func (uc *ReportUseCase) StockPDF(ctx context.Context, companyID string) ([]byte, string, error) {
	summary, err := uc.summaries.GetSummary(ctx, companyID)
	if err != nil {
		return nil, "", fmt.Errorf("reporte: resumen: %w", err)
	}
	snap, err := uc.projection.Snapshot(ctx, companyID)
	if err != nil {
		return nil, "", fmt.Errorf("reporte: %w", err)
	}
	recent, err := uc.movements.Query(ctx, repository.MovementQuery{CompanyID: companyID, Limit: reportMovements})
	if err != nil {
		return nil, "", fmt.Errorf("reporte: movimientos: %w", err)
	}

	data := &dto.StockReportData{
		CompanyID:   companyID,
		GeneratedAt: uc.now(),
		Summary:     summary,
		Movements:   inventory.ToMovementResponses(recent),
	}
	for _, p := range snap.List() {
		data.Products = append(data.Products, inventory.ToProductResponse(p, snap.Levels(p.ID)))
	}

	out, err := uc.pdf.RenderStockReport(ctx, data)
	if err != nil {
		return nil, "", fmt.Errorf("reporte: generar pdf: %w", err)
	}
	return out, fmt.Sprintf("existencias-%s.pdf", data.GeneratedAt.Format("20060102")), nil
}

// ExportInput filtros de la exportación; los mismos de la vista de historial.
type ExportInput struct {
	Query  repository.MovementQuery
	Text   string
	Filter inventory.TypeFilter
}

// MovementsXLSX exporta el tramo del log que cumple los filtros, en orden descendente.
func (uc *ReportUseCase) MovementsXLSX(ctx context.Context, in ExportInput) ([]byte, string, error) {
	q := in.Query
	q.After = nil
	q.Limit = exportMaxRows
	items, err := uc.movements.Query(ctx, q)
	if err != nil {
		return nil, "", err
	}
	items = inventory.FilterMovements(items, in.Text, in.Filter)

	out, err := uc.xlsx.ExportMovements(ctx, items)
	if err != nil {
		return nil, "", fmt.Errorf("exportar movimientos: %w", err)
	}
	return out, fmt.Sprintf("movimientos-%s.xlsx", uc.now().Format("20060102")), nil
}
