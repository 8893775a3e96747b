package ports

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// StockReportRenderer genera el PDF de existencias.
type StockReportRenderer interface {
	RenderStockReport(ctx context.Context, report *dto.StockReportData) ([]byte, error)
}

// MovementExporter genera la hoja de cálculo de un tramo del log de movimientos.
type MovementExporter interface {
	ExportMovements(ctx context.Context, movements []*entity.StockMovement) ([]byte, error)
}
