// Package xlsx exporta tramos del log de movimientos a hojas de cálculo.
package xlsx

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

var _ ports.MovementExporter = (*MovementExporter)(nil)

const sheetName = "Movimientos"

var headers = []any{
	"Fecha", "Tipo", "Producto", "Cantidad", "Origen", "Destino",
	"Usuario", "Motivo", "Referencia", "Auditoría", "Conteo sistema", "Conteo físico",
}

// MovementExporter implementa ports.MovementExporter con excelize.
type MovementExporter struct{}

func NewMovementExporter() *MovementExporter { return &MovementExporter{} }

// ExportMovements escribe una fila por movimiento, en el orden recibido.
func (e *MovementExporter) ExportMovements(ctx context.Context, movements []*entity.StockMovement) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("xlsx: hoja: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx: estilo: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return nil, fmt.Errorf("xlsx: cabecera: %w", err)
	}
	if err := f.SetRowStyle(sheetName, 1, 1, bold); err != nil {
		return nil, fmt.Errorf("xlsx: estilo cabecera: %w", err)
	}

	for i, m := range movements {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := rowValues(m)
		if err := f.SetSheetRow(sheetName, cellRef, &values); err != nil {
			return nil, fmt.Errorf("xlsx: fila %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 18)
	_ = f.SetColWidth(sheetName, "C", "C", 28)
	_ = f.SetColWidth(sheetName, "H", "H", 32)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: escribir: %w", err)
	}
	return buf.Bytes(), nil
}

func rowValues(m *entity.StockMovement) []any {
	audit := "No"
	if m.IsAudit {
		audit = "Sí"
	}
	var before, physical any
	if m.SystemCountBefore != nil {
		before = m.SystemCountBefore.InexactFloat64()
	}
	if m.PhysicalCount != nil {
		physical = m.PhysicalCount.InexactFloat64()
	}
	user := m.UserName
	if user == "" {
		user = m.UserID
	}
	return []any{
		m.Timestamp.Format("2006-01-02 15:04:05"),
		string(m.Type),
		m.ProductName,
		m.Quantity.InexactFloat64(),
		m.FromLocationID,
		m.ToLocationID,
		user,
		m.Reason,
		m.Reference,
		audit,
		before,
		physical,
	}
}
