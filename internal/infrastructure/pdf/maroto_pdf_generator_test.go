package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
)

func TestFormatQty(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"999", "999"},
		{"25000", "25.000"},
		{"1000000", "1.000.000"},
		{"-1234.5", "-1.234,50"},
		{"0.125", "0,13"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatQty(decimal.RequireFromString(tt.in)), tt.in)
	}
}

func TestRenderStockReport(t *testing.T) {
	data := &dto.StockReportData{
		CompanyID:   "c-1",
		GeneratedAt: time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC),
		Summary: &dto.DashboardSummaryDTO{
			ProductCount:   1,
			TotalStock:     decimal.NewFromInt(10),
			TotalAvailable: decimal.NewFromInt(10),
			LowStock:       []dto.StockAlertDTO{{Name: "Café", Available: decimal.NewFromInt(1), Threshold: decimal.NewFromInt(5)}},
			DateLabel:      "Octubre 2026",
		},
		Products: []dto.ProductResponse{{Name: "Café", Unit: "kg", Stock: decimal.NewFromInt(10), Available: decimal.NewFromInt(10)}},
		Movements: []dto.MovementResponse{{
			Type: "IN", ProductName: "Café", Quantity: decimal.NewFromInt(10), UserName: "Ana",
			Timestamp: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
		}},
	}

	out, err := NewMarotoPDFGenerator().RenderStockReport(context.Background(), data)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewMarotoPDFGenerator().RenderStockReport(context.Background(), nil)
	assert.Error(t, err)
}
