package dto

import "github.com/shopspring/decimal"

// DashboardSummaryDTO respuesta de GET /api/dashboard/summary.
// Agregados de solo lectura derivados del ledger; también alimentan IA y reportes.
type DashboardSummaryDTO struct {
	ProductCount   int             `json:"product_count"`
	TotalStock     decimal.Decimal `json:"total_stock"`
	TotalReserved  decimal.Decimal `json:"total_reserved"`
	TotalAvailable decimal.Decimal `json:"total_available"`
	PendingSales   int             `json:"pending_sales"`

	LowStock      []StockAlertDTO `json:"low_stock"`
	TopProducts   []TopProductDTO `json:"top_products"` // por unidades vendidas en el mes
	DeadStock     []DeadStockDTO  `json:"dead_stock"`   // stock > 0 sin salidas recientes
	DeadStockDays int             `json:"dead_stock_days"`

	DateLabel string `json:"date_label"` // ej: "Febrero 2026"
}

// StockAlertDTO producto en o por debajo de su umbral.
type StockAlertDTO struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Available decimal.Decimal `json:"available"`
	Threshold decimal.Decimal `json:"threshold"`
}

// TopProductDTO producto con más unidades vendidas.
type TopProductDTO struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	QuantitySold decimal.Decimal `json:"quantity_sold"`
}

// DeadStockDTO producto inmovilizado.
type DeadStockDTO struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Stock     decimal.Decimal `json:"stock"`
	LastOutAt *string         `json:"last_out_at,omitempty"` // RFC3339; nil si nunca tuvo salidas
}

// ReplenishmentSuggestionDTO producto a reponer con cantidad sugerida. Priority 1 = más urgente.
type ReplenishmentSuggestionDTO struct {
	ProductID           string          `json:"product_id"`
	ProductName         string          `json:"product_name"`
	Unit                string          `json:"unit"`
	Available           decimal.Decimal `json:"available"`
	Threshold           decimal.Decimal `json:"threshold"`
	IdealStock          decimal.Decimal `json:"ideal_stock"`
	SuggestedOrderQty   decimal.Decimal `json:"suggested_order_qty"`
	UnitsSoldLast90Days decimal.Decimal `json:"units_sold_last_90_days"`
	Priority            int             `json:"priority"`
}
