package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto. Los contadores arrancan en cero;
// InitialStock, si viene, entra como movimiento IN en la ubicación principal.
type CreateProductRequest struct {
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	Unit              string          `json:"unit"`
	LowStockThreshold decimal.Decimal `json:"low_stock_threshold"`
	LocationID        string          `json:"location_id"`
	InitialStock      decimal.Decimal `json:"initial_stock"`
}

// UpdateProductRequest metadata editable (nunca stock ni reservado).
type UpdateProductRequest struct {
	Name              *string          `json:"name"`
	Category          *string          `json:"category"`
	Unit              *string          `json:"unit"`
	LowStockThreshold *decimal.Decimal `json:"low_stock_threshold"`
	LocationID        *string          `json:"location_id"`
}

// StockLevelResponse reparto por ubicación.
type StockLevelResponse struct {
	LocationID string          `json:"location_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Reserved   decimal.Decimal `json:"reserved"`
	Available  decimal.Decimal `json:"available"`
}

// ProductResponse salida de un producto con disponible derivado.
type ProductResponse struct {
	ID                string               `json:"id"`
	CompanyID         string               `json:"company_id"`
	Name              string               `json:"name"`
	Category          string               `json:"category"`
	Unit              string               `json:"unit"`
	Stock             decimal.Decimal      `json:"stock"`
	ReservedStock     decimal.Decimal      `json:"reserved_stock"`
	Available         decimal.Decimal      `json:"available"`
	LowStockThreshold decimal.Decimal      `json:"low_stock_threshold"`
	LowStock          bool                 `json:"low_stock"`
	LocationID        string               `json:"location_id,omitempty"`
	Levels            []StockLevelResponse `json:"levels,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}
