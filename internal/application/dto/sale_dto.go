package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateSaleRequest registra una venta y reserva su cantidad.
type CreateSaleRequest struct {
	ProductID  string          `json:"product_id"`
	LocationID string          `json:"location_id"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// SaleResponse salida de una venta.
type SaleResponse struct {
	ID          string          `json:"id"`
	GuideNumber string          `json:"guide_number"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	LocationID  string          `json:"location_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Status      string          `json:"status"`
	MovementID  string          `json:"movement_id,omitempty"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
