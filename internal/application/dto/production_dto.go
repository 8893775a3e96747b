package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaterialRequest materia prima consumida por el lote.
type MaterialRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// CreateProductionRequest registra un lote de producción pendiente.
type CreateProductionRequest struct {
	ProductID  string            `json:"product_id"`
	LocationID string            `json:"location_id"`
	Quantity   decimal.Decimal   `json:"quantity"`
	Materials  []MaterialRequest `json:"materials"`
}

// ProcessProductionRequest procesa el lote; ToLocationID opcional genera un TRANSFER.
type ProcessProductionRequest struct {
	ToLocationID string `json:"to_location_id"`
}

// ProductionResponse salida de un lote.
type ProductionResponse struct {
	ID           string            `json:"id"`
	ProductID    string            `json:"product_id"`
	ProductName  string            `json:"product_name"`
	Quantity     decimal.Decimal   `json:"quantity"`
	LocationID   string            `json:"location_id"`
	Materials    []MaterialRequest `json:"materials,omitempty"`
	Status       string            `json:"status"`
	Date         time.Time         `json:"date"`
	RegisteredBy string            `json:"registered_by"`
	MovementID   string            `json:"movement_id,omitempty"`
}
