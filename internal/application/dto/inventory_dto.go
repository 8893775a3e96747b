package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body de POST /api/inventory/movements (IN, OUT, ADJUSTMENT).
type RegisterMovementRequest struct {
	ProductID      string          `json:"product_id"`
	Type           string          `json:"type"`
	Quantity       decimal.Decimal `json:"quantity"`
	FromLocationID string          `json:"from_location_id,omitempty"`
	ToLocationID   string          `json:"to_location_id,omitempty"`
	Reason         string          `json:"reason"`
}

// TransferRequest body de POST /api/inventory/transfers.
type TransferRequest struct {
	ProductID      string          `json:"product_id"`
	FromLocationID string          `json:"from_location_id"`
	ToLocationID   string          `json:"to_location_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	Reason         string          `json:"reason"`
}

// AuditRequest body de POST /api/inventory/audits. LocationID vacío = conteo de todo el producto.
type AuditRequest struct {
	ProductID     string          `json:"product_id"`
	LocationID    string          `json:"location_id"`
	PhysicalCount decimal.Decimal `json:"physical_count"`
	Reason        string          `json:"reason"`
}

// MovementResponse salida de un movimiento del log.
type MovementResponse struct {
	ID                string           `json:"id"`
	Type              string           `json:"type"`
	ProductID         string           `json:"product_id"`
	ProductName       string           `json:"product_name"`
	Quantity          decimal.Decimal  `json:"quantity"`
	FromLocationID    string           `json:"from_location_id,omitempty"`
	ToLocationID      string           `json:"to_location_id,omitempty"`
	Timestamp         time.Time        `json:"timestamp"`
	UserID            string           `json:"user_id"`
	UserName          string           `json:"user_name"`
	Reason            string           `json:"reason"`
	Reference         string           `json:"reference,omitempty"`
	IsAudit           bool             `json:"is_audit"`
	SystemCountBefore *decimal.Decimal `json:"system_count_before,omitempty"`
	PhysicalCount     *decimal.Decimal `json:"physical_count,omitempty"`
}

// MovementResultResponse resultado de aplicar un movimiento.
type MovementResultResponse struct {
	Movement MovementResponse `json:"movement"`
	Product  ProductResponse  `json:"product"`
}

// AuditResponse resultado de una reconciliación; Movement es nil si no hubo diferencia.
type AuditResponse struct {
	SystemCountBefore decimal.Decimal   `json:"system_count_before"`
	PhysicalCount     decimal.Decimal   `json:"physical_count"`
	Delta             decimal.Decimal   `json:"delta"`
	Movement          *MovementResponse `json:"movement"`
}

// HistoryResponse página del historial de movimientos.
type HistoryResponse struct {
	Items []MovementResponse `json:"items"`
	Page  CursorPage         `json:"page"`
}

// SnapshotResponse proyección de lectura del stock.
type SnapshotResponse struct {
	RefreshedAt time.Time         `json:"refreshed_at"`
	Products    []ProductResponse `json:"products"`
}

// VerifyResponse resultado de comparar los contadores con el replay del log.
type VerifyResponse struct {
	ProductID  string          `json:"product_id"`
	Consistent bool            `json:"consistent"`
	Drifts     []DriftResponse `json:"drifts"`
}

// DriftResponse location_id vacío = contador agregado del producto.
type DriftResponse struct {
	LocationID string          `json:"location_id,omitempty"`
	Recorded   decimal.Decimal `json:"recorded"`
	Replayed   decimal.Decimal `json:"replayed"`
}
