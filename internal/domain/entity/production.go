package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductionStatus estado de un lote de producción.
type ProductionStatus string

const (
	ProductionStatusPending     ProductionStatus = "Pending"
	ProductionStatusTransferred ProductionStatus = "Transferred"
)

// MaterialUsage materia prima consumida por un lote.
type MaterialUsage struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// Production lote producido pendiente de ubicar. Al procesarse genera un IN
// (más las salidas de materia prima y un TRANSFER opcional).
type Production struct {
	ID           string
	CompanyID    string
	ProductID    string
	ProductName  string
	Quantity     decimal.Decimal
	LocationID   string
	Materials    []MaterialUsage
	Status       ProductionStatus
	Date         time.Time
	RegisteredBy string
	MovementID   string
	Version      int64
}
