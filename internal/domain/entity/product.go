package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product artículo del catálogo con sus contadores agregados.
// Stock y ReservedStock solo los escribe el ledger; son la suma de sus StockLevel.
type Product struct {
	ID                string
	CompanyID         string
	Name              string
	Category          string
	Unit              string
	Stock             decimal.Decimal
	ReservedStock     decimal.Decimal
	LowStockThreshold decimal.Decimal
	LocationID        string // ubicación principal (despliegues de una sola ubicación)
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Available stock vendible: on-hand menos reservado. Nunca se persiste.
func (p *Product) Available() decimal.Decimal {
	return p.Stock.Sub(p.ReservedStock)
}

// IsLowStock indica si el disponible llegó al umbral de stock bajo.
func (p *Product) IsLowStock() bool {
	if p.LowStockThreshold.IsZero() {
		return false
	}
	return p.Available().LessThanOrEqual(p.LowStockThreshold)
}
