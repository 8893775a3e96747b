package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLevel reparto de los contadores de un producto en una ubicación.
type StockLevel struct {
	ProductID  string
	LocationID string
	Quantity   decimal.Decimal
	Reserved   decimal.Decimal
	Version    int64 // 0 = aún no persistido
	UpdatedAt  time.Time
}

// Available cantidad libre en la ubicación.
func (l *StockLevel) Available() decimal.Decimal {
	return l.Quantity.Sub(l.Reserved)
}
