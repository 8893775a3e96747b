package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ProductQuantity cantidad agregada por producto.
type ProductQuantity struct {
	ProductID   string
	ProductName string
	Quantity    decimal.Decimal
}

// AnalyticsRepository consultas de solo lectura sobre ventas y movimientos.
type AnalyticsRepository interface {
	// TopSoldProducts productos con más unidades en ventas cumplidas desde `since`; limit <= 0 no limita.
	TopSoldProducts(ctx context.Context, companyID string, since time.Time, limit int) ([]ProductQuantity, error)

	// LastOutByProduct fecha del último OUT de cada producto con salidas.
	LastOutByProduct(ctx context.Context, companyID string) (map[string]time.Time, error)

	// CountPendingSales ventas reservadas aún sin cumplir.
	CountPendingSales(ctx context.Context, companyID string) (int, error)
}
