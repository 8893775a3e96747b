package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// ApplyToLevel suma delta al on-hand de la ubicación.
// Invariante: 0 <= reserved <= quantity después de aplicar.
func ApplyToLevel(level *entity.StockLevel, delta decimal.Decimal) error {
	next := level.Quantity.Add(delta)
	if next.IsNegative() || next.LessThan(level.Reserved) {
		return &domain.InsufficientStockError{
			ProductID:  level.ProductID,
			LocationID: level.LocationID,
			Requested:  delta.Abs(),
			Available:  level.Available(),
		}
	}
	level.Quantity = next
	return nil
}

// ApplyToProduct suma delta al stock agregado con la misma invariante.
func ApplyToProduct(p *entity.Product, delta decimal.Decimal) error {
	next := p.Stock.Add(delta)
	if next.IsNegative() || next.LessThan(p.ReservedStock) {
		return &domain.InsufficientStockError{
			ProductID: p.ID,
			Requested: delta.Abs(),
			Available: p.Available(),
		}
	}
	p.Stock = next
	return nil
}

// Reserve compromete qty del disponible del producto y de la ubicación.
func Reserve(p *entity.Product, level *entity.StockLevel, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return domain.NewValidationError("quantity", "debe ser positiva")
	}
	available := decimal.Min(p.Available(), level.Available())
	if qty.GreaterThan(available) {
		return &domain.InsufficientAvailableStockError{
			ProductID: p.ID,
			Requested: qty,
			Available: available,
		}
	}
	p.ReservedStock = p.ReservedStock.Add(qty)
	level.Reserved = level.Reserved.Add(qty)
	return nil
}

// Release libera qty reservada. Liberar más de lo reservado indica contadores corruptos.
func Release(p *entity.Product, level *entity.StockLevel, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return domain.NewValidationError("quantity", "debe ser positiva")
	}
	if qty.GreaterThan(level.Reserved) || qty.GreaterThan(p.ReservedStock) {
		return fmt.Errorf("%w: liberar %s excede lo reservado (%s en ubicación, %s total)",
			domain.ErrConflict, qty, level.Reserved, p.ReservedStock)
	}
	p.ReservedStock = p.ReservedStock.Sub(qty)
	level.Reserved = level.Reserved.Sub(qty)
	return nil
}

// CheckInvariants verifica 0 <= reservado <= stock.
func CheckInvariants(p *entity.Product) error {
	if p.ReservedStock.IsNegative() || p.Stock.LessThan(p.ReservedStock) {
		return fmt.Errorf("%w: invariante violada en %s (stock %s, reservado %s)",
			domain.ErrConflict, p.ID, p.Stock, p.ReservedStock)
	}
	return nil
}
