package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// StockLevelRepository reparto por ubicación de los contadores de cada producto.
type StockLevelRepository interface {
	// Get devuelve el nivel o uno en cero con Version 0 si aún no existe.
	Get(ctx context.Context, productID, locationID string) (*entity.StockLevel, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.StockLevel, error)
	// Save inserta (Version 0) o actualiza condicionado a Version; incrementa level.Version.
	Save(ctx context.Context, level *entity.StockLevel) error
}
