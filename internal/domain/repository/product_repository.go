package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// ProductRepository puerto de persistencia de productos.
// GetByID devuelve (nil, nil) si no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	ListByCompany(ctx context.Context, companyID string) ([]*entity.Product, error)
	// UpdateMetadata actualiza nombre, categoría, unidad, umbral y ubicación principal.
	UpdateMetadata(ctx context.Context, product *entity.Product) error
	// UpdateCounters escribe Stock y ReservedStock si Version coincide con la almacenada
	// e incrementa product.Version; si no, devuelve ErrConcurrentModification.
	UpdateCounters(ctx context.Context, product *entity.Product) error
}
