package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// SaleRepository puerto de persistencia de ventas.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	// Update cambia estado y enlace al movimiento condicionado a Version.
	Update(ctx context.Context, sale *entity.Sale) error
	// ListByCompany filtra por estado si status no está vacío; más recientes primero.
	ListByCompany(ctx context.Context, companyID string, status entity.SaleStatus) ([]*entity.Sale, error)
	ListPendingByProduct(ctx context.Context, productID string) ([]*entity.Sale, error)
	// NextGuideNumber incrementa y devuelve el contador de guías de la empresa.
	NextGuideNumber(ctx context.Context, companyID string) (int64, error)
}
