package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// ProductionRepository puerto de persistencia de lotes de producción.
type ProductionRepository interface {
	Create(ctx context.Context, production *entity.Production) error
	GetByID(ctx context.Context, id string) (*entity.Production, error)
	Update(ctx context.Context, production *entity.Production) error
	ListByCompany(ctx context.Context, companyID string, status entity.ProductionStatus) ([]*entity.Production, error)
}
