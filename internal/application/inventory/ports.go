package inventory

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// Repos repositorios atados a una misma transacción.
type Repos struct {
	Products    repository.ProductRepository
	Levels      repository.StockLevelRepository
	Movements   repository.StockMovementRepository
	Locations   repository.LocationRepository
	Sales       repository.SaleRepository
	Productions repository.ProductionRepository
}

// TxRunner ejecuta fn dentro de una transacción con concurrencia optimista:
// todo lo escrito por fn se confirma junto o no se confirma. Si otro escritor cambió
// una fila leída, Run devuelve domain.ErrConcurrentModification.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repos) error) error
}

// Actor identidad que queda registrada en cada movimiento.
type Actor struct {
	UserID   string
	UserName string
}
