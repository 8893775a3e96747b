package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta la unidad de trabajo del ledger dentro de una transacción PostgreSQL.
// La concurrencia es optimista: las escrituras van condicionadas a la columna version y
// un fallo de serialización o deadlock se devuelve como ConcurrentModificationError.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(r inventory.Repos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w: %v", domain.ErrUnavailable, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepos(tx)); err != nil {
		return mapError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// NewRepos repositorios sobre q; con el pool cada sentencia es su propia transacción.
func NewRepos(q Querier) inventory.Repos {
	return inventory.Repos{
		Products:    NewProductRepository(q),
		Levels:      NewStockLevelRepository(q),
		Movements:   NewStockMovementRepository(q),
		Locations:   NewLocationRepository(q),
		Sales:       NewSaleRepository(q),
		Productions: NewProductionRepository(q),
	}
}
