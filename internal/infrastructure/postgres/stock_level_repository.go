package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.StockLevelRepository = (*StockLevelRepo)(nil)

// StockLevelRepo reparto por ubicación sobre PostgreSQL (usable con pool o tx).
type StockLevelRepo struct {
	q Querier
}

// NewStockLevelRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockLevelRepository(q Querier) *StockLevelRepo {
	return &StockLevelRepo{q: q}
}

// Get obtiene el nivel; si no existe devuelve uno en cero con Version 0.
func (r *StockLevelRepo) Get(ctx context.Context, productID, locationID string) (*entity.StockLevel, error) {
	query := `
		SELECT product_id, location_id, quantity, reserved, version, updated_at
		FROM stock_levels WHERE product_id = $1 AND location_id = $2`
	var l entity.StockLevel
	err := r.q.QueryRow(ctx, query, productID, locationID).Scan(
		&l.ProductID, &l.LocationID, &l.Quantity, &l.Reserved, &l.Version, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockLevel{ProductID: productID, LocationID: locationID, Quantity: decimal.Zero, Reserved: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("get stock level: %w", mapError(err))
	}
	return &l, nil
}

// ListByProduct niveles de un producto ordenados por ubicación.
func (r *StockLevelRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.StockLevel, error) {
	query := `
		SELECT product_id, location_id, quantity, reserved, version, updated_at
		FROM stock_levels WHERE product_id = $1 ORDER BY location_id`
	rows, err := r.q.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list stock levels: %w", mapError(err))
	}
	defer rows.Close()
	var list []*entity.StockLevel
	for rows.Next() {
		var l entity.StockLevel
		if err := rows.Scan(&l.ProductID, &l.LocationID, &l.Quantity, &l.Reserved, &l.Version, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// Save inserta el nivel (Version 0) o lo actualiza condicionado a Version.
// En ambos casos una carrera perdida es ConcurrentModificationError.
func (r *StockLevelRepo) Save(ctx context.Context, l *entity.StockLevel) error {
	var err error
	if l.Version == 0 {
		query := `
			INSERT INTO stock_levels (product_id, location_id, quantity, reserved, version, updated_at)
			VALUES ($1, $2, $3, $4, 1, $5)
			ON CONFLICT (product_id, location_id) DO NOTHING
			RETURNING version`
		err = r.q.QueryRow(ctx, query, l.ProductID, l.LocationID, l.Quantity, l.Reserved, l.UpdatedAt).Scan(&l.Version)
	} else {
		query := `
			UPDATE stock_levels SET quantity = $4, reserved = $5, updated_at = $6, version = version + 1
			WHERE product_id = $1 AND location_id = $2 AND version = $3
			RETURNING version`
		err = r.q.QueryRow(ctx, query, l.ProductID, l.LocationID, l.Version, l.Quantity, l.Reserved, l.UpdatedAt).Scan(&l.Version)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.ConcurrentModificationError{Entity: "stock_level", ID: l.ProductID + "/" + l.LocationID}
		}
		if isCheckViolation(err) {
			return &domain.InsufficientStockError{ProductID: l.ProductID, LocationID: l.LocationID, Requested: l.Reserved, Available: l.Quantity}
		}
		return fmt.Errorf("save stock level: %w", mapError(err))
	}
	return nil
}
