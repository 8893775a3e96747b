package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, company_id, name, category, unit, stock, reserved_stock, low_stock_threshold,
	location_id, version, created_at, updated_at`

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	var locationID *string
	if err := row.Scan(&p.ID, &p.CompanyID, &p.Name, &p.Category, &p.Unit, &p.Stock, &p.ReservedStock,
		&p.LowStockThreshold, &locationID, &p.Version, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.LocationID = derefString(locationID)
	return &p, nil
}

// Create persiste un producto nuevo con Version 1. Los contadores llegan en cero;
// el stock inicial entra como movimiento IN.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	p.Version = 1
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.CompanyID, p.Name, p.Category, p.Unit, p.Stock, p.ReservedStock, p.LowStockThreshold,
		nullString(p.LocationID), p.Version, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", mapError(err))
	}
	return nil
}

// GetByID obtiene un producto por ID; (nil, nil) si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", mapError(err))
	}
	return p, nil
}

// ListByCompany lista los productos de la empresa ordenados por nombre.
func (r *ProductRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, `SELECT `+productColumns+` FROM products WHERE company_id = $1 ORDER BY name, id`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", mapError(err))
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// UpdateMetadata actualiza solo la metadata; no compite con el ledger por la versión.
func (r *ProductRepo) UpdateMetadata(ctx context.Context, p *entity.Product) error {
	query := `
		UPDATE products SET name = $2, category = $3, unit = $4, low_stock_threshold = $5, location_id = $6, updated_at = $7
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		p.ID, p.Name, p.Category, p.Unit, p.LowStockThreshold, nullString(p.LocationID), p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", mapError(err))
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateCounters escribe stock y reservado condicionado a la versión leída.
func (r *ProductRepo) UpdateCounters(ctx context.Context, p *entity.Product) error {
	query := `
		UPDATE products SET stock = $3, reserved_stock = $4, updated_at = $5, version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING version`
	err := r.q.QueryRow(ctx, query, p.ID, p.Version, p.Stock, p.ReservedStock, p.UpdatedAt).Scan(&p.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.ConcurrentModificationError{Entity: "product", ID: p.ID}
		}
		if isCheckViolation(err) {
			return &domain.InsufficientStockError{ProductID: p.ID, Requested: p.ReservedStock, Available: p.Stock}
		}
		return fmt.Errorf("update product counters: %w", mapError(err))
	}
	return nil
}
