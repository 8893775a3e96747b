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

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo ventas sobre PostgreSQL (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

const saleColumns = `id, company_id, product_id, product_name, location_id, quantity, status, guide_number,
	movement_id, created_by, created_at, updated_at, version`

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	var movementID *string
	if err := row.Scan(&s.ID, &s.CompanyID, &s.ProductID, &s.ProductName, &s.LocationID, &s.Quantity, &s.Status,
		&s.GuideNumber, &movementID, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt, &s.Version); err != nil {
		return nil, err
	}
	s.MovementID = derefString(movementID)
	return &s, nil
}

// Create persiste la venta con Version 1.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	s.Version = 1
	query := `
		INSERT INTO sales (` + saleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.CompanyID, s.ProductID, s.ProductName, s.LocationID, s.Quantity, s.Status, s.GuideNumber,
		nullString(s.MovementID), s.CreatedBy, s.CreatedAt, s.UpdatedAt, s.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert sale: %w", mapError(err))
	}
	return nil
}

// GetByID obtiene una venta; (nil, nil) si no existe.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", mapError(err))
	}
	return s, nil
}

// Update cambia estado y movimiento enlazado si la versión coincide.
func (r *SaleRepo) Update(ctx context.Context, s *entity.Sale) error {
	query := `
		UPDATE sales SET status = $3, movement_id = $4, updated_at = $5, version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING version`
	err := r.q.QueryRow(ctx, query, s.ID, s.Version, s.Status, nullString(s.MovementID), s.UpdatedAt).Scan(&s.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.ConcurrentModificationError{Entity: "sale", ID: s.ID}
		}
		return fmt.Errorf("update sale: %w", mapError(err))
	}
	return nil
}

// ListByCompany ventas de la empresa, más recientes primero; status vacío no filtra.
func (r *SaleRepo) ListByCompany(ctx context.Context, companyID string, status entity.SaleStatus) ([]*entity.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE company_id = $1 AND ($2 = '' OR status = $2) ORDER BY created_at DESC, id`
	return r.list(ctx, query, companyID, string(status))
}

// ListPendingByProduct ventas reservadas de un producto (base para recalcular reservados).
func (r *SaleRepo) ListPendingByProduct(ctx context.Context, productID string) ([]*entity.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE product_id = $1 AND status = 'Pending' ORDER BY created_at DESC, id`
	return r.list(ctx, query, productID)
}

func (r *SaleRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Sale, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", mapError(err))
	}
	defer rows.Close()
	var list []*entity.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// NextGuideNumber incrementa el contador de guías de la empresa. El UPSERT bloquea la fila
// hasta el fin de la transacción, así dos ventas concurrentes nunca comparten número.
func (r *SaleRepo) NextGuideNumber(ctx context.Context, companyID string) (int64, error) {
	query := `
		INSERT INTO company_counters (company_id, name, value) VALUES ($1, 'guide', 1)
		ON CONFLICT (company_id, name) DO UPDATE SET value = company_counters.value + 1
		RETURNING value`
	var n int64
	if err := r.q.QueryRow(ctx, query, companyID).Scan(&n); err != nil {
		return 0, fmt.Errorf("next guide number: %w", mapError(err))
	}
	return n, nil
}
