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

var _ repository.ProductionRepository = (*ProductionRepo)(nil)

// ProductionRepo lotes de producción sobre PostgreSQL. materials es JSONB.
type ProductionRepo struct {
	q Querier
}

// NewProductionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductionRepository(q Querier) *ProductionRepo {
	return &ProductionRepo{q: q}
}

const productionColumns = `id, company_id, product_id, product_name, quantity, location_id, materials, status,
	date, registered_by, movement_id, version`

func scanProduction(row pgx.Row) (*entity.Production, error) {
	var p entity.Production
	var movementID *string
	if err := row.Scan(&p.ID, &p.CompanyID, &p.ProductID, &p.ProductName, &p.Quantity, &p.LocationID, &p.Materials,
		&p.Status, &p.Date, &p.RegisteredBy, &movementID, &p.Version); err != nil {
		return nil, err
	}
	p.MovementID = derefString(movementID)
	return &p, nil
}

func materialsOrEmpty(m []entity.MaterialUsage) []entity.MaterialUsage {
	if m == nil {
		return []entity.MaterialUsage{}
	}
	return m
}

// Create persiste el lote con Version 1.
func (r *ProductionRepo) Create(ctx context.Context, p *entity.Production) error {
	p.Version = 1
	query := `
		INSERT INTO productions (` + productionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.CompanyID, p.ProductID, p.ProductName, p.Quantity, p.LocationID, materialsOrEmpty(p.Materials),
		p.Status, p.Date, p.RegisteredBy, nullString(p.MovementID), p.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert production: %w", mapError(err))
	}
	return nil
}

// GetByID obtiene un lote; (nil, nil) si no existe.
func (r *ProductionRepo) GetByID(ctx context.Context, id string) (*entity.Production, error) {
	p, err := scanProduction(r.q.QueryRow(ctx, `SELECT `+productionColumns+` FROM productions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get production: %w", mapError(err))
	}
	return p, nil
}

// Update cambia estado y movimiento enlazado si la versión coincide.
func (r *ProductionRepo) Update(ctx context.Context, p *entity.Production) error {
	query := `
		UPDATE productions SET status = $3, movement_id = $4, version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING version`
	err := r.q.QueryRow(ctx, query, p.ID, p.Version, p.Status, nullString(p.MovementID)).Scan(&p.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.ConcurrentModificationError{Entity: "production", ID: p.ID}
		}
		return fmt.Errorf("update production: %w", mapError(err))
	}
	return nil
}

// ListByCompany lotes de la empresa, más recientes primero; status vacío no filtra.
func (r *ProductionRepo) ListByCompany(ctx context.Context, companyID string, status entity.ProductionStatus) ([]*entity.Production, error) {
	query := `SELECT ` + productionColumns + ` FROM productions WHERE company_id = $1 AND ($2 = '' OR status = $2) ORDER BY date DESC, id`
	rows, err := r.q.Query(ctx, query, companyID, string(status))
	if err != nil {
		return nil, fmt.Errorf("list productions: %w", mapError(err))
	}
	defer rows.Close()
	var list []*entity.Production
	for rows.Next() {
		p, err := scanProduction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan production: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
