package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.AnalyticsRepository = (*AnalyticsRepo)(nil)

// AnalyticsRepo consultas de solo lectura para el dashboard y los reportes.
type AnalyticsRepo struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository construye el adaptador de analítica.
func NewAnalyticsRepository(pool *pgxpool.Pool) *AnalyticsRepo {
	return &AnalyticsRepo{pool: pool}
}

// TopSoldProducts suma las ventas cumplidas desde `since` por producto.
// El orden secundario por nombre hace estable el top ante empates.
func (r *AnalyticsRepo) TopSoldProducts(
	ctx context.Context,
	companyID string,
	since time.Time,
	limit int,
) ([]repository.ProductQuantity, error) {
	const query = `
	SELECT
	    s.product_id,
	    MAX(s.product_name)  AS product_name,
	    SUM(s.quantity)      AS quantity
	FROM sales s
	WHERE s.company_id = $1
	  AND s.status     = $2
	  AND s.updated_at >= $3
	GROUP BY s.product_id
	ORDER BY quantity DESC, product_name
	LIMIT $4`

	var lim *int
	if limit > 0 {
		lim = &limit
	}
	rows, err := r.pool.Query(ctx, query, companyID, string(entity.SaleStatusFulfilled), since, lim)
	if err != nil {
		return nil, fmt.Errorf("analytics.TopSoldProducts: %w", mapError(err))
	}
	defer rows.Close()

	results := []repository.ProductQuantity{}
	for rows.Next() {
		var row repository.ProductQuantity
		if err := rows.Scan(&row.ProductID, &row.ProductName, &row.Quantity); err != nil {
			return nil, fmt.Errorf("analytics.TopSoldProducts scan: %w", err)
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// LastOutByProduct fecha del último OUT por producto (base del stock inmovilizado).
func (r *AnalyticsRepo) LastOutByProduct(ctx context.Context, companyID string) (map[string]time.Time, error) {
	const query = `
	SELECT product_id, MAX("timestamp")
	FROM stock_movements
	WHERE company_id = $1 AND type = 'OUT'
	GROUP BY product_id`

	rows, err := r.pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("analytics.LastOutByProduct: %w", mapError(err))
	}
	defer rows.Close()

	out := make(map[string]time.Time)
	for rows.Next() {
		var id string
		var ts time.Time
		if err := rows.Scan(&id, &ts); err != nil {
			return nil, fmt.Errorf("analytics.LastOutByProduct scan: %w", err)
		}
		out[id] = ts.UTC()
	}
	return out, rows.Err()
}

// CountPendingSales ventas reservadas sin cumplir.
func (r *AnalyticsRepo) CountPendingSales(ctx context.Context, companyID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM sales WHERE company_id = $1 AND status = $2`,
		companyID, string(entity.SaleStatusPending),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("analytics.CountPendingSales: %w", mapError(err))
	}
	return n, nil
}
