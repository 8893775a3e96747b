package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo log de movimientos sobre PostgreSQL (usable con pool o tx).
// Solo inserta y lee: no hay UPDATE ni DELETE sobre stock_movements.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `id, seq, company_id, type, product_id, product_name, quantity, from_location_id,
	to_location_id, "timestamp", user_id, user_name, reason, reference, is_audit, system_count_before, physical_count`

// Append inserta el movimiento. seq y timestamp los asigna la base (clock_timestamp()).
func (r *StockMovementRepo) Append(ctx context.Context, m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (id, company_id, type, product_id, product_name, quantity, from_location_id,
			to_location_id, user_id, user_name, reason, reference, is_audit, system_count_before, physical_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING seq, "timestamp"`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.CompanyID, m.Type, m.ProductID, m.ProductName, m.Quantity,
		nullString(m.FromLocationID), nullString(m.ToLocationID),
		m.UserID, m.UserName, m.Reason, m.Reference, m.IsAudit, m.SystemCountBefore, m.PhysicalCount,
	).Scan(&m.Seq, &m.Timestamp)
	if err != nil {
		return fmt.Errorf("append movement: %w", mapError(err))
	}
	m.Timestamp = m.Timestamp.UTC()
	return nil
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	var from, to *string
	if err := row.Scan(&m.ID, &m.Seq, &m.CompanyID, &m.Type, &m.ProductID, &m.ProductName, &m.Quantity,
		&from, &to, &m.Timestamp, &m.UserID, &m.UserName, &m.Reason, &m.Reference, &m.IsAudit,
		&m.SystemCountBefore, &m.PhysicalCount); err != nil {
		return nil, err
	}
	m.FromLocationID, m.ToLocationID = derefString(from), derefString(to)
	m.Timestamp = m.Timestamp.UTC()
	return &m, nil
}

// GetByID obtiene un movimiento; (nil, nil) si no existe.
func (r *StockMovementRepo) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", mapError(err))
	}
	return m, nil
}

// Query lee el log en orden ("timestamp" DESC, seq DESC). After aplica keyset sobre ese orden.
func (r *StockMovementRepo) Query(ctx context.Context, q repository.MovementQuery) ([]*entity.StockMovement, error) {
	query, args := buildMovementQuery(q)
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query movements: %w", mapError(err))
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func buildMovementQuery(q repository.MovementQuery) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + movementColumns + ` FROM stock_movements WHERE company_id = $1`)
	args := []any{q.CompanyID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.ProductID != "" {
		sb.WriteString(" AND product_id = " + arg(q.ProductID))
	}
	if q.LocationID != "" {
		p := arg(q.LocationID)
		sb.WriteString(" AND (from_location_id = " + p + " OR to_location_id = " + p + ")")
	}
	if q.Type != "" {
		sb.WriteString(" AND type = " + arg(string(q.Type)))
	}
	if q.From != nil {
		sb.WriteString(` AND "timestamp" >= ` + arg(*q.From))
	}
	if q.To != nil {
		sb.WriteString(` AND "timestamp" <= ` + arg(*q.To))
	}
	if q.OnlyAudit {
		sb.WriteString(" AND is_audit")
	}
	if q.OnlyDeficit {
		sb.WriteString(" AND type = 'ADJUSTMENT' AND quantity < 0")
	}
	if q.After != nil {
		ts := arg(q.After.Timestamp)
		seq := arg(q.After.Seq)
		sb.WriteString(` AND ("timestamp", seq) < (` + ts + `, ` + seq + `)`)
	}
	sb.WriteString(` ORDER BY "timestamp" DESC, seq DESC`)
	if q.Limit > 0 {
		sb.WriteString(" LIMIT " + arg(q.Limit))
	}
	return sb.String(), args
}
