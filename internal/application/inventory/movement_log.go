package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// AppendMovement valida y anexa un movimiento. Devuelve el id asignado por el almacenamiento.
// Solo la Unit del ledger lo llama: anexar sin aplicar efectos rompería el replay.
func AppendMovement(ctx context.Context, repo repository.StockMovementRepository, m *entity.StockMovement) (string, error) {
	if err := domaininv.Validate(m); err != nil {
		return "", err
	}
	if m.CompanyID == "" {
		return "", domain.NewValidationError("company_id", "requerido")
	}
	if err := repo.Append(ctx, m); err != nil {
		return "", fmt.Errorf("anexar movimiento: %w", err)
	}
	return m.ID, nil
}

// MovementLog lectura del log de movimientos.
type MovementLog struct {
	repo repository.StockMovementRepository
}

func NewMovementLog(repo repository.StockMovementRepository) *MovementLog {
	return &MovementLog{repo: repo}
}

// Query devuelve los movimientos filtrados en orden (timestamp DESC, seq DESC).
func (l *MovementLog) Query(ctx context.Context, q repository.MovementQuery) ([]*entity.StockMovement, error) {
	if q.CompanyID == "" {
		return nil, domain.NewValidationError("company_id", "requerido")
	}
	if q.Type != "" && !q.Type.Valid() {
		return nil, domain.NewValidationError("type", "tipo de movimiento desconocido")
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return nil, domain.NewValidationError("to", "el rango de fechas está invertido")
	}
	items, err := l.repo.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("consultar movimientos: %w", err)
	}
	return items, nil
}

// Get devuelve un movimiento de la empresa.
func (l *MovementLog) Get(ctx context.Context, companyID, id string) (*entity.StockMovement, error) {
	m, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("leer movimiento: %w", err)
	}
	if m == nil || m.CompanyID != companyID {
		return nil, fmt.Errorf("movimiento %s: %w", id, domain.ErrNotFound)
	}
	return m, nil
}

// HistoryPage una página del historial.
type HistoryPage struct {
	Items      []*entity.StockMovement
	NextCursor string
	HasMore    bool
}

// Page lee una página por keyset a partir de cursor (vacío = primera página).
// HasMore es verdadero si la página vino completa.
func (l *MovementLog) Page(ctx context.Context, q repository.MovementQuery, cursor string, pageSize int) (*HistoryPage, error) {
	pageSize = NormalizePageSize(pageSize)
	q.After = nil
	if cursor != "" {
		key, err := DecodeCursor(cursor)
		if err != nil {
			return nil, err
		}
		q.After = &key
	}
	q.Limit = pageSize

	items, err := l.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	page := &HistoryPage{Items: items, HasMore: len(items) == pageSize}
	if len(items) > 0 {
		last := items[len(items)-1]
		page.NextCursor = EncodeCursor(repository.MovementKey{Timestamp: last.Timestamp, Seq: last.Seq})
	}
	return page, nil
}

// NormalizePageSize aplica el tamaño por defecto y el máximo.
func NormalizePageSize(n int) int {
	switch {
	case n <= 0:
		return DefaultPageSize
	case n > MaxPageSize:
		return MaxPageSize
	}
	return n
}
