package inventory

import (
	"context"
	"sync"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// HistoryCursor lector paginado con estado sobre el log (vista de historial).
// Acumula las páginas leídas; Reload descarta el cursor y empieza de nuevo.
type HistoryCursor struct {
	log      *MovementLog
	query    repository.MovementQuery
	pageSize int

	mu      sync.Mutex
	cursor  string
	items   []*entity.StockMovement
	hasMore bool
	started bool
}

func NewHistoryCursor(log *MovementLog, q repository.MovementQuery, pageSize int) *HistoryCursor {
	return &HistoryCursor{log: log, query: q, pageSize: NormalizePageSize(pageSize), hasMore: true}
}

// Next lee la página siguiente y la devuelve. Sin más páginas devuelve nil.
func (h *HistoryCursor) Next(ctx context.Context) ([]*entity.StockMovement, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.started && !h.hasMore {
		return nil, nil
	}
	page, err := h.log.Page(ctx, h.query, h.cursor, h.pageSize)
	if err != nil {
		return nil, err
	}
	h.started = true
	h.hasMore = page.HasMore
	if page.NextCursor != "" {
		h.cursor = page.NextCursor
	}
	h.items = append(h.items, page.Items...)
	return page.Items, nil
}

// Reload descarta lo acumulado y lee la primera página.
func (h *HistoryCursor) Reload(ctx context.Context) ([]*entity.StockMovement, error) {
	h.mu.Lock()
	h.cursor = ""
	h.items = nil
	h.hasMore = true
	h.started = false
	h.mu.Unlock()
	return h.Next(ctx)
}

// Items copia de todo lo leído desde el último Reload.
func (h *HistoryCursor) Items() []*entity.StockMovement {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*entity.StockMovement, len(h.items))
	copy(out, h.items)
	return out
}

func (h *HistoryCursor) HasMore() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hasMore
}
