package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// AnalyticsRepository agregados sobre el estado confirmado.
type AnalyticsRepository struct {
	s *Store
}

var _ repository.AnalyticsRepository = (*AnalyticsRepository)(nil)

func (r *AnalyticsRepository) TopSoldProducts(ctx context.Context, companyID string, since time.Time, limit int) ([]repository.ProductQuantity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	byProduct := make(map[string]*repository.ProductQuantity)
	for _, s := range r.s.sales {
		if s.CompanyID != companyID || s.Status != entity.SaleStatusFulfilled || s.UpdatedAt.Before(since) {
			continue
		}
		pq, ok := byProduct[s.ProductID]
		if !ok {
			pq = &repository.ProductQuantity{ProductID: s.ProductID, ProductName: s.ProductName, Quantity: decimal.Zero}
			byProduct[s.ProductID] = pq
		}
		pq.Quantity = pq.Quantity.Add(s.Quantity)
	}
	r.s.mu.RUnlock()

	out := make([]repository.ProductQuantity, 0, len(byProduct))
	for _, pq := range byProduct {
		out = append(out, *pq)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Quantity.Equal(out[j].Quantity) {
			return out[i].Quantity.GreaterThan(out[j].Quantity)
		}
		return out[i].ProductName < out[j].ProductName
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *AnalyticsRepository) LastOutByProduct(ctx context.Context, companyID string) (map[string]time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[string]time.Time)
	for _, m := range r.s.movements {
		if m.CompanyID != companyID || m.Type != entity.MovementTypeOUT {
			continue
		}
		if m.Timestamp.After(out[m.ProductID]) {
			out[m.ProductID] = m.Timestamp
		}
	}
	return out, nil
}

func (r *AnalyticsRepository) CountPendingSales(ctx context.Context, companyID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, s := range r.s.sales {
		if s.CompanyID == companyID && s.Status == entity.SaleStatusPending {
			n++
		}
	}
	return n, nil
}
