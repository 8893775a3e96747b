package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// binding ata los repositorios a una transacción; sin transacción cada escritura se
// confirma sola.
type binding struct {
	s  *Store
	tx *memTx
}

func (b binding) run(ctx context.Context, fn func(t *memTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.tx != nil {
		return fn(b.tx)
	}
	t := newTx(b.s)
	if err := fn(t); err != nil {
		return err
	}
	return b.s.commit(t)
}

func (b binding) repos() inventory.Repos {
	return inventory.Repos{
		Products:    &ProductRepository{b},
		Levels:      &StockLevelRepository{b},
		Movements:   &MovementRepository{b},
		Locations:   &LocationRepository{b},
		Sales:       &SaleRepository{b},
		Productions: &ProductionRepository{b},
	}
}

// =============================================================================
// PRODUCTS
// =============================================================================

type ProductRepository struct{ b binding }

var _ repository.ProductRepository = (*ProductRepository)(nil)

func (r *ProductRepository) Create(ctx context.Context, p *entity.Product) error {
	return r.b.run(ctx, func(t *memTx) error {
		if _, exists := t.product(p.ID); exists {
			return domain.ErrDuplicate
		}
		p.Version = 1
		t.products[p.ID] = &stagedProduct{p: *p, created: true}
		return nil
	})
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.b.run(ctx, func(t *memTx) error {
		if p, ok := t.product(id); ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *ProductRepository) ListByCompany(ctx context.Context, companyID string) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.b.run(ctx, func(t *memTx) error {
		t.s.mu.RLock()
		merged := make(map[string]entity.Product, len(t.s.products))
		for id, p := range t.s.products {
			merged[id] = p
		}
		t.s.mu.RUnlock()
		for id, sp := range t.products {
			merged[id] = sp.p
		}
		for _, id := range sortedKeys(merged) {
			if p := merged[id]; p.CompanyID == companyID {
				out = append(out, &p)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r *ProductRepository) UpdateMetadata(ctx context.Context, p *entity.Product) error {
	return r.b.run(ctx, func(t *memTx) error {
		cur, ok := t.product(p.ID)
		if !ok {
			return domain.ErrNotFound
		}
		cur.Name, cur.Category, cur.Unit = p.Name, p.Category, p.Unit
		cur.LowStockThreshold, cur.LocationID, cur.UpdatedAt = p.LowStockThreshold, p.LocationID, p.UpdatedAt
		if sp, staged := t.products[p.ID]; staged {
			sp.p = cur
			return nil
		}
		t.products[p.ID] = &stagedProduct{p: cur, base: cur.Version, metaOnly: true}
		return nil
	})
}

func (r *ProductRepository) UpdateCounters(ctx context.Context, p *entity.Product) error {
	return r.b.run(ctx, func(t *memTx) error {
		cur, ok := t.product(p.ID)
		if !ok || cur.Version != p.Version {
			return conflict("product", p.ID)
		}
		sp, staged := t.products[p.ID]
		if !staged {
			sp = &stagedProduct{base: cur.Version}
			t.products[p.ID] = sp
		}
		sp.metaOnly = false
		cur.Stock, cur.ReservedStock, cur.UpdatedAt = p.Stock, p.ReservedStock, p.UpdatedAt
		cur.Version++
		sp.p = cur
		p.Version = cur.Version
		return nil
	})
}

// =============================================================================
// STOCK LEVELS
// =============================================================================

type StockLevelRepository struct{ b binding }

var _ repository.StockLevelRepository = (*StockLevelRepository)(nil)

func (r *StockLevelRepository) Get(ctx context.Context, productID, locationID string) (*entity.StockLevel, error) {
	var out entity.StockLevel
	err := r.b.run(ctx, func(t *memTx) error {
		out = t.level(levelKey{productID, locationID})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *StockLevelRepository) ListByProduct(ctx context.Context, productID string) ([]*entity.StockLevel, error) {
	var out []*entity.StockLevel
	err := r.b.run(ctx, func(t *memTx) error {
		merged := make(map[string]entity.StockLevel)
		t.s.mu.RLock()
		for k, l := range t.s.levels {
			if k.ProductID == productID {
				merged[k.LocationID] = l
			}
		}
		t.s.mu.RUnlock()
		for k, sl := range t.levels {
			if k.ProductID == productID {
				merged[k.LocationID] = sl.l
			}
		}
		for _, loc := range sortedKeys(merged) {
			l := merged[loc]
			out = append(out, &l)
		}
		return nil
	})
	return out, err
}

func (r *StockLevelRepository) Save(ctx context.Context, l *entity.StockLevel) error {
	return r.b.run(ctx, func(t *memTx) error {
		k := levelKey{l.ProductID, l.LocationID}
		cur := t.level(k)
		if cur.Version != l.Version {
			return conflict("stock_level", k.ProductID+"/"+k.LocationID)
		}
		sl, staged := t.levels[k]
		if !staged {
			sl = &stagedLevel{base: cur.Version}
			t.levels[k] = sl
		}
		l.Version++
		sl.l = *l
		return nil
	})
}

// =============================================================================
// MOVEMENTS
// =============================================================================

type MovementRepository struct{ b binding }

var _ repository.StockMovementRepository = (*MovementRepository)(nil)

// Append asigna el ID de inmediato; Seq y Timestamp se asignan al confirmar.
func (r *MovementRepository) Append(ctx context.Context, m *entity.StockMovement) error {
	return r.b.run(ctx, func(t *memTx) error {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		t.movements = append(t.movements, m)
		return nil
	})
}

func (r *MovementRepository) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.b.s.mu.RLock()
	defer r.b.s.mu.RUnlock()
	for i := len(r.b.s.movements) - 1; i >= 0; i-- {
		if m := r.b.s.movements[i]; m.ID == id {
			return &m, nil
		}
	}
	return nil, nil
}

// Query recorre el log confirmado de atrás hacia adelante: (timestamp DESC, seq DESC).
func (r *MovementRepository) Query(ctx context.Context, q repository.MovementQuery) ([]*entity.StockMovement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.b.s.mu.RLock()
	defer r.b.s.mu.RUnlock()

	var out []*entity.StockMovement
	for i := len(r.b.s.movements) - 1; i >= 0; i-- {
		m := r.b.s.movements[i]
		if !matches(&m, q) {
			continue
		}
		out = append(out, &m)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func matches(m *entity.StockMovement, q repository.MovementQuery) bool {
	switch {
	case m.CompanyID != q.CompanyID:
		return false
	case q.ProductID != "" && m.ProductID != q.ProductID:
		return false
	case q.LocationID != "" && m.FromLocationID != q.LocationID && m.ToLocationID != q.LocationID:
		return false
	case q.Type != "" && m.Type != q.Type:
		return false
	case q.From != nil && m.Timestamp.Before(*q.From):
		return false
	case q.To != nil && m.Timestamp.After(*q.To):
		return false
	case q.OnlyAudit && !m.IsAudit:
		return false
	case q.OnlyDeficit && !m.IsDeficit():
		return false
	case q.After != nil && !q.After.Before(m):
		return false
	}
	return true
}

// =============================================================================
// LOCATIONS
// =============================================================================

type LocationRepository struct{ b binding }

var _ repository.LocationRepository = (*LocationRepository)(nil)

func (r *LocationRepository) Create(ctx context.Context, l *entity.Location) error {
	return r.b.run(ctx, func(t *memTx) error {
		if _, exists := t.location(l.ID); exists {
			return domain.ErrDuplicate
		}
		t.locations[l.ID] = &stagedLocation{l: *l, created: true}
		return nil
	})
}

func (r *LocationRepository) GetByID(ctx context.Context, id string) (*entity.Location, error) {
	var out *entity.Location
	err := r.b.run(ctx, func(t *memTx) error {
		if l, ok := t.location(id); ok {
			out = &l
		}
		return nil
	})
	return out, err
}

func (r *LocationRepository) ListByCompany(ctx context.Context, companyID string) ([]*entity.Location, error) {
	var out []*entity.Location
	err := r.b.run(ctx, func(t *memTx) error {
		t.s.mu.RLock()
		merged := make(map[string]entity.Location, len(t.s.locations))
		for id, l := range t.s.locations {
			merged[id] = l
		}
		t.s.mu.RUnlock()
		for id, sl := range t.locations {
			merged[id] = sl.l
		}
		for _, id := range sortedKeys(merged) {
			if l := merged[id]; l.CompanyID == companyID {
				out = append(out, &l)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r *LocationRepository) Update(ctx context.Context, l *entity.Location) error {
	return r.b.run(ctx, func(t *memTx) error {
		cur, ok := t.location(l.ID)
		if !ok {
			return domain.ErrNotFound
		}
		cur.Name, cur.MultiLocation, cur.UpdatedAt = l.Name, l.MultiLocation, l.UpdatedAt
		created := false
		if sl, staged := t.locations[l.ID]; staged {
			created = sl.created
		}
		t.locations[l.ID] = &stagedLocation{l: cur, created: created}
		return nil
	})
}

// =============================================================================
// SALES
// =============================================================================

type SaleRepository struct{ b binding }

var _ repository.SaleRepository = (*SaleRepository)(nil)

func (r *SaleRepository) Create(ctx context.Context, s *entity.Sale) error {
	return r.b.run(ctx, func(t *memTx) error {
		if _, exists := t.sale(s.ID); exists {
			return domain.ErrDuplicate
		}
		s.Version = 1
		t.sales[s.ID] = &stagedSale{s: *s, created: true}
		return nil
	})
}

func (r *SaleRepository) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.b.run(ctx, func(t *memTx) error {
		if s, ok := t.sale(id); ok {
			out = &s
		}
		return nil
	})
	return out, err
}

func (r *SaleRepository) Update(ctx context.Context, s *entity.Sale) error {
	return r.b.run(ctx, func(t *memTx) error {
		cur, ok := t.sale(s.ID)
		if !ok || cur.Version != s.Version {
			return conflict("sale", s.ID)
		}
		ss, staged := t.sales[s.ID]
		if !staged {
			ss = &stagedSale{base: cur.Version}
			t.sales[s.ID] = ss
		}
		s.Version++
		ss.s = *s
		return nil
	})
}

func (r *SaleRepository) ListByCompany(ctx context.Context, companyID string, status entity.SaleStatus) ([]*entity.Sale, error) {
	return r.list(ctx, func(s *entity.Sale) bool {
		return s.CompanyID == companyID && (status == "" || s.Status == status)
	})
}

func (r *SaleRepository) ListPendingByProduct(ctx context.Context, productID string) ([]*entity.Sale, error) {
	return r.list(ctx, func(s *entity.Sale) bool {
		return s.ProductID == productID && s.Status == entity.SaleStatusPending
	})
}

func (r *SaleRepository) list(ctx context.Context, keep func(*entity.Sale) bool) ([]*entity.Sale, error) {
	var out []*entity.Sale
	err := r.b.run(ctx, func(t *memTx) error {
		t.s.mu.RLock()
		merged := make(map[string]entity.Sale, len(t.s.sales))
		for id, s := range t.s.sales {
			merged[id] = s
		}
		t.s.mu.RUnlock()
		for id, ss := range t.sales {
			merged[id] = ss.s
		}
		for _, id := range sortedKeys(merged) {
			if s := merged[id]; keep(&s) {
				out = append(out, &s)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r *SaleRepository) NextGuideNumber(ctx context.Context, companyID string) (int64, error) {
	var n int64
	err := r.b.run(ctx, func(t *memTx) error {
		c, staged := t.counters[companyID]
		if !staged {
			t.s.mu.RLock()
			base := t.s.counters[companyID]
			t.s.mu.RUnlock()
			c = &stagedCounter{base: base, value: base}
			t.counters[companyID] = c
		}
		c.value++
		n = c.value
		return nil
	})
	return n, err
}

// =============================================================================
// PRODUCTIONS
// =============================================================================

type ProductionRepository struct{ b binding }

var _ repository.ProductionRepository = (*ProductionRepository)(nil)

func (r *ProductionRepository) Create(ctx context.Context, p *entity.Production) error {
	return r.b.run(ctx, func(t *memTx) error {
		if _, exists := t.production(p.ID); exists {
			return domain.ErrDuplicate
		}
		p.Version = 1
		t.productions[p.ID] = &stagedProduction{p: cloneProduction(*p), created: true}
		return nil
	})
}

func (r *ProductionRepository) GetByID(ctx context.Context, id string) (*entity.Production, error) {
	var out *entity.Production
	err := r.b.run(ctx, func(t *memTx) error {
		if p, ok := t.production(id); ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *ProductionRepository) Update(ctx context.Context, p *entity.Production) error {
	return r.b.run(ctx, func(t *memTx) error {
		cur, ok := t.production(p.ID)
		if !ok || cur.Version != p.Version {
			return conflict("production", p.ID)
		}
		sp, staged := t.productions[p.ID]
		if !staged {
			sp = &stagedProduction{base: cur.Version}
			t.productions[p.ID] = sp
		}
		p.Version++
		sp.p = cloneProduction(*p)
		return nil
	})
}

func (r *ProductionRepository) ListByCompany(ctx context.Context, companyID string, status entity.ProductionStatus) ([]*entity.Production, error) {
	var out []*entity.Production
	err := r.b.run(ctx, func(t *memTx) error {
		t.s.mu.RLock()
		merged := make(map[string]entity.Production, len(t.s.productions))
		for id, p := range t.s.productions {
			merged[id] = cloneProduction(p)
		}
		t.s.mu.RUnlock()
		for id, sp := range t.productions {
			merged[id] = cloneProduction(sp.p)
		}
		for _, id := range sortedKeys(merged) {
			if p := merged[id]; p.CompanyID == companyID && (status == "" || p.Status == status) {
				out = append(out, &p)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, err
}
