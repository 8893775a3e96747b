// Package memory implementa el almacenamiento del ledger en memoria con el mismo contrato
// de concurrencia optimista que PostgreSQL: cada transacción lee el estado confirmado,
// acumula sus escrituras y al confirmar verifica las versiones leídas. Uso: desarrollo y tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// =============================================================================
// STORE
// =============================================================================

type levelKey struct {
	ProductID  string
	LocationID string
}

// Store estado confirmado. Todas las lecturas devuelven copias.
type Store struct {
	mu          sync.RWMutex
	products    map[string]entity.Product
	levels      map[levelKey]entity.StockLevel
	locations   map[string]entity.Location
	sales       map[string]entity.Sale
	productions map[string]entity.Production
	counters    map[string]int64
	movements   []entity.StockMovement // en orden de inserción: seq y timestamp crecientes
	seq         int64
	lastTS      time.Time
	now         func() time.Time
}

func NewStore() *Store {
	return &Store{
		products:    make(map[string]entity.Product),
		levels:      make(map[levelKey]entity.StockLevel),
		locations:   make(map[string]entity.Location),
		sales:       make(map[string]entity.Sale),
		productions: make(map[string]entity.Production),
		counters:    make(map[string]int64),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock reemplaza el reloj usado para los timestamps de los movimientos.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Run implementa inventory.TxRunner.
func (s *Store) Run(ctx context.Context, fn func(r inventory.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := newTx(s)
	if err := fn(t.repos()); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.commit(t)
}

// Repos repositorios en modo autocommit (cada escritura es su propia transacción).
func (s *Store) Repos() inventory.Repos {
	return binding{s: s}.repos()
}

func (s *Store) Analytics() *AnalyticsRepository {
	return &AnalyticsRepository{s: s}
}

// =============================================================================
// TRANSACCIÓN
// =============================================================================

type stagedProduct struct {
	p        entity.Product
	base     int64
	created  bool
	metaOnly bool
}

type stagedLevel struct {
	l    entity.StockLevel
	base int64
}

type stagedSale struct {
	s       entity.Sale
	base    int64
	created bool
}

type stagedProduction struct {
	p       entity.Production
	base    int64
	created bool
}

type stagedLocation struct {
	l       entity.Location
	created bool
}

type stagedCounter struct {
	base  int64
	value int64
}

type memTx struct {
	s           *Store
	products    map[string]*stagedProduct
	levels      map[levelKey]*stagedLevel
	sales       map[string]*stagedSale
	productions map[string]*stagedProduction
	locations   map[string]*stagedLocation
	counters    map[string]*stagedCounter
	movements   []*entity.StockMovement
}

func newTx(s *Store) *memTx {
	return &memTx{
		s:           s,
		products:    make(map[string]*stagedProduct),
		levels:      make(map[levelKey]*stagedLevel),
		sales:       make(map[string]*stagedSale),
		productions: make(map[string]*stagedProduction),
		locations:   make(map[string]*stagedLocation),
		counters:    make(map[string]*stagedCounter),
	}
}

func (t *memTx) repos() inventory.Repos {
	return binding{s: t.s, tx: t}.repos()
}

func conflict(entityName, id string) error {
	return &domain.ConcurrentModificationError{Entity: entityName, ID: id}
}

// commit valida todas las versiones leídas y, solo si todas coinciden, aplica las escrituras.
func (s *Store) commit(t *memTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// ── Validación ────────────────────────────────────────────────────────────
	for id, sp := range t.products {
		cur, exists := s.products[id]
		switch {
		case sp.created && exists:
			return domain.ErrDuplicate
		case sp.created:
		case !exists:
			return conflict("product", id)
		case !sp.metaOnly && cur.Version != sp.base:
			return conflict("product", id)
		}
	}
	for k, sl := range t.levels {
		if s.levels[k].Version != sl.base {
			return conflict("stock_level", k.ProductID+"/"+k.LocationID)
		}
	}
	for id, ss := range t.sales {
		cur, exists := s.sales[id]
		if ss.created && exists {
			return domain.ErrDuplicate
		}
		if !ss.created && (!exists || cur.Version != ss.base) {
			return conflict("sale", id)
		}
	}
	for id, sp := range t.productions {
		cur, exists := s.productions[id]
		if sp.created && exists {
			return domain.ErrDuplicate
		}
		if !sp.created && (!exists || cur.Version != sp.base) {
			return conflict("production", id)
		}
	}
	for id, sl := range t.locations {
		if _, exists := s.locations[id]; sl.created && exists {
			return domain.ErrDuplicate
		}
	}
	for company, c := range t.counters {
		if s.counters[company] != c.base {
			return conflict("company_counter", company)
		}
	}

	// ── Escritura ─────────────────────────────────────────────────────────────
	for id, sp := range t.products {
		if sp.metaOnly {
			cur := s.products[id]
			cur.Name, cur.Category, cur.Unit = sp.p.Name, sp.p.Category, sp.p.Unit
			cur.LowStockThreshold, cur.LocationID, cur.UpdatedAt = sp.p.LowStockThreshold, sp.p.LocationID, sp.p.UpdatedAt
			s.products[id] = cur
			continue
		}
		s.products[id] = sp.p
	}
	for k, sl := range t.levels {
		s.levels[k] = sl.l
	}
	for id, ss := range t.sales {
		s.sales[id] = ss.s
	}
	for id, sp := range t.productions {
		s.productions[id] = cloneProduction(sp.p)
	}
	for id, sl := range t.locations {
		s.locations[id] = sl.l
	}
	for company, c := range t.counters {
		s.counters[company] = c.value
	}
	for _, m := range t.movements {
		s.seq++
		ts := s.now()
		if !ts.After(s.lastTS) {
			ts = s.lastTS.Add(time.Nanosecond)
		}
		s.lastTS = ts
		m.Seq, m.Timestamp = s.seq, ts
		s.movements = append(s.movements, *m)
	}
	return nil
}

// ── Lecturas con read-your-writes ─────────────────────────────────────────────

func (t *memTx) product(id string) (entity.Product, bool) {
	if sp, ok := t.products[id]; ok {
		return sp.p, true
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	p, ok := t.s.products[id]
	return p, ok
}

func (t *memTx) level(k levelKey) entity.StockLevel {
	if sl, ok := t.levels[k]; ok {
		return sl.l
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	if l, ok := t.s.levels[k]; ok {
		return l
	}
	return entity.StockLevel{ProductID: k.ProductID, LocationID: k.LocationID}
}

func (t *memTx) sale(id string) (entity.Sale, bool) {
	if ss, ok := t.sales[id]; ok {
		return ss.s, true
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	s, ok := t.s.sales[id]
	return s, ok
}

func (t *memTx) production(id string) (entity.Production, bool) {
	if sp, ok := t.productions[id]; ok {
		return cloneProduction(sp.p), true
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	p, ok := t.s.productions[id]
	return cloneProduction(p), ok
}

func (t *memTx) location(id string) (entity.Location, bool) {
	if sl, ok := t.locations[id]; ok {
		return sl.l, true
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	l, ok := t.s.locations[id]
	return l, ok
}

func cloneProduction(p entity.Production) entity.Production {
	if p.Materials != nil {
		p.Materials = append([]entity.MaterialUsage(nil), p.Materials...)
	}
	return p
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
