package inventory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// StockSnapshot foto inmutable del stock de una empresa. No se modifica después de construida.
type StockSnapshot struct {
	CompanyID   string
	RefreshedAt time.Time
	products    map[string]*entity.Product
	levels      map[string][]*entity.StockLevel
	order       []string // ids ordenados por nombre
}

// Get devuelve una copia del producto.
func (s *StockSnapshot) Get(productID string) (*entity.Product, bool) {
	p, ok := s.products[productID]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

func (s *StockSnapshot) Levels(productID string) []*entity.StockLevel {
	src := s.levels[productID]
	out := make([]*entity.StockLevel, 0, len(src))
	for _, l := range src {
		cp := *l
		out = append(out, &cp)
	}
	return out
}

// List productos ordenados por nombre.
func (s *StockSnapshot) List() []*entity.Product {
	out := make([]*entity.Product, 0, len(s.order))
	for _, id := range s.order {
		cp := *s.products[id]
		out = append(out, &cp)
	}
	return out
}

// LowStock productos cuyo disponible llegó al umbral.
func (s *StockSnapshot) LowStock() []*entity.Product {
	var out []*entity.Product
	for _, p := range s.List() {
		if p.IsLowStock() {
			out = append(out, p)
		}
	}
	return out
}

func (s *StockSnapshot) Len() int { return len(s.order) }

// StockProjection modelo de lectura del stock por empresa. Cada notificación del ledger
// reemplaza la foto completa; Changed avisa a los lectores que hay una nueva.
//
// gens cuenta las notificaciones recibidas por empresa, tenga foto o no. Una carga solo se
// publica si ninguna notificación llegó mientras leía y nunca sobre una foto de una
// generación posterior.
type StockProjection struct {
	products repository.ProductRepository
	levels   repository.StockLevelRepository
	log      zerolog.Logger

	mu       sync.RWMutex
	snaps    map[string]*StockSnapshot
	snapGens map[string]uint64
	gens     map[string]uint64
	changed  chan struct{}
}

func NewStockProjection(products repository.ProductRepository, levels repository.StockLevelRepository, log zerolog.Logger) *StockProjection {
	return &StockProjection{
		products: products,
		levels:   levels,
		log:      log,
		snaps:    make(map[string]*StockSnapshot),
		snapGens: make(map[string]uint64),
		gens:     make(map[string]uint64),
		changed:  make(chan struct{}),
	}
}

// Snapshot devuelve la foto vigente, cargándola la primera vez.
func (p *StockProjection) Snapshot(ctx context.Context, companyID string) (*StockSnapshot, error) {
	p.mu.RLock()
	s, ok := p.snaps[companyID]
	p.mu.RUnlock()
	if ok {
		return s, nil
	}
	return p.Refresh(ctx, companyID)
}

// Refresh recarga la foto de la empresa completa y la publica. Si llega una notificación
// durante la lectura, vuelve a leer.
func (p *StockProjection) Refresh(ctx context.Context, companyID string) (*StockSnapshot, error) {
	for {
		p.mu.RLock()
		gen := p.gens[companyID]
		p.mu.RUnlock()

		s, err := p.load(ctx, companyID)
		if err != nil {
			return nil, err
		}

		p.mu.Lock()
		if p.gens[companyID] != gen {
			p.mu.Unlock()
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			continue
		}
		if cur, ok := p.snaps[companyID]; ok && p.snapGens[companyID] > gen {
			p.mu.Unlock()
			return cur, nil
		}
		p.snaps[companyID] = s
		p.snapGens[companyID] = gen
		close(p.changed)
		p.changed = make(chan struct{})
		p.mu.Unlock()
		return s, nil
	}
}

func (p *StockProjection) load(ctx context.Context, companyID string) (*StockSnapshot, error) {
	list, err := p.products.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("proyección: listar productos: %w", err)
	}
	s := &StockSnapshot{
		CompanyID:   companyID,
		RefreshedAt: time.Now().UTC(),
		products:    make(map[string]*entity.Product, len(list)),
		levels:      make(map[string][]*entity.StockLevel, len(list)),
		order:       make([]string, 0, len(list)),
	}
	for _, prod := range list {
		levels, err := p.levels.ListByProduct(ctx, prod.ID)
		if err != nil {
			return nil, fmt.Errorf("proyección: niveles de %s: %w", prod.ID, err)
		}
		s.products[prod.ID] = prod
		s.levels[prod.ID] = levels
		s.order = append(s.order, prod.ID)
	}
	sort.SliceStable(s.order, func(i, j int) bool {
		a, b := s.products[s.order[i]], s.products[s.order[j]]
		if a.Name == b.Name {
			return a.ID < b.ID
		}
		return Fold(a.Name) < Fold(b.Name)
	})
	return s, nil
}

// Changed canal que se cierra en la próxima actualización de cualquier foto.
func (p *StockProjection) Changed() <-chan struct{} {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.changed
}

// Run consume notificaciones del ledger hasta que ctx termine. Solo se recargan
// las empresas que ya tienen foto; el resto se carga al primer Snapshot, que igual
// descarta lecturas hechas antes de la notificación.
func (p *StockProjection) Run(ctx context.Context, notifier ports.ChangeNotifier) error {
	events, err := notifier.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("proyección: suscribir: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.mu.Lock()
			p.gens[ev.CompanyID]++
			_, cached := p.snaps[ev.CompanyID]
			p.mu.Unlock()
			if !cached {
				continue
			}
			if _, err := p.Refresh(ctx, ev.CompanyID); err != nil {
				p.log.Error().Err(err).Str("company_id", ev.CompanyID).Msg("recargar proyección")
			}
		}
	}
}
