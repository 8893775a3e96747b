package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

func TestProjection_SeRecargaConNotificaciones(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t)
	pid := f.product(t, "Miel", 10)

	proj := inventory.NewStockProjection(f.repos.Products, f.repos.Levels, zerolog.Nop())
	snap, err := proj.Snapshot(ctx, companyID)
	require.NoError(t, err)
	p, ok := snap.Get(pid)
	require.True(t, ok)
	assert.True(t, p.Stock.Equal(qty(10)))

	changed := proj.Changed()
	go func() { _ = proj.Run(ctx, f.notifier) }()

	_, err = f.ledger.ApplyMovement(ctx, entity.StockMovement{
		CompanyID: companyID, Type: entity.MovementTypeIN, ProductID: pid, Quantity: qty(5), ToLocationID: f.locB,
	}, actor)
	require.NoError(t, err)

	// Run se suscribe de forma asíncrona; se reenvía el aviso hasta que la foto cambie.
	require.Eventually(t, func() bool {
		_ = f.notifier.Publish(ctx, ports.ChangeEvent{CompanyID: companyID, ProductIDs: []string{pid}})
		select {
		case <-changed:
			return true
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	snap, err = proj.Snapshot(ctx, companyID)
	require.NoError(t, err)
	p, _ = snap.Get(pid)
	assert.True(t, p.Stock.Equal(qty(15)))
	assert.Len(t, snap.Levels(pid), 2)

	// La foto anterior es inmutable.
	p.Stock = qty(0)
	again, _ := snap.Get(pid)
	assert.True(t, again.Stock.Equal(qty(15)))
}

func TestProjection_ListaOrdenadaYStockBajo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.product(t, "zanahoria", 3)
	bajo := f.product(t, "Ápio", 2)
	f.product(t, "Berenjena", 9)

	p := f.get(t, bajo)
	p.LowStockThreshold = qty(5)
	require.NoError(t, f.repos.Products.UpdateMetadata(ctx, p))

	proj := inventory.NewStockProjection(f.repos.Products, f.repos.Levels, zerolog.Nop())
	snap, err := proj.Refresh(ctx, companyID)
	require.NoError(t, err)

	var names []string
	for _, p := range snap.List() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Ápio", "Berenjena", "zanahoria"}, names)

	low := snap.LowStock()
	require.Len(t, low, 1)
	assert.Equal(t, bajo, low[0].ID)
}

// gatedProducts detiene el primer listado de la empresa hasta que se libere release.
type gatedProducts struct {
	repository.ProductRepository
	companyID string
	once      sync.Once
	listed    chan struct{}
	release   chan struct{}
}

func (g *gatedProducts) ListByCompany(ctx context.Context, companyID string) ([]*entity.Product, error) {
	list, err := g.ProductRepository.ListByCompany(ctx, companyID)
	if companyID == g.companyID {
		g.once.Do(func() {
			close(g.listed)
			<-g.release
		})
	}
	return list, err
}

// waitForRun publica para otra empresa ya cargada hasta que Run la recarga. Como Run atiende
// los eventos en orden, al volver todos los eventos anteriores ya fueron procesados.
func waitForRun(t *testing.T, ctx context.Context, f *fixture, proj *inventory.StockProjection, otherCompany string) {
	t.Helper()
	require.Eventually(t, func() bool {
		changed := proj.Changed()
		_ = f.notifier.Publish(ctx, ports.ChangeEvent{CompanyID: otherCompany})
		select {
		case <-changed:
			return true
		case <-time.After(20 * time.Millisecond):
			return false
		}
	}, 2*time.Second, time.Millisecond)
}

func TestProjection_PrimeraCargaNoPierdeNotificaciones(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t)
	pid := f.product(t, "Panela", 0)

	gated := &gatedProducts{
		ProductRepository: f.repos.Products,
		companyID:         companyID,
		listed:            make(chan struct{}),
		release:           make(chan struct{}),
	}
	proj := inventory.NewStockProjection(gated, f.repos.Levels, zerolog.Nop())

	const other = "empresa-2"
	_, err := proj.Snapshot(ctx, other)
	require.NoError(t, err)
	go func() { _ = proj.Run(ctx, f.notifier) }()
	waitForRun(t, ctx, f, proj, other)

	type result struct {
		snap *inventory.StockSnapshot
		err  error
	}
	first := make(chan result, 1)
	go func() {
		s, err := proj.Snapshot(ctx, companyID)
		first <- result{s, err}
	}()
	<-gated.listed

	// El IN se confirma mientras la primera carga sigue leyendo.
	_, err = f.ledger.ApplyMovement(ctx, entity.StockMovement{
		CompanyID: companyID, Type: entity.MovementTypeIN, ProductID: pid, Quantity: qty(10), ToLocationID: f.locA,
	}, actor)
	require.NoError(t, err)
	waitForRun(t, ctx, f, proj, other)
	close(gated.release)

	res := <-first
	require.NoError(t, res.err)
	p, ok := res.snap.Get(pid)
	require.True(t, ok)
	assert.True(t, p.Stock.Equal(qty(10)), "stock en la foto: %s", p.Stock)

	snap, err := proj.Snapshot(ctx, companyID)
	require.NoError(t, err)
	p, _ = snap.Get(pid)
	assert.True(t, p.Stock.Equal(qty(10)))
}

// slowProducts retrasa el listado de la empresa mientras hold esté abierto.
type slowProducts struct {
	repository.ProductRepository
	mu   sync.Mutex
	hold chan struct{}
	seen chan struct{}
}

func (s *slowProducts) ListByCompany(ctx context.Context, companyID string) ([]*entity.Product, error) {
	list, err := s.ProductRepository.ListByCompany(ctx, companyID)
	s.mu.Lock()
	hold, seen := s.hold, s.seen
	s.hold, s.seen = nil, nil
	s.mu.Unlock()
	if hold != nil {
		close(seen)
		<-hold
	}
	return list, err
}

func TestProjection_CargaViejaNoPisaUnaMasNueva(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t)
	pid := f.product(t, "Arequipe", 2)

	slow := &slowProducts{ProductRepository: f.repos.Products, hold: make(chan struct{}), seen: make(chan struct{})}
	hold, seen := slow.hold, slow.seen
	proj := inventory.NewStockProjection(slow, f.repos.Levels, zerolog.Nop())

	// Carga lenta con stock 2, detenida después de leer.
	stale := make(chan *inventory.StockSnapshot, 1)
	go func() {
		s, _ := proj.Refresh(ctx, companyID)
		stale <- s
	}()
	<-seen

	// Un IN notificado y la recarga de Run publican una foto más nueva.
	go func() { _ = proj.Run(ctx, f.notifier) }()
	_, err := proj.Refresh(ctx, companyID)
	require.NoError(t, err)
	_, err = f.ledger.ApplyMovement(ctx, entity.StockMovement{
		CompanyID: companyID, Type: entity.MovementTypeIN, ProductID: pid, Quantity: qty(3), ToLocationID: f.locA,
	}, actor)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		changed := proj.Changed()
		_ = f.notifier.Publish(ctx, ports.ChangeEvent{CompanyID: companyID, ProductIDs: []string{pid}})
		select {
		case <-changed:
			snap, err := proj.Snapshot(ctx, companyID)
			if err != nil {
				return false
			}
			p, _ := snap.Get(pid)
			return p.Stock.Equal(qty(5))
		case <-time.After(20 * time.Millisecond):
			return false
		}
	}, 2*time.Second, time.Millisecond)

	close(hold)
	s := <-stale
	require.NotNil(t, s)
	p, _ := s.Get(pid)
	assert.True(t, p.Stock.Equal(qty(5)), "la carga vieja se reintenta o cede ante la nueva")

	snap, err := proj.Snapshot(ctx, companyID)
	require.NoError(t, err)
	p, _ = snap.Get(pid)
	assert.True(t, p.Stock.Equal(qty(5)))
}
