package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
)

const companyID = "empresa-1"

var actor = inventory.Actor{UserID: "u-1", UserName: "Bodeguero"}

func qty(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

// ── Fixture ───────────────────────────────────────────────────────────────────

type fixture struct {
	store     *memory.Store
	repos     inventory.Repos
	notifier  *memory.Notifier
	ledger    *inventory.StockLedger
	log       *inventory.MovementLog
	sales     *inventory.ReservationManager
	transfers *inventory.TransferCoordinator
	audits    *inventory.AuditReconciler
	prod      *inventory.ProductionUseCase
	locA      string
	locB      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithRetry(t, inventory.RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond})
}

func newFixtureWithRetry(t *testing.T, retry inventory.RetryPolicy) *fixture {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repos()
	notifier := memory.NewNotifier()
	ledger := inventory.NewStockLedger(store, notifier, retry, zerolog.Nop())

	f := &fixture{
		store:     store,
		repos:     repos,
		notifier:  notifier,
		ledger:    ledger,
		log:       inventory.NewMovementLog(repos.Movements),
		sales:     inventory.NewReservationManager(ledger, repos.Sales, zerolog.Nop()),
		transfers: inventory.NewTransferCoordinator(ledger),
		audits:    inventory.NewAuditReconciler(ledger, zerolog.Nop()),
		prod:      inventory.NewProductionUseCase(ledger, repos.Productions, zerolog.Nop()),
	}
	f.locA = f.location(t, "Bodega A")
	f.locB = f.location(t, "Bodega B")
	return f
}

func (f *fixture) location(t *testing.T, name string) string {
	t.Helper()
	loc := &entity.Location{ID: uuid.New().String(), CompanyID: companyID, Name: name, MultiLocation: true}
	require.NoError(t, f.repos.Locations.Create(context.Background(), loc))
	return loc.ID
}

// product crea un producto con ubicación principal A y, si initial > 0, un IN en A.
func (f *fixture) product(t *testing.T, name string, initial int64) string {
	t.Helper()
	ctx := context.Background()
	p := &entity.Product{
		ID:         uuid.New().String(),
		CompanyID:  companyID,
		Name:       name,
		Unit:       "und",
		LocationID: f.locA,
	}
	require.NoError(t, f.repos.Products.Create(ctx, p))
	if initial > 0 {
		_, err := f.ledger.ApplyMovement(ctx, entity.StockMovement{
			CompanyID:    companyID,
			Type:         entity.MovementTypeIN,
			ProductID:    p.ID,
			Quantity:     qty(initial),
			ToLocationID: f.locA,
			Reason:       "Stock inicial",
		}, actor)
		require.NoError(t, err)
	}
	return p.ID
}

func (f *fixture) get(t *testing.T, productID string) *entity.Product {
	t.Helper()
	p, err := f.repos.Products.GetByID(context.Background(), productID)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func (f *fixture) level(t *testing.T, productID, locationID string) *entity.StockLevel {
	t.Helper()
	l, err := f.repos.Levels.Get(context.Background(), productID, locationID)
	require.NoError(t, err)
	return l
}

func (f *fixture) movements(t *testing.T, q repository.MovementQuery) []*entity.StockMovement {
	t.Helper()
	q.CompanyID = companyID
	items, err := f.log.Query(context.Background(), q)
	require.NoError(t, err)
	return items
}

func requireCounters(t *testing.T, p *entity.Product, stock, reserved int64) {
	t.Helper()
	require.True(t, p.Stock.Equal(qty(stock)), "stock: esperado %d, obtenido %s", stock, p.Stock)
	require.True(t, p.ReservedStock.Equal(qty(reserved)), "reservado: esperado %d, obtenido %s", reserved, p.ReservedStock)
}
