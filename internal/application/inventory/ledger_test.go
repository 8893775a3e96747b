package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// ── Escenario completo ────────────────────────────────────────────────────────

func TestLedger_EscenarioReservaDespachoTrasladoAuditoria(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pid := f.product(t, "Café molido", 100)

	sale, err := f.sales.Reserve(ctx, inventory.ReserveInput{CompanyID: companyID, ProductID: pid, Quantity: qty(30), Actor: actor})
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusPending, sale.Status)
	assert.Equal(t, "GT-000001", sale.GuideNumber)
	p := f.get(t, pid)
	requireCounters(t, p, 100, 30)
	assert.True(t, p.Available().Equal(qty(70)))
	assert.Len(t, f.movements(t, repository.MovementQuery{ProductID: pid}), 1, "reservar no anexa movimientos")

	sale, err = f.sales.Fulfill(ctx, companyID, sale.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusFulfilled, sale.Status)
	requireCounters(t, f.get(t, pid), 70, 0)
	outs := f.movements(t, repository.MovementQuery{ProductID: pid, Type: entity.MovementTypeOUT})
	require.Len(t, outs, 1)
	assert.True(t, outs[0].Quantity.Equal(qty(30)))
	assert.Equal(t, sale.ID, outs[0].Reference)
	assert.Equal(t, outs[0].ID, sale.MovementID)

	_, err = f.transfers.Transfer(ctx, inventory.TransferInput{
		CompanyID: companyID, ProductID: pid, FromLocationID: f.locA, ToLocationID: f.locB, Quantity: qty(20), Actor: actor,
	})
	require.NoError(t, err)
	requireCounters(t, f.get(t, pid), 70, 0)
	assert.True(t, f.level(t, pid, f.locA).Quantity.Equal(qty(50)))
	assert.True(t, f.level(t, pid, f.locB).Quantity.Equal(qty(20)))
	assert.Len(t, f.movements(t, repository.MovementQuery{ProductID: pid, Type: entity.MovementTypeTRANSFER}), 1)

	res, err := f.audits.Reconcile(ctx, inventory.ReconcileInput{CompanyID: companyID, ProductID: pid, PhysicalCount: qty(65), Actor: actor})
	require.NoError(t, err)
	require.NotNil(t, res.Movement)
	assert.True(t, res.SystemCountBefore.Equal(qty(70)))
	assert.True(t, res.Delta.Equal(qty(-5)))
	assert.True(t, res.Movement.Quantity.Equal(qty(-5)))
	assert.True(t, res.Movement.IsAudit)
	requireCounters(t, f.get(t, pid), 65, 0)
	assert.Len(t, f.movements(t, repository.MovementQuery{ProductID: pid, Type: entity.MovementTypeADJUSTMENT}), 1)

	drifts, err := f.ledger.Verify(ctx, companyID, pid)
	require.NoError(t, err)
	assert.Empty(t, drifts, "el stock debe coincidir con el replay del log")
}

// ── Reservas ──────────────────────────────────────────────────────────────────

func TestReservation_FulfillEsIdempotente(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pid := f.product(t, "Azúcar", 50)

	sale, err := f.sales.Reserve(ctx, inventory.ReserveInput{CompanyID: companyID, ProductID: pid, Quantity: qty(10), Actor: actor})
	require.NoError(t, err)

	first, err := f.sales.Fulfill(ctx, companyID, sale.ID, actor)
	require.NoError(t, err)
	second, err := f.sales.Fulfill(ctx, companyID, sale.ID, actor)
	require.NoError(t, err)

	assert.Equal(t, first.MovementID, second.MovementID)
	assert.Len(t, f.movements(t, repository.MovementQuery{ProductID: pid, Type: entity.MovementTypeOUT}), 1)
	requireCounters(t, f.get(t, pid), 40, 0)
}

func TestReservation_SobreReservaNoCambiaContadores(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pid := f.product(t, "Harina", 100)

	_, err := f.sales.Reserve(ctx, inventory.ReserveInput{CompanyID: companyID, ProductID: pid, Quantity: qty(60), Actor: actor})
	require.NoError(t, err)

	_, err = f.sales.Reserve(ctx, inventory.ReserveInput{CompanyID: companyID, ProductID: pid, Quantity: qty(41), Actor: actor})
	require.Error(t, err)
	var insufficient *domain.InsufficientAvailableStockError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Available.Equal(qty(40)))

	requireCounters(t, f.get(t, pid), 100, 60)
	sales, err := f.sales.List(ctx, companyID, "")
	require.NoError(t, err)
	assert.Len(t, sales, 1, "la venta rechazada no debe persistir")

	next, err := f.sales.Reserve(ctx, inventory.ReserveInput{CompanyID: companyID, ProductID: pid, Quantity: qty(40), Actor: actor})
	require.NoError(t, err)
	assert.Equal(t, "GT-000002", next.GuideNumber, "el contador de guías no avanza en un rollback")
}

func TestReservation_TransicionesInvalidas(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pid := f.product(t, "Sal", 20)

	cancelled, err := f.sales.Reserve(ctx, inventory.ReserveInput{CompanyID: companyID, ProductID: pid, Quantity: qty(5), Actor: actor})
	require.NoError(t, err)
	_, err = f.sales.Cancel(ctx, companyID, cancelled.ID)
	require.NoError(t, err)
	requireCounters(t, f.get(t, pid), 20, 0)

	_, err = f.sales.Cancel(ctx, companyID, cancelled.ID)
	require.NoError(t, err, "cancelar dos veces no falla")
	_, err = f.sales.Fulfill(ctx, companyID, cancelled.ID, actor)
	assert.ErrorIs(t, err, domain.ErrConflict)

	fulfilled, err := f.sales.Reserve(ctx, inventory.ReserveInput{CompanyID: companyID, ProductID: pid, Quantity: qty(5), Actor: actor})
	require.NoError(t, err)
	_, err = f.sales.Fulfill(ctx, companyID, fulfilled.ID, actor)
	require.NoError(t, err)
	_, err = f.sales.Cancel(ctx, companyID, fulfilled.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.sales.Fulfill(ctx, "otra-empresa", fulfilled.ID, actor)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.movements(t, repository.MovementQuery{ProductID: pid, Type: entity.MovementTypeADJUSTMENT}))
	requireCounters(t, f.get(t, pid), 15, 0)
}

func TestReservation_RecalculaReservadoDesdeVentasPendientes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pid := f.product(t, "Aceite", 30)

	_, err := f.sales.Reserve(ctx, inventory.ReserveInput{CompanyID: companyID, ProductID: pid, Quantity: qty(7), Actor: actor})
	require.NoError(t, err)
	_, err = f.sales.Reserve(ctx, inventory.ReserveInput{CompanyID: companyID, ProductID: pid, Quantity: qty(3), Actor: actor})
	require.NoError(t, err)

	// Contadores corruptos: se pierde lo reservado.
	p := f.get(t, pid)
	p.ReservedStock = qty(0)
	require.NoError(t, f.repos.Products.UpdateCounters(ctx, p))
	lvl := f.level(t, pid, f.locA)
	lvl.Reserved = qty(0)
	require.NoError(t, f.repos.Levels.Save(ctx, lvl))

	st, err := f.sales.RecalculateReserved(ctx, companyID, pid)
	require.NoError(t, err)
	requireCounters(t, st.Product, 30, 10)
	assert.True(t, f.level(t, pid, f.locA).Reserved.Equal(qty(10)))
}

func TestReservation_ConcurrentesNuncaSobrevenden(t *testing.T) {
	ctx := context.Background()
	f := newFixtureWithRetry(t, inventory.RetryPolicy{MaxAttempts: 50, Backoff: time.Millisecond})
	pid := f.product(t, "Último lote", 10)

	const workers = 25
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.sales.Reserve(ctx, inventory.ReserveInput{CompanyID: companyID, ProductID: pid, Quantity: qty(1), Actor: actor})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !errors.Is(err, domain.ErrInsufficientAvailableStock) && !errors.Is(err, domain.ErrConcurrentModification) {
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	p := f.get(t, pid)
	assert.LessOrEqual(t, succeeded, 10)
	assert.True(t, p.ReservedStock.Equal(qty(int64(succeeded))))
	assert.True(t, p.ReservedStock.LessThanOrEqual(p.Stock))
	pending, err := f.sales.List(ctx, companyID, entity.SaleStatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, succeeded)
}

// ── Traslados ─────────────────────────────────────────────────────────────────

func TestTransfer_IdaYVueltaRestauraUbicaciones(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pid := f.product(t, "Arroz", 40)

	in := inventory.TransferInput{CompanyID: companyID, ProductID: pid, FromLocationID: f.locA, ToLocationID: f.locB, Quantity: qty(15), Actor: actor}
	_, err := f.transfers.Transfer(ctx, in)
	require.NoError(t, err)
	in.FromLocationID, in.ToLocationID = f.locB, f.locA
	_, err = f.transfers.Transfer(ctx, in)
	require.NoError(t, err)

	assert.True(t, f.level(t, pid, f.locA).Quantity.Equal(qty(40)))
	assert.True(t, f.level(t, pid, f.locB).Quantity.IsZero())
	assert.Len(t, f.movements(t, repository.MovementQuery{ProductID: pid, Type: entity.MovementTypeTRANSFER}), 2)
	requireCounters(t, f.get(t, pid), 40, 0)
}

func TestTransfer_Errores(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pid := f.product(t, "Lentejas", 30)

	_, err := f.transfers.Transfer(ctx, inventory.TransferInput{CompanyID: companyID, ProductID: pid, FromLocationID: f.locA, ToLocationID: f.locA, Quantity: qty(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidLocation)

	_, err = f.transfers.Transfer(ctx, inventory.TransferInput{CompanyID: companyID, ProductID: pid, FromLocationID: f.locA, ToLocationID: "no-existe", Quantity: qty(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidLocation)

	// Lo reservado en A no se puede trasladar.
	_, err = f.sales.Reserve(ctx, inventory.ReserveInput{CompanyID: companyID, ProductID: pid, Quantity: qty(25), Actor: actor})
	require.NoError(t, err)
	_, err = f.transfers.Transfer(ctx, inventory.TransferInput{CompanyID: companyID, ProductID: pid, FromLocationID: f.locA, ToLocationID: f.locB, Quantity: qty(6)})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, f.locA, insufficient.LocationID)

	assert.Empty(t, f.movements(t, repository.MovementQuery{ProductID: pid, Type: entity.MovementTypeTRANSFER}))
	assert.True(t, f.level(t, pid, f.locA).Quantity.Equal(qty(30)))
	assert.True(t, f.level(t, pid, f.locB).Quantity.IsZero())
}

// ── Auditorías ────────────────────────────────────────────────────────────────

func TestAudit_ConteoIgualNoGeneraMovimiento(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pid := f.product(t, "Panela", 12)

	res, err := f.audits.Reconcile(ctx, inventory.ReconcileInput{CompanyID: companyID, ProductID: pid, LocationID: f.locA, PhysicalCount: qty(12)})
	require.NoError(t, err)
	assert.Nil(t, res.Movement)
	assert.True(t, res.Delta.IsZero())
	assert.Empty(t, f.movements(t, repository.MovementQuery{ProductID: pid, Type: entity.MovementTypeADJUSTMENT}))
}

func TestAudit_FaltanteGeneraAjusteNegativo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pid := f.product(t, "Cacao", 100)

	res, err := f.audits.Reconcile(ctx, inventory.ReconcileInput{CompanyID: companyID, ProductID: pid, LocationID: f.locA, PhysicalCount: qty(95), Actor: actor})
	require.NoError(t, err)
	require.NotNil(t, res.Movement)
	m := res.Movement
	assert.Equal(t, entity.MovementTypeADJUSTMENT, m.Type)
	assert.True(t, m.Quantity.Equal(qty(-5)))
	assert.True(t, m.IsAudit)
	assert.True(t, m.IsDeficit())
	require.NotNil(t, m.SystemCountBefore)
	require.NotNil(t, m.PhysicalCount)
	assert.True(t, m.SystemCountBefore.Equal(qty(100)))
	assert.True(t, m.PhysicalCount.Equal(qty(95)))
	assert.Equal(t, "Auditoría de inventario", m.Reason)

	deficits := f.movements(t, repository.MovementQuery{OnlyDeficit: true})
	require.Len(t, deficits, 1)
	assert.Equal(t, m.ID, deficits[0].ID)
}

func TestAudit_Errores(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pid := f.product(t, "Maíz", 20)

	_, err := f.audits.Reconcile(ctx, inventory.ReconcileInput{CompanyID: companyID, ProductID: pid, PhysicalCount: qty(-1)})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = f.sales.Reserve(ctx, inventory.ReserveInput{CompanyID: companyID, ProductID: pid, Quantity: qty(15), Actor: actor})
	require.NoError(t, err)
	_, err = f.audits.Reconcile(ctx, inventory.ReconcileInput{CompanyID: companyID, ProductID: pid, LocationID: f.locA, PhysicalCount: qty(10)})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock, "un conteo por debajo de lo reservado se rechaza")
	requireCounters(t, f.get(t, pid), 20, 15)
}

func TestLedger_RechazaMasDecimalesDeLosQueSeGuardan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pid := f.product(t, "Sal marina", 10)
	tiny := decimal.RequireFromString("0.00004")

	_, err := f.ledger.ApplyMovement(ctx, entity.StockMovement{
		CompanyID: companyID, Type: entity.MovementTypeIN, ProductID: pid, Quantity: tiny, ToLocationID: f.locA,
	}, actor)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.sales.Reserve(ctx, inventory.ReserveInput{CompanyID: companyID, ProductID: pid, Quantity: tiny, Actor: actor})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.audits.Reconcile(ctx, inventory.ReconcileInput{
		CompanyID: companyID, ProductID: pid, LocationID: f.locA, PhysicalCount: decimal.RequireFromString("9.99999"),
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "physical_count", verr.Field)

	requireCounters(t, f.get(t, pid), 10, 0)
	assert.Len(t, f.movements(t, repository.MovementQuery{ProductID: pid}), 1, "solo el stock inicial")

	st, err := f.ledger.ApplyMovement(ctx, entity.StockMovement{
		CompanyID: companyID, Type: entity.MovementTypeIN, ProductID: pid, Quantity: decimal.RequireFromString("0.0001"), ToLocationID: f.locA,
	}, actor)
	require.NoError(t, err)
	assert.True(t, st.Product.Stock.Equal(decimal.RequireFromString("10.0001")))
}

// ── Movimientos directos ──────────────────────────────────────────────────────

func TestApplyMovement_SalidaSinStockNoDejaRastro(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pid := f.product(t, "Avena", 5)

	_, err := f.ledger.ApplyMovement(ctx, entity.StockMovement{
		CompanyID: companyID, Type: entity.MovementTypeOUT, ProductID: pid, Quantity: qty(6), FromLocationID: f.locA,
	}, actor)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Len(t, f.movements(t, repository.MovementQuery{ProductID: pid}), 1)
	requireCounters(t, f.get(t, pid), 5, 0)

	_, err = f.ledger.ApplyMovement(ctx, entity.StockMovement{
		CompanyID: companyID, Type: entity.MovementTypeIN, ProductID: pid, Quantity: qty(0), ToLocationID: f.locA,
	}, actor)
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = f.ledger.ApplyMovement(ctx, entity.StockMovement{
		CompanyID: companyID, Type: entity.MovementTypeIN, ProductID: "no-existe", Quantity: qty(1), ToLocationID: f.locA,
	}, actor)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedger_ReplayCoincideConContadores(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pid := f.product(t, "Chocolate", 0)

	steps := []entity.StockMovement{
		{Type: entity.MovementTypeIN, Quantity: qty(40), ToLocationID: f.locA},
		{Type: entity.MovementTypeIN, Quantity: qty(10), ToLocationID: f.locB},
		{Type: entity.MovementTypeTRANSFER, Quantity: qty(15), FromLocationID: f.locA, ToLocationID: f.locB},
		{Type: entity.MovementTypeOUT, Quantity: qty(8), FromLocationID: f.locB},
		{Type: entity.MovementTypeADJUSTMENT, Quantity: qty(-2), ToLocationID: f.locA},
		{Type: entity.MovementTypeADJUSTMENT, Quantity: qty(3), FromLocationID: f.locB},
	}
	for _, m := range steps {
		m.CompanyID, m.ProductID = companyID, pid
		_, err := f.ledger.ApplyMovement(ctx, m, actor)
		require.NoError(t, err)
	}

	requireCounters(t, f.get(t, pid), 43, 0)
	assert.True(t, f.level(t, pid, f.locA).Quantity.Equal(qty(23)))
	assert.True(t, f.level(t, pid, f.locB).Quantity.Equal(qty(20)))
	drifts, err := f.ledger.Verify(ctx, companyID, pid)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

func TestLedger_NotificaDespuesDelCommit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t)
	pid := f.product(t, "Té verde", 0)

	events, err := f.notifier.Subscribe(ctx)
	require.NoError(t, err)

	_, err = f.ledger.ApplyMovement(ctx, entity.StockMovement{
		CompanyID: companyID, Type: entity.MovementTypeOUT, ProductID: pid, Quantity: qty(1), FromLocationID: f.locA,
	}, actor)
	require.Error(t, err)

	_, err = f.ledger.ApplyMovement(ctx, entity.StockMovement{
		CompanyID: companyID, Type: entity.MovementTypeIN, ProductID: pid, Quantity: qty(3), ToLocationID: f.locA,
	}, actor)
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, companyID, ev.CompanyID)
		assert.Equal(t, []string{pid}, ev.ProductIDs)
	case <-time.After(time.Second):
		t.Fatal("no llegó la notificación")
	}
	select {
	case ev := <-events:
		t.Fatalf("notificación inesperada: %+v", ev)
	default:
	}
}
