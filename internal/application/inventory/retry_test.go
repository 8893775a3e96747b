package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
)

func TestRetry_ReintentaSoloConflictos(t *testing.T) {
	policy := inventory.RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond}

	calls := 0
	err := policy.Do(context.Background(), zerolog.Nop(), "test", func() error {
		calls++
		if calls < 3 {
			return &domain.ConcurrentModificationError{Entity: "product", ID: "p"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = policy.Do(context.Background(), zerolog.Nop(), "test", func() error {
		calls++
		return &domain.ConcurrentModificationError{Entity: "product", ID: "p"}
	})
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	assert.Equal(t, 3, calls, "se rinde tras MaxAttempts")

	calls = 0
	err = policy.Do(context.Background(), zerolog.Nop(), "test", func() error {
		calls++
		return domain.NewValidationError("quantity", "debe ser positiva")
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 1, calls, "los errores terminales no se reintentan")
}

func TestRetry_RespetaCancelacion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := inventory.RetryPolicy{MaxAttempts: 10, Backoff: 50 * time.Millisecond}

	calls := 0
	err := policy.Do(ctx, zerolog.Nop(), "test", func() error {
		calls++
		cancel()
		return &domain.ConcurrentModificationError{Entity: "product", ID: "p"}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

// conflictingRunner falla con conflicto las primeras n veces y luego delega.
type conflictingRunner struct {
	inner     inventory.TxRunner
	remaining int
	calls     int
}

func (r *conflictingRunner) Run(ctx context.Context, fn func(inventory.Repos) error) error {
	r.calls++
	if r.remaining > 0 {
		r.remaining--
		return &domain.ConcurrentModificationError{Entity: "product", ID: "x"}
	}
	return r.inner.Run(ctx, fn)
}

func TestLedger_AtomicallyReintentaLaUnidadCompleta(t *testing.T) {
	f := newFixture(t)
	pid := f.product(t, "Quinoa", 8)

	runner := &conflictingRunner{inner: f.store, remaining: 2}
	ledger := inventory.NewStockLedger(runner, nil, inventory.RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond}, zerolog.Nop())

	executions := 0
	err := ledger.Atomically(context.Background(), "test", func(ctx context.Context, u *inventory.Unit) error {
		executions++
		p, err := u.Product(ctx, companyID, pid)
		if err != nil {
			return err
		}
		return u.Reserve(ctx, p, f.locA, qty(2))
	})
	require.NoError(t, err)
	assert.Equal(t, 3, runner.calls)
	assert.Equal(t, 1, executions, "los intentos fallidos no llegan a ejecutar fn")
	requireCounters(t, f.get(t, pid), 8, 2)

	boom := errors.New("boom")
	err = ledger.Atomically(context.Background(), "test", func(context.Context, *inventory.Unit) error { return boom })
	assert.ErrorIs(t, err, boom)
}
