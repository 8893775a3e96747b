package inventory_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
)

func qty(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

// ──────────────────────────────────────────────────────────────────────────────
// Validate
// ──────────────────────────────────────────────────────────────────────────────

func TestValidate_ReglasPorTipo(t *testing.T) {
	cases := []struct {
		name    string
		m       entity.StockMovement
		wantErr error
	}{
		{"in valido", entity.StockMovement{Type: entity.MovementTypeIN, ProductID: "p", Quantity: qty(5), ToLocationID: "A"}, nil},
		{"in sin destino", entity.StockMovement{Type: entity.MovementTypeIN, ProductID: "p", Quantity: qty(5), FromLocationID: "A"}, domain.ErrInvalidInput},
		{"out sin origen", entity.StockMovement{Type: entity.MovementTypeOUT, ProductID: "p", Quantity: qty(5), ToLocationID: "A"}, domain.ErrInvalidInput},
		{"out negativo", entity.StockMovement{Type: entity.MovementTypeOUT, ProductID: "p", Quantity: qty(-5), FromLocationID: "A"}, domain.ErrInvalidInput},
		{"transfer sin destino", entity.StockMovement{Type: entity.MovementTypeTRANSFER, ProductID: "p", Quantity: qty(5), FromLocationID: "A"}, domain.ErrInvalidInput},
		{"transfer mismo origen y destino", entity.StockMovement{Type: entity.MovementTypeTRANSFER, ProductID: "p", Quantity: qty(5), FromLocationID: "A", ToLocationID: "A"}, domain.ErrInvalidLocation},
		{"ajuste sin ubicación", entity.StockMovement{Type: entity.MovementTypeADJUSTMENT, ProductID: "p", Quantity: qty(-2)}, domain.ErrInvalidInput},
		{"ajuste negativo con origen", entity.StockMovement{Type: entity.MovementTypeADJUSTMENT, ProductID: "p", Quantity: qty(-2), FromLocationID: "A"}, nil},
		{"cantidad cero", entity.StockMovement{Type: entity.MovementTypeIN, ProductID: "p", Quantity: decimal.Zero, ToLocationID: "A"}, domain.ErrInvalidInput},
		{"tipo desconocido", entity.StockMovement{Type: "SHRINK", ProductID: "p", Quantity: qty(1), ToLocationID: "A"}, domain.ErrInvalidInput},
		{"in con cuatro decimales", entity.StockMovement{Type: entity.MovementTypeIN, ProductID: "p", Quantity: decimal.RequireFromString("0.0001"), ToLocationID: "A"}, nil},
		{"in con cinco decimales", entity.StockMovement{Type: entity.MovementTypeIN, ProductID: "p", Quantity: decimal.RequireFromString("0.00004"), ToLocationID: "A"}, domain.ErrInvalidInput},
		{"ajuste con cinco decimales", entity.StockMovement{Type: entity.MovementTypeADJUSTMENT, ProductID: "p", Quantity: decimal.RequireFromString("-1.23456"), FromLocationID: "A"}, domain.ErrInvalidInput},
		{"auditoria en entrada", entity.StockMovement{Type: entity.MovementTypeIN, ProductID: "p", Quantity: qty(1), ToLocationID: "A", IsAudit: true}, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := inventory.Validate(&tc.m)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestValidate_ErrorTipado(t *testing.T) {
	err := inventory.Validate(&entity.StockMovement{Type: entity.MovementTypeOUT, ProductID: "p", Quantity: qty(1)})

	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "from_location_id", vErr.Field)
	assert.False(t, domain.IsRetryable(err), "la validación nunca se reintenta")
}

// ──────────────────────────────────────────────────────────────────────────────
// Tabla de efectos
// ──────────────────────────────────────────────────────────────────────────────

func TestCheckScale(t *testing.T) {
	assert.NoError(t, inventory.CheckScale("quantity", decimal.RequireFromString("12.5000")))
	assert.NoError(t, inventory.CheckScale("quantity", decimal.RequireFromString("1.50000")), "los ceros a la derecha no cuentan")
	err := inventory.CheckScale("physical_count", decimal.RequireFromString("3.14159"))
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "physical_count", vErr.Field)
}

func TestEffects_TransferSumaCero(t *testing.T) {
	m := &entity.StockMovement{Type: entity.MovementTypeTRANSFER, ProductID: "p", Quantity: qty(20), FromLocationID: "A", ToLocationID: "B"}

	effects := inventory.Effects(m)
	require.Len(t, effects, 2)
	assert.Equal(t, "A", effects[0].LocationID)
	assert.True(t, effects[0].Delta.Equal(qty(-20)))
	assert.Equal(t, "B", effects[1].LocationID)
	assert.True(t, effects[1].Delta.Equal(qty(20)))
	assert.True(t, inventory.NetEffect(m).IsZero())
}

func TestEffects_AjusteUsaOrigenSiNoHayDestino(t *testing.T) {
	m := &entity.StockMovement{Type: entity.MovementTypeADJUSTMENT, ProductID: "p", Quantity: qty(-5), FromLocationID: "A"}

	effects := inventory.Effects(m)
	require.Len(t, effects, 1)
	assert.Equal(t, "A", effects[0].LocationID)
	assert.True(t, inventory.NetEffect(m).Equal(qty(-5)))
}

func TestReplay_SumaEfectosDesdeCero(t *testing.T) {
	log := []*entity.StockMovement{
		{Type: entity.MovementTypeIN, ProductID: "p", Quantity: qty(100), ToLocationID: "A"},
		{Type: entity.MovementTypeOUT, ProductID: "p", Quantity: qty(30), FromLocationID: "A"},
		{Type: entity.MovementTypeTRANSFER, ProductID: "p", Quantity: qty(20), FromLocationID: "A", ToLocationID: "B"},
		{Type: entity.MovementTypeADJUSTMENT, ProductID: "p", Quantity: qty(-5), ToLocationID: "A"},
		{Type: entity.MovementTypeIN, ProductID: "q", Quantity: qty(7), ToLocationID: "B"},
	}

	totals := inventory.Replay(log)
	assert.True(t, totals["p"].Equal(qty(65)))
	assert.True(t, totals["q"].Equal(qty(7)))

	levels := inventory.ReplayLevels(log)
	assert.True(t, levels["p"]["A"].Equal(qty(45)))
	assert.True(t, levels["p"]["B"].Equal(qty(20)))
}

// ──────────────────────────────────────────────────────────────────────────────
// Invariantes de contadores
// ──────────────────────────────────────────────────────────────────────────────

func TestApplyToLevel_NoBajaDeLoReservado(t *testing.T) {
	level := &entity.StockLevel{ProductID: "p", LocationID: "A", Quantity: qty(10), Reserved: qty(4)}

	err := inventory.ApplyToLevel(level, qty(-7))

	var sErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &sErr))
	assert.True(t, sErr.Available.Equal(qty(6)))
	assert.True(t, level.Quantity.Equal(qty(10)), "un fallo no modifica el nivel")

	require.NoError(t, inventory.ApplyToLevel(level, qty(-6)))
	assert.True(t, level.Quantity.Equal(qty(4)))
}

func TestApplyToProduct_NoBajaDeCero(t *testing.T) {
	p := &entity.Product{ID: "p", Stock: qty(3)}

	assert.ErrorIs(t, inventory.ApplyToProduct(p, qty(-4)), domain.ErrInsufficientStock)
	assert.True(t, p.Stock.Equal(qty(3)))
}

func TestReserve_UsaElMenorDisponible(t *testing.T) {
	p := &entity.Product{ID: "p", Stock: qty(100)}
	level := &entity.StockLevel{ProductID: "p", LocationID: "A", Quantity: qty(40)}

	err := inventory.Reserve(p, level, qty(50))
	var aErr *domain.InsufficientAvailableStockError
	require.True(t, errors.As(err, &aErr))
	assert.True(t, aErr.Available.Equal(qty(40)))
	assert.True(t, p.ReservedStock.IsZero())

	require.NoError(t, inventory.Reserve(p, level, qty(30)))
	assert.True(t, p.ReservedStock.Equal(qty(30)))
	assert.True(t, level.Reserved.Equal(qty(30)))
	assert.True(t, p.Available().Equal(qty(70)))
}

func TestRelease_MasDeLoReservadoEsConflicto(t *testing.T) {
	p := &entity.Product{ID: "p", Stock: qty(10), ReservedStock: qty(2)}
	level := &entity.StockLevel{ProductID: "p", LocationID: "A", Quantity: qty(10), Reserved: qty(2)}

	assert.ErrorIs(t, inventory.Release(p, level, qty(3)), domain.ErrConflict)
	require.NoError(t, inventory.Release(p, level, qty(2)))
	assert.NoError(t, inventory.CheckInvariants(p))
	assert.True(t, p.ReservedStock.IsZero())
}
