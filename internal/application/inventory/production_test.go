package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

func TestProduction_ProcesarConsumeIngresaYTraslada(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cacao := f.product(t, "Cacao en grano", 10)
	barra := f.product(t, "Barra de chocolate", 0)

	pr, err := f.prod.Register(ctx, inventory.RegisterProductionInput{
		CompanyID: companyID,
		ProductID: barra,
		Quantity:  qty(5),
		Materials: []entity.MaterialUsage{{ProductID: cacao, Quantity: qty(3)}},
		Actor:     actor,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.ProductionStatusPending, pr.Status)
	assert.Equal(t, f.locA, pr.LocationID)
	requireCounters(t, f.get(t, barra), 0, 0)

	done, err := f.prod.Process(ctx, companyID, pr.ID, f.locB, actor)
	require.NoError(t, err)
	assert.Equal(t, entity.ProductionStatusTransferred, done.Status)
	assert.NotEmpty(t, done.MovementID)

	requireCounters(t, f.get(t, cacao), 7, 0)
	requireCounters(t, f.get(t, barra), 5, 0)
	assert.True(t, f.level(t, barra, f.locA).Quantity.IsZero())
	assert.True(t, f.level(t, barra, f.locB).Quantity.Equal(qty(5)))

	var linked int
	for _, m := range f.movements(t, repository.MovementQuery{}) {
		if m.Reference == pr.ID {
			linked++
		}
	}
	assert.Equal(t, 3, linked, "OUT de materia prima, IN y TRANSFER")

	again, err := f.prod.Process(ctx, companyID, pr.ID, f.locB, actor)
	require.NoError(t, err)
	assert.Equal(t, done.MovementID, again.MovementID)
	requireCounters(t, f.get(t, barra), 5, 0)
}

func TestProduction_MateriaPrimaInsuficienteRevierteTodo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	leche := f.product(t, "Leche", 2)
	queso := f.product(t, "Queso", 0)

	pr, err := f.prod.Register(ctx, inventory.RegisterProductionInput{
		CompanyID: companyID, ProductID: queso, Quantity: qty(1),
		Materials: []entity.MaterialUsage{{ProductID: leche, Quantity: qty(4)}},
	})
	require.NoError(t, err)

	_, err = f.prod.Process(ctx, companyID, pr.ID, "", actor)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	requireCounters(t, f.get(t, leche), 2, 0)
	requireCounters(t, f.get(t, queso), 0, 0)

	stored, err := f.prod.Get(ctx, companyID, pr.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ProductionStatusPending, stored.Status)
}

func TestProduction_RegistroInvalido(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pid := f.product(t, "Yogur", 0)

	_, err := f.prod.Register(ctx, inventory.RegisterProductionInput{CompanyID: companyID, ProductID: pid, Quantity: qty(0)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.prod.Register(ctx, inventory.RegisterProductionInput{
		CompanyID: companyID, ProductID: pid, Quantity: qty(1),
		Materials: []entity.MaterialUsage{{ProductID: pid, Quantity: qty(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.prod.Register(ctx, inventory.RegisterProductionInput{
		CompanyID: companyID, ProductID: pid, Quantity: qty(1),
		Materials: []entity.MaterialUsage{{ProductID: "no-existe", Quantity: qty(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
