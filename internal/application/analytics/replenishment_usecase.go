package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// ReplenishmentUseCase genera la lista de reposición de la empresa.
// Combina la foto de stock con el volumen de ventas para priorizar los productos críticos.
type ReplenishmentUseCase struct {
	projection    *inventory.StockProjection
	analyticsRepo repository.AnalyticsRepository
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(projection *inventory.StockProjection, analyticsRepo repository.AnalyticsRepository) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{projection: projection, analyticsRepo: analyticsRepo}
}

// GenerateReplenishmentList devuelve los productos en stock bajo con la cantidad sugerida
// (1.5 veces el umbral menos el disponible) y una prioridad por unidades vendidas en 90 días.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context, companyID string) ([]dto.ReplenishmentSuggestionDTO, error) {
	snap, err := uc.projection.Snapshot(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("reposición: %w", err)
	}
	low := snap.LowStock()
	if len(low) == 0 {
		return []dto.ReplenishmentSuggestionDTO{}, nil
	}

	since := time.Now().AddDate(0, 0, -90)
	sold, err := uc.analyticsRepo.TopSoldProducts(ctx, companyID, since, 0)
	if err != nil {
		return nil, fmt.Errorf("reposición: ventas: %w", err)
	}
	soldByID := make(map[string]decimal.Decimal, len(sold))
	for _, s := range sold {
		soldByID[s.ProductID] = s.Quantity
	}

	factor := decimal.NewFromFloat(1.5)
	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0, len(low))
	for _, p := range low {
		ideal := p.LowStockThreshold.Mul(factor)
		qty := ideal.Sub(p.Available())
		if qty.IsNegative() {
			qty = decimal.Zero
		}
		suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
			ProductID:           p.ID,
			ProductName:         p.Name,
			Unit:                p.Unit,
			Available:           p.Available(),
			Threshold:           p.LowStockThreshold,
			IdealStock:          ideal,
			SuggestedOrderQty:   qty,
			UnitsSoldLast90Days: soldByID[p.ID],
		})
	}

	// Primero mayor volumen de ventas; desempate por mayor déficit bajo el umbral.
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if !a.UnitsSoldLast90Days.Equal(b.UnitsSoldLast90Days) {
			return a.UnitsSoldLast90Days.GreaterThan(b.UnitsSoldLast90Days)
		}
		return a.Threshold.Sub(a.Available).GreaterThan(b.Threshold.Sub(b.Available))
	})

	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}
