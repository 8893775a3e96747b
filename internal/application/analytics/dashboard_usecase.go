// Package analytics contiene los agregados de solo lectura sobre el ledger que alimentan
// el dashboard, los insights de IA y los reportes.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

const (
	dashboardTopProducts = 5  // productos en el widget de más vendidos
	DeadStockDays        = 30 // días sin salidas para considerar stock inmovilizado
)

// DashboardUseCase genera el resumen de existencias de la empresa.
//
// Fuentes: la proyección de stock (contadores) y AnalyticsRepository (ventas y salidas).
// El resultado se guarda en SummaryCache si está configurada.
type DashboardUseCase struct {
	projection    *inventory.StockProjection
	analyticsRepo repository.AnalyticsRepository
	cache         ports.SummaryCache // opcional
	log           zerolog.Logger
	now           func() time.Time
}

// NewDashboardUseCase construye el caso de uso. cache puede ser nil.
func NewDashboardUseCase(
	projection *inventory.StockProjection,
	analyticsRepo repository.AnalyticsRepository,
	cache ports.SummaryCache,
	log zerolog.Logger,
) *DashboardUseCase {
	return &DashboardUseCase{
		projection:    projection,
		analyticsRepo: analyticsRepo,
		cache:         cache,
		log:           log,
		now:           time.Now,
	}
}

// GetSummary construye el DashboardSummaryDTO para la empresa indicada.
//
// Tres consultas en paralelo además de la foto de stock:
//  1. TopSoldProducts(mes)  → TopProducts
//  2. LastOutByProduct      → DeadStock
//  3. CountPendingSales     → PendingSales
func (uc *DashboardUseCase) GetSummary(ctx context.Context, companyID string) (*dto.DashboardSummaryDTO, error) {
	if uc.cache != nil {
		cached, err := uc.cache.Get(ctx, companyID)
		if err != nil {
			uc.log.Warn().Err(err).Str("company_id", companyID).Msg("leer caché del dashboard")
		} else if cached != nil {
			return cached, nil
		}
	}

	now := uc.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	// ── Goroutines para paralelizar las consultas DB ──────────────────────────
	type topResult struct {
		items []repository.ProductQuantity
		err   error
	}
	type lastOutResult struct {
		byProduct map[string]time.Time
		err       error
	}
	type pendingResult struct {
		n   int
		err error
	}

	topCh := make(chan topResult, 1)
	lastOutCh := make(chan lastOutResult, 1)
	pendingCh := make(chan pendingResult, 1)

	go func() {
		items, err := uc.analyticsRepo.TopSoldProducts(ctx, companyID, monthStart, dashboardTopProducts)
		topCh <- topResult{items, err}
	}()
	go func() {
		m, err := uc.analyticsRepo.LastOutByProduct(ctx, companyID)
		lastOutCh <- lastOutResult{m, err}
	}()
	go func() {
		n, err := uc.analyticsRepo.CountPendingSales(ctx, companyID)
		pendingCh <- pendingResult{n, err}
	}()

	snap, snapErr := uc.projection.Snapshot(ctx, companyID)
	top := <-topCh
	lastOut := <-lastOutCh
	pending := <-pendingCh

	if snapErr != nil {
		return nil, fmt.Errorf("dashboard: %w", snapErr)
	}
	if top.err != nil {
		return nil, fmt.Errorf("dashboard: más vendidos: %w", top.err)
	}
	if lastOut.err != nil {
		return nil, fmt.Errorf("dashboard: últimas salidas: %w", lastOut.err)
	}
	if pending.err != nil {
		return nil, fmt.Errorf("dashboard: ventas pendientes: %w", pending.err)
	}

	// ── Totales de la foto ────────────────────────────────────────────────────
	summary := &dto.DashboardSummaryDTO{
		ProductCount:   snap.Len(),
		TotalStock:     decimal.Zero,
		TotalReserved:  decimal.Zero,
		TotalAvailable: decimal.Zero,
		PendingSales:   pending.n,
		LowStock:       []dto.StockAlertDTO{},
		TopProducts:    make([]dto.TopProductDTO, 0, len(top.items)),
		DeadStock:      []dto.DeadStockDTO{},
		DeadStockDays:  DeadStockDays,
		DateLabel:      monthLabel(now),
	}
	deadline := now.AddDate(0, 0, -DeadStockDays)
	for _, p := range snap.List() {
		summary.TotalStock = summary.TotalStock.Add(p.Stock)
		summary.TotalReserved = summary.TotalReserved.Add(p.ReservedStock)
		summary.TotalAvailable = summary.TotalAvailable.Add(p.Available())

		if p.IsLowStock() {
			summary.LowStock = append(summary.LowStock, dto.StockAlertDTO{
				ProductID: p.ID,
				Name:      p.Name,
				Available: p.Available(),
				Threshold: p.LowStockThreshold,
			})
		}
		if !p.Stock.IsPositive() {
			continue
		}
		last, ok := lastOut.byProduct[p.ID]
		if ok && last.After(deadline) {
			continue
		}
		d := dto.DeadStockDTO{ProductID: p.ID, Name: p.Name, Stock: p.Stock}
		if ok {
			s := last.UTC().Format(time.RFC3339)
			d.LastOutAt = &s
		}
		summary.DeadStock = append(summary.DeadStock, d)
	}
	for _, t := range top.items {
		summary.TopProducts = append(summary.TopProducts, dto.TopProductDTO{
			ProductID:    t.ProductID,
			ProductName:  t.ProductName,
			QuantitySold: t.Quantity,
		})
	}
	sort.SliceStable(summary.LowStock, func(i, j int) bool {
		return summary.LowStock[i].Available.LessThan(summary.LowStock[j].Available)
	})

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, companyID, summary); err != nil {
			uc.log.Warn().Err(err).Str("company_id", companyID).Msg("guardar caché del dashboard")
		}
	}
	return summary, nil
}

// Invalidate descarta el resumen cacheado tras un cambio del ledger.
func (uc *DashboardUseCase) Invalidate(ctx context.Context, companyID string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx, companyID); err != nil {
		uc.log.Warn().Err(err).Str("company_id", companyID).Msg("invalidar caché del dashboard")
	}
}

// Run invalida la caché con cada notificación del ledger hasta que ctx termine.
func (uc *DashboardUseCase) Run(ctx context.Context, notifier ports.ChangeNotifier) error {
	if uc.cache == nil {
		return nil
	}
	events, err := notifier.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("dashboard: suscribir: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			uc.Invalidate(ctx, ev.CompanyID)
		}
	}
}

// monthLabel devuelve una etiqueta legible del mes, ej: "Febrero 2026".
func monthLabel(t time.Time) string {
	months := [...]string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	}
	return fmt.Sprintf("%s %d", months[t.Month()-1], t.Year())
}
