package ports

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
)

// SummaryCache caché de corta duración del resumen del dashboard.
// Get devuelve (nil, nil) si no hay entrada vigente.
type SummaryCache interface {
	Get(ctx context.Context, companyID string) (*dto.DashboardSummaryDTO, error)
	Set(ctx context.Context, companyID string, summary *dto.DashboardSummaryDTO) error
	Invalidate(ctx context.Context, companyID string) error
}
