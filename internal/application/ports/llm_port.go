package ports

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
)

// InsightGenerator puerto de salida hacia el proveedor de IA (Anthropic, Gemini, OpenAI).
// Recibe agregados de solo lectura y devuelve texto; nunca escribe en el ledger.
// El contexto debe llevar timeout.
type InsightGenerator interface {
	GenerateInsights(ctx context.Context, summary *dto.DashboardSummaryDTO) (*dto.InsightDTO, error)
}
