package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/domain"
)

// SummarySource origen del resumen de existencias (el dashboard).
type SummarySource interface {
	GetSummary(ctx context.Context, companyID string) (*dto.DashboardSummaryDTO, error)
}

// InsightUseCase orquesta la generación de recomendaciones de inventario por IA.
// Aplica un timeout de 10 segundos en cada llamada al LLM para evitar
// que las latencias externas bloqueen los goroutines del servidor.
type InsightUseCase struct {
	summaries SummarySource
	llm       ports.InsightGenerator
	timeout   time.Duration
}

// NewInsightUseCase construye el caso de uso inyectando el puerto InsightGenerator.
func NewInsightUseCase(summaries SummarySource, llm ports.InsightGenerator) *InsightUseCase {
	return &InsightUseCase{summaries: summaries, llm: llm, timeout: 10 * time.Second}
}

// Generate arma el resumen de la empresa y lo delega al proveedor de IA.
// Nunca escribe en el ledger.
func (uc *InsightUseCase) Generate(ctx context.Context, companyID string) (*dto.InsightDTO, error) {
	if uc.llm == nil {
		return nil, fmt.Errorf("insights IA: proveedor no configurado: %w", domain.ErrUnavailable)
	}
	summary, err := uc.summaries.GetSummary(ctx, companyID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	result, err := uc.llm.GenerateInsights(ctx, summary)
	if err != nil {
		return nil, fmt.Errorf("insights IA: %w", err)
	}
	return result, nil
}
