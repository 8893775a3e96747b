package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/usecase"
)

// AIHandler maneja los endpoints de recomendaciones de inventario asistidas por IA.
type AIHandler struct {
	uc *usecase.InsightUseCase
}

// NewAIHandler construye el handler.
func NewAIHandler(uc *usecase.InsightUseCase) *AIHandler {
	return &AIHandler{uc: uc}
}

// Insights godoc
// @Summary      Diagnóstico de inventario con IA
// @Description  Envía el resumen del dashboard al proveedor configurado (anthropic, gemini u openai).
// @Description  No escribe en el ledger. Timeout interno de 10 s.
// @Tags         ai
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.InsightDTO
// @Failure      408  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/ai/insights [post]
func (h *AIHandler) Insights(c *fiber.Ctx) error {
	result, err := h.uc.Generate(c.UserContext(), GetCompanyID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(result)
}
