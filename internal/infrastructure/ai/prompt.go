package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
)

const maxRecommendations = 5

// insightSystemPrompt rol y formato de salida comunes a los tres proveedores.
const insightSystemPrompt = `Eres un analista de inventarios para pequeñas empresas.
Recibirás un resumen de existencias (stock, reservas, productos con stock bajo, más vendidos e inmovilizados).
Devuelve ÚNICAMENTE un objeto JSON (sin markdown) con esta estructura exacta:
{
  "summary": "<diagnóstico del inventario en español, máximo 400 caracteres>",
  "recommendations": ["<acción concreta en español>", "..."]
}

Reglas:
- Máximo 5 recomendaciones, ordenadas por urgencia.
- Cita los productos por nombre y las cantidades tal como aparecen en el resumen.
- No inventes productos ni cifras que no estén en el resumen.`

// insightPayload JSON que esperamos del modelo. También define el esquema estricto de OpenAI.
type insightPayload struct {
	Summary         string   `json:"summary" jsonschema:"description=Diagnóstico del inventario"`
	Recommendations []string `json:"recommendations" jsonschema:"description=Acciones ordenadas por urgencia"`
}

// buildUserPrompt resume el dashboard en texto plano para el modelo.
func buildUserPrompt(s *dto.DashboardSummaryDTO) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Periodo: %s\n", s.DateLabel)
	fmt.Fprintf(&b, "Productos: %d | Stock total: %s | Reservado: %s | Disponible: %s | Ventas pendientes: %d\n",
		s.ProductCount, s.TotalStock, s.TotalReserved, s.TotalAvailable, s.PendingSales)

	if len(s.LowStock) > 0 {
		b.WriteString("\nStock bajo (disponible / umbral):\n")
		for _, p := range s.LowStock {
			fmt.Fprintf(&b, "- %s: %s / %s\n", p.Name, p.Available, p.Threshold)
		}
	}
	if len(s.TopProducts) > 0 {
		b.WriteString("\nMás vendidos del mes:\n")
		for _, p := range s.TopProducts {
			fmt.Fprintf(&b, "- %s: %s unidades\n", p.ProductName, p.QuantitySold)
		}
	}
	if len(s.DeadStock) > 0 {
		fmt.Fprintf(&b, "\nSin salidas en %d días:\n", s.DeadStockDays)
		for _, p := range s.DeadStock {
			fmt.Fprintf(&b, "- %s: %s en stock\n", p.Name, p.Stock)
		}
	}
	return b.String()
}

// jsonBlockRe extrae el primer objeto JSON del texto aunque el modelo lo envuelva en markdown.
var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

// extractJSON extrae el primer objeto JSON de un texto libre:
// primero quita bloques ```json … ```, luego captura el primer { … }.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```"); idx != -1 {
		after := text[idx+3:]
		if nl := strings.Index(after, "\n"); nl != -1 {
			after = after[nl+1:]
		}
		if end := strings.LastIndex(after, "```"); end != -1 {
			after = after[:end]
		}
		text = strings.TrimSpace(after)
	}
	if strings.HasPrefix(text, "{") {
		return text
	}
	return strings.TrimSpace(jsonBlockRe.FindString(text))
}

// parseInsight convierte la respuesta del modelo en InsightDTO.
func parseInsight(provider, raw string) (*dto.InsightDTO, error) {
	clean := extractJSON(raw)
	if clean == "" {
		return nil, fmt.Errorf("AI: no se encontró JSON válido en la respuesta del modelo (respuesta: %s)", raw)
	}
	var p insightPayload
	if err := json.Unmarshal([]byte(clean), &p); err != nil {
		return nil, fmt.Errorf("AI: parsear JSON de insights: %w (JSON extraído: %s)", err, clean)
	}
	p.Summary = strings.TrimSpace(p.Summary)
	if p.Summary == "" {
		return nil, fmt.Errorf("AI: %s devolvió un resumen vacío", provider)
	}

	recs := make([]string, 0, len(p.Recommendations))
	for _, r := range p.Recommendations {
		if r = strings.TrimSpace(r); r != "" {
			recs = append(recs, r)
		}
		if len(recs) == maxRecommendations {
			break
		}
	}
	return &dto.InsightDTO{Provider: provider, Summary: p.Summary, Recommendations: recs}, nil
}
