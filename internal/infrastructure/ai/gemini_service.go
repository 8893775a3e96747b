package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/ports"
)

var _ ports.InsightGenerator = (*GeminiService)(nil)

// GeminiService adaptador de InsightGenerator sobre el SDK de Google Gemini.
// ResponseMIMEType=application/json obliga al modelo a devolver JSON puro.
type GeminiService struct {
	apiKey string
	model  string
}

// NewGeminiService construye el adaptador. model suele ser "gemini-2.0-flash-001".
func NewGeminiService(apiKey, model string) *GeminiService {
	if model == "" {
		model = "gemini-2.0-flash-001"
	}
	return &GeminiService{apiKey: apiKey, model: model}
}

func (s *GeminiService) GenerateInsights(ctx context.Context, summary *dto.DashboardSummaryDTO) (*dto.InsightDTO, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("AI: GEMINI_API_KEY no configurado")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(s.apiKey))
	if err != nil {
		return nil, fmt.Errorf("AI: crear cliente Gemini: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(s.model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(insightSystemPrompt)}}
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.2)
	model.SetMaxOutputTokens(1024)

	resp, err := model.GenerateContent(ctx, genai.Text(buildUserPrompt(summary)))
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("AI: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("AI: Gemini: %w", err)
	}

	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text.WriteString(string(t))
			}
		}
		if text.Len() > 0 {
			break
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("AI: Gemini devolvió respuesta vacía")
	}
	return parseInsight("gemini", text.String())
}
