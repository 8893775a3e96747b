package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/ports"
)

var _ ports.InsightGenerator = (*OpenAIService)(nil)

// OpenAIService adaptador de InsightGenerator sobre la Responses API con salida
// estructurada: el esquema se refleja de insightPayload y el modelo queda obligado a cumplirlo.
type OpenAIService struct {
	client *openai.Client
	apiKey string
	model  string
	schema map[string]any
}

// NewOpenAIService construye el adaptador. model vacío usa gpt-4o.
func NewOpenAIService(apiKey, model string) (*OpenAIService, error) {
	if model == "" {
		model = string(shared.ChatModelGPT4o)
	}
	schema, err := insightSchema()
	if err != nil {
		return nil, err
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIService{client: &client, apiKey: apiKey, model: model, schema: schema}, nil
}

// insightSchema esquema JSON estricto (sin propiedades adicionales ni referencias).
func insightSchema() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	raw, err := json.Marshal(reflector.Reflect(insightPayload{}))
	if err != nil {
		return nil, fmt.Errorf("AI: serializar esquema: %w", err)
	}
	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("AI: esquema a mapa: %w", err)
	}
	return schema, nil
}

func (s *OpenAIService) GenerateInsights(ctx context.Context, summary *dto.DashboardSummaryDTO) (*dto.InsightDTO, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("AI: OPENAI_API_KEY no configurado")
	}

	params := responses.ResponseNewParams{
		Model:        shared.ResponsesModel(s.model),
		Instructions: param.NewOpt(insightSystemPrompt),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(buildUserPrompt(summary)),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "inventory_insights",
					Strict:      param.NewOpt(true),
					Schema:      s.schema,
					Description: param.NewOpt("Diagnóstico y recomendaciones de inventario"),
				},
			},
		},
	}

	resp, err := s.client.Responses.New(ctx, params)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("AI: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("AI: OpenAI: %w", err)
	}
	content := resp.OutputText()
	if content == "" {
		return nil, fmt.Errorf("AI: OpenAI devolvió respuesta vacía")
	}
	return parseInsight("openai", content)
}
