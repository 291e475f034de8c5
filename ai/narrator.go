package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/lonshanworld/retail-analytics/models"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.5-flash-lite"

// promptHistoryDays is how much recent history is quoted in the prompt.
const promptHistoryDays = 14

// Narrator writes qualitative commentary for a sales forecast.
type Narrator interface {
	Narrate(ctx context.Context, shopID string, forecast *models.SalesForecast, meta models.ForecastMetadata) (*models.ForecastNarrative, error)
}

// GeminiNarrator asks a Gemini model to explain a computed forecast. It
// never changes the numbers, only describes them.
type GeminiNarrator struct {
	client *genai.Client
	model  string
	now    func() time.Time
	logger *zap.Logger
}

func NewGeminiNarrator(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiNarrator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiNarrator{client: client, model: model, now: time.Now, logger: logger}, nil
}

func (g *GeminiNarrator) Narrate(ctx context.Context, shopID string, forecast *models.SalesForecast, meta models.ForecastMetadata) (*models.ForecastNarrative, error) {
	model := g.client.GenerativeModel(g.model)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(BuildForecastPrompt(shopID, forecast, meta, g.now())))
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}
	narrative, err := ParseNarrative(text)
	if err != nil {
		g.logger.Warn("[AI NARRATIVE] unparseable response", zap.String("shopId", shopID), zap.String("raw", text))
		return nil, err
	}
	return narrative, nil
}

func (g *GeminiNarrator) Close() error {
	return g.client.Close()
}

// BuildForecastPrompt describes a computed forecast and asks for commentary
// in a fixed JSON shape.
func BuildForecastPrompt(shopID string, forecast *models.SalesForecast, meta models.ForecastMetadata, today time.Time) string {
	var history strings.Builder
	recent := forecast.Historical
	if len(recent) > promptHistoryDays {
		recent = recent[len(recent)-promptHistoryDays:]
	}
	for _, p := range recent {
		fmt.Fprintf(&history, "On %s, revenue was %.2f from %d orders.\n", p.Date.Format(models.DateLayout), p.Revenue, p.Orders)
	}
	if history.Len() == 0 {
		history.WriteString("No sales data available.\n")
	}

	var predicted strings.Builder
	for _, p := range forecast.Forecast {
		fmt.Fprintf(&predicted, "%s: %.2f (range %.2f to %.2f), about %d orders.\n",
			p.Date, p.PredictedRevenue, p.ConfidenceLower, p.ConfidenceUpper, p.PredictedOrders)
	}

	jsonFormat := `{"summary":"string","positive_factors":["string",...],"negative_factors":["string",...]}`

	return fmt.Sprintf(`
        You are an expert retail data analyst. A statistical model has already produced the %d-day revenue forecast below. Explain it for a shop owner; do not change any number.

        **Analysis Context:**
        - Shop: %s
        - Today's Date: %s
        - Trend: %s
        - Backtest Accuracy: %.2f%%
        - Weekly Seasonality Detected: %t
        - Volatility: %s
        - Growth vs Last Week: %.1f%%
        - Average Daily Revenue: %.2f

        **Recent Sales (last %d days):**
        %s
        **Forecast:**
        %s
        **Required Output:**
        You must provide a single, minified JSON object with the following exact structure. Do not include any markdown formatting, backticks, or explanatory text before or after the JSON object.

        %s
    `, forecast.ForecastDays, shopID, today.Format(models.DateLayout), forecast.Trend, forecast.Accuracy,
		meta.SeasonalityDetected, meta.Volatility, meta.GrowthRate*100, forecast.AverageDailyRevenue,
		promptHistoryDays, history.String(), predicted.String(), jsonFormat)
}

// ParseNarrative extracts the narrative JSON object from model output.
func ParseNarrative(text string) (*models.ForecastNarrative, error) {
	jsonStr := extractJSON(text)
	if jsonStr == "" {
		return nil, errors.New("failed to parse AI response format")
	}

	var narrative models.ForecastNarrative
	if err := json.Unmarshal([]byte(jsonStr), &narrative); err != nil {
		return nil, fmt.Errorf("failed to parse AI narrative: %w", err)
	}
	if narrative.Summary == "" {
		return nil, errors.New("AI narrative has no summary")
	}
	if narrative.PositiveFactors == nil {
		narrative.PositiveFactors = []string{}
	}
	if narrative.NegativeFactors == nil {
		narrative.NegativeFactors = []string{}
	}
	return &narrative, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no content received from AI")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	if text.Len() == 0 {
		return "", errors.New("no text content received from AI")
	}
	return text.String(), nil
}

func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return raw[start : end+1]
}
