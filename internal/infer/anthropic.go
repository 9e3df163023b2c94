package infer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jmfigueroa/planilla/internal/common"
	"github.com/jmfigueroa/planilla/internal/model"
)

// anthropicProvider implements the Provider interface for the Anthropic API.
type anthropicProvider struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	targetYear  int
}

// newAnthropicProvider creates a new Anthropic API provider.
func newAnthropicProvider(cfg Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: anthropic API key is required", common.ErrConfiguration)
	}

	model := cfg.Model
	if model == "" {
		model = "claude-3-sonnet-20240229"
	}

	temperature := cfg.Temperature
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	targetYear := cfg.TargetYear
	if targetYear == 0 {
		targetYear = time.Now().Year()
	}

	return &anthropicProvider{
		apiKey:      cfg.APIKey,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		targetYear:  targetYear,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

const systemPrompt = "You are a spreadsheet structure analyzer for weekly construction payroll sheets. Respond only with the JSON object requested, no prose."

// instructions is the fixed instruction set sent with every sample. Day
// column headers must come back as ISO dates; headers without a year default
// to the target year.
func (p *anthropicProvider) instructions() string {
	return fmt.Sprintf(`Analyze the sample rows of a weekly payroll spreadsheet and respond with a single JSON object:
{
  "headerRowIndex": <0-based row index of the header row>,
  "dataStartRowIndex": <0-based row index where data rows begin>,
  "nameColumnIndex": <0-based column index holding person/company names>,
  "categoryColumnIndex": <0-based column index holding the role or concept, omit if absent>,
  "projectColumnIndices": [<0-based column indices whose headers name construction projects>],
  "dayColumnIndices": [{"index": <0-based column index>, "date": "YYYY-MM-DD"}]
}
Rules:
- Day columns are headed by weekday names or day numbers. Convert each header to an ISO date. When the header omits the year, use %d.
- Project columns carry monetary amounts and are headed by a project or client name.
- Respond with the JSON object only.`, p.targetYear)
}

// Infer sends the sample rows to Anthropic and decodes the structural
// mapping from its response.
func (p *anthropicProvider) Infer(ctx context.Context, sampleRows [][]string) (*model.StructuralMapping, error) {
	sampleJSON, err := json.Marshal(sampleRows)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sample rows: %w", err)
	}

	prompt := fmt.Sprintf("%s\n\nSample rows (JSON array of rows):\n%s", p.instructions(), sampleJSON)

	requestBody := map[string]any{
		"model":       p.model,
		"max_tokens":  p.maxTokens,
		"temperature": p.temperature,
		"system":      systemPrompt,
		"messages": []map[string]string{
			{
				"role":    "user",
				"content": prompt,
			},
		},
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.anthropic.com/v1/messages", strings.NewReader(string(jsonBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", common.ErrInference, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", common.ErrInference, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: anthropic API error (status %d): %s", common.ErrInference, resp.StatusCode, string(body))
	}

	var response anthropicResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", common.ErrInference, err)
	}

	if len(response.Content) == 0 {
		return nil, fmt.Errorf("%w: no content in response", common.ErrInference)
	}

	return decodeMapping(response.Content[0].Text)
}

// anthropicResponse represents the Anthropic API response structure.
type anthropicResponse struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Role       string `json:"role"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Content    []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}
