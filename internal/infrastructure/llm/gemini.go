// Package llm implements the classification call against the Gemini
// generateContent API and the prompt template it is fed with.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"newswatch/internal/config"
	"newswatch/internal/domain"
	"newswatch/internal/ports"
)

// GeminiClient implements ports.Classifier against the Gemini REST API,
// requesting structured JSON output matching a fixed schema.
type GeminiClient struct {
	endpoint   string
	model      string
	apiKey     string
	keyword    string
	prompt     *PromptTemplate
	httpClient *http.Client
}

var _ ports.Classifier = (*GeminiClient)(nil)

// NewGeminiClient builds a client from configuration. The prompt template is
// constructed once by the caller and passed in; the client never re-reads
// prompt files.
func NewGeminiClient(cfg config.GeminiConfig, keyword string, prompt *PromptTemplate) *GeminiClient {
	return &GeminiClient{
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		keyword:    keyword,
		prompt:     prompt,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string          `json:"response_mime_type"`
	ResponseSchema   json.RawMessage `json:"response_schema"`
}

// labelSchema fixes the structured output: three scalar classification
// fields, relevance as an integer score.
var labelSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"sentiment": {"type": "string", "description": "ポジティブ、ニュートラル、ネガティブのいずれか"},
		"category": {"type": "string", "description": "企業、モデル、技術などの分類結果"},
		"relevance": {"type": "integer", "description": "キーワードとの関連度を0から100の整数"}
	},
	"required": ["sentiment", "category", "relevance"]
}`)

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Classify submits the rendered prompt and decodes the structured triple.
// HTTP 429 maps to the typed quota error so the caller aborts instead of
// retrying a doomed call.
func (c *GeminiClient) Classify(ctx context.Context, text string) (domain.Labels, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return domain.Labels{}, fmt.Errorf("gemini client misconfigured")
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: c.prompt.Render(c.keyword, text)}}}},
		GenerationConfig: generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   labelSchema,
		},
	})
	if err != nil {
		return domain.Labels{}, fmt.Errorf("marshal gemini payload: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.endpoint, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.Labels{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Labels{}, fmt.Errorf("call gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return domain.Labels{}, fmt.Errorf("gemini rate limited: %w", domain.ErrQuotaExhausted)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if strings.Contains(string(payload), "RESOURCE_EXHAUSTED") {
			return domain.Labels{}, fmt.Errorf("gemini quota: %w", domain.ErrQuotaExhausted)
		}
		return domain.Labels{}, fmt.Errorf("gemini error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Labels{}, fmt.Errorf("decode gemini response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return domain.Labels{}, fmt.Errorf("gemini returned no candidates")
	}

	return parseLabels(decoded.Candidates[0].Content.Parts[0].Text)
}

// parseLabels decodes the model's JSON text into the label triple.
// relevance arrives as an integer and is stored as its decimal string.
func parseLabels(text string) (domain.Labels, error) {
	var analysis struct {
		Sentiment string `json:"sentiment"`
		Category  string `json:"category"`
		Relevance int    `json:"relevance"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &analysis); err != nil {
		return domain.Labels{}, fmt.Errorf("decode labels: %w", err)
	}
	if analysis.Sentiment == "" || analysis.Category == "" {
		return domain.Labels{}, fmt.Errorf("gemini returned incomplete labels")
	}

	return domain.Labels{
		Sentiment: analysis.Sentiment,
		Category:  analysis.Category,
		Relevance: fmt.Sprintf("%d", analysis.Relevance),
	}, nil
}
