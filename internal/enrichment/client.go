package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"crm_backend/platform/config"
)

// Client calls the Gemini API in JSON mode to enrich a company profile.
type Client struct {
	genai *genai.Client
	model string
}

// NewClient builds the Gemini client. Returns nil when no API key is
// configured; callers treat a nil client as "provider disabled".
func NewClient(ctx context.Context, cfg config.EnrichmentConfig) (*Client, error) {
	if !cfg.IsEnrichmentEnabled() {
		return nil, nil
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{genai: gc, model: cfg.GetGeminiModel()}, nil
}

const promptTemplate = `You are a B2B sales intelligence assistant. Research the company below and
respond with a single JSON object, no markdown, matching this schema:
{
  "company": {
    "domain": string,
    "industry": string,
    "employees": number,
    "annualRevenue": number,
    "foundedYear": number,
    "description": string,
    "technologies": [string],
    "linkedinUrl": string
  },
  "insights": {
    "leadScore": number (0-100),
    "buyingStage": "awareness" | "consideration" | "decision",
    "signals": [string],
    "recommendedActions": [string]
  },
  "confidence": number (0-100)
}
Use 0 or "" for fields you cannot determine. Never invent a domain.

Company name: %s
Domain: %s
Website: %s`

// Enrich asks the model for a company profile. The response is expected to
// be raw JSON; stray markdown fences are stripped before decoding.
func (c *Client) Enrich(ctx context.Context, req Request) (Data, error) {
	prompt := fmt.Sprintf(promptTemplate, req.Name, req.Domain, req.Website)

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.2),
	})
	if err != nil {
		return Data{}, fmt.Errorf("gemini enrichment call: %w", err)
	}

	text := stripJSONFences(resp.Text())
	if text == "" {
		return Data{}, fmt.Errorf("gemini returned empty enrichment response")
	}

	var data Data
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return Data{}, fmt.Errorf("decode enrichment response: %w", err)
	}
	return data, nil
}

// stripJSONFences removes a wrapping markdown code fence if the model added
// one despite the JSON response mode.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}
