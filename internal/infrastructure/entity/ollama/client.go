// Package ollama asks a local model for named entities and key phrases in
// receipt text. The result is classification evidence only; a dead or
// confused model degrades the pipeline to keyword matching, never blocks it.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/BradRyan1/Receipt-Processor/internal/core/domain"
	"github.com/BradRyan1/Receipt-Processor/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func New(baseURL, model string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// Analyzer extracts entity evidence through the model. A nil executor runs
// calls without retries or a breaker.
type Analyzer struct {
	client   *Client
	executor *resilience.Executor
}

func NewAnalyzer(client *Client, executor *resilience.Executor) *Analyzer {
	return &Analyzer{client: client, executor: executor}
}

func (a *Analyzer) Analyze(ctx context.Context, text string) (domain.EntityAnalysis, error) {
	var raw string
	call := func(ctx context.Context) error {
		var err error
		raw, err = a.client.generateJSON(ctx, buildEntityPrompt(text))
		return err
	}

	var err error
	if a.executor != nil {
		err = a.executor.Execute(ctx, "ollama.analyze", call, classifyEntityError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return domain.EntityAnalysis{}, domain.WrapError(domain.ErrClassificationFailure, "analyze entities", err)
	}

	var payload struct {
		Entities []struct {
			Label      string  `json:"label"`
			Phrase     string  `json:"phrase"`
			Confidence float64 `json:"confidence"`
		} `json:"entities"`
		KeyPhrases []string `json:"key_phrases"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return domain.EntityAnalysis{}, domain.WrapError(domain.ErrClassificationFailure, "analyze entities",
			fmt.Errorf("parse entity json: %w", err))
	}

	analysis := domain.EntityAnalysis{KeyPhrases: payload.KeyPhrases}
	for _, ent := range payload.Entities {
		analysis.Entities = append(analysis.Entities, domain.Entity{
			Label:      strings.ToUpper(strings.TrimSpace(ent.Label)),
			Phrase:     strings.TrimSpace(ent.Phrase),
			Confidence: ent.Confidence,
		})
	}
	return analysis, nil
}

func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

// extractJSONObject cuts the first-to-last brace span out of model output
// that wraps its JSON in prose.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
