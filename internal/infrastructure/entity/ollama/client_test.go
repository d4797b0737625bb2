package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BradRyan1/Receipt-Processor/internal/core/domain"
)

func TestAnalyzeParsesEntitiesAndKeyPhrases(t *testing.T) {
	var capturedPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		capturedPrompt, _ = payload["prompt"].(string)
		_, _ = w.Write([]byte(`{"response":"Sure: {\"entities\":[{\"label\":\"organization\",\"phrase\":\" Shell \",\"confidence\":0.92}],\"key_phrases\":[\"fuel purchase\"]}"}`))
	}))
	defer server.Close()

	analyzer := NewAnalyzer(New(server.URL, "llama3"), nil)
	analysis, err := analyzer.Analyze(context.Background(), "Shell Station Total $30.00")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if !strings.Contains(capturedPrompt, "Shell Station Total $30.00") {
		t.Fatalf("prompt should carry the receipt text, got %s", capturedPrompt)
	}
	if len(analysis.Entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(analysis.Entities))
	}
	entity := analysis.Entities[0]
	if entity.Label != "ORGANIZATION" || entity.Phrase != "Shell" || entity.Confidence != 0.92 {
		t.Fatalf("unexpected entity: %+v", entity)
	}
	if len(analysis.KeyPhrases) != 1 || analysis.KeyPhrases[0] != "fuel purchase" {
		t.Fatalf("unexpected key phrases: %v", analysis.KeyPhrases)
	}
}

func TestAnalyzeIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	analyzer := NewAnalyzer(New(server.URL, "llama3"), nil)
	_, err := analyzer.Analyze(context.Background(), "text")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrClassificationFailure) {
		t.Fatalf("expected ErrClassificationFailure, got %v", err)
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}

	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected HTTPStatusError with 502, got %v", err)
	}
}

func TestAnalyzeRejectsUnparseableModelOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"no json here"}`))
	}))
	defer server.Close()

	analyzer := NewAnalyzer(New(server.URL, "llama3"), nil)
	_, err := analyzer.Analyze(context.Background(), "text")
	if !domain.IsKind(err, domain.ErrClassificationFailure) {
		t.Fatalf("expected ErrClassificationFailure, got %v", err)
	}
}
