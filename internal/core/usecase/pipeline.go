package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/BradRyan1/Receipt-Processor/internal/core/classify"
	"github.com/BradRyan1/Receipt-Processor/internal/core/domain"
	"github.com/BradRyan1/Receipt-Processor/internal/core/extract"
	"github.com/BradRyan1/Receipt-Processor/internal/core/ports"
)

// snippetMaxRunes bounds the stored text excerpt shown in reports and the API.
const snippetMaxRunes = 200

// evidenceLabels are the entity kinds that count as classification
// evidence. Everything else the analyzer returns (dates, quantities,
// locations) would only echo what the extractors already handle.
var evidenceLabels = []string{"ORGANIZATION", "COMMERCIAL_ITEM"}

// Pipeline turns raw receipt text into a category, a date, and an amount.
// Extraction is pure and deterministic; the optional entity analyzer is the
// only I/O, and it can only ever add evidence. When it fails, the receipt
// is classified on keywords alone.
type Pipeline struct {
	classifier          *classify.Classifier
	analyzer            ports.EntityAnalyzer
	minEntityConfidence float64
}

// NewPipeline builds the evaluation pipeline. A nil analyzer disables
// entity evidence entirely.
func NewPipeline(classifier *classify.Classifier, analyzer ports.EntityAnalyzer, minEntityConfidence float64) *Pipeline {
	if classifier == nil {
		classifier = classify.NewClassifier(nil)
	}
	return &Pipeline{
		classifier:          classifier,
		analyzer:            analyzer,
		minEntityConfidence: minEntityConfidence,
	}
}

// Evaluate runs extraction and classification over raw text lines. It
// returns the extraction outcome plus the normalized full text the
// decision was based on.
func (p *Pipeline) Evaluate(ctx context.Context, lines []string) (domain.Extraction, string) {
	normalized := extract.Normalize(lines)
	text := extract.JoinLines(normalized)

	var extraction domain.Extraction
	if date, ok := extract.Date(text); ok {
		extraction.Date = &date
	}
	if amount, ok := extract.Amount(normalized); ok {
		extraction.Amount = &amount
	}
	extraction.Category = p.classifier.Classify(text, p.entityEvidence(ctx, text)...)

	return extraction, text
}

// entityEvidence asks the analyzer for extra classification signal. Any
// failure is logged and swallowed so classification never depends on the
// analyzer being up.
func (p *Pipeline) entityEvidence(ctx context.Context, text string) []string {
	if p.analyzer == nil || text == "" {
		return nil
	}

	analysis, err := p.analyzer.Analyze(ctx, text)
	if err != nil {
		slog.Warn("entity analysis failed, classifying on keywords only", "error", err)
		return nil
	}

	var evidence []string
	for _, entity := range analysis.Entities {
		if entity.Confidence < p.minEntityConfidence {
			continue
		}
		for _, label := range evidenceLabels {
			if strings.EqualFold(entity.Label, label) {
				evidence = append(evidence, entity.Phrase)
				break
			}
		}
	}
	evidence = append(evidence, analysis.KeyPhrases...)
	return evidence
}

// finalizeName turns an extraction into the receipt's proposed filename and
// terminal status. The registry call is what serializes collision
// numbering, so callers must invoke finalizeName in batch order.
func finalizeName(
	extraction domain.Extraction,
	ext string,
	registry *domain.CollisionRegistry,
	skipNoData bool,
) (string, domain.ReceiptStatus) {
	nothingExtracted := extraction.Date == nil &&
		extraction.Amount == nil &&
		extraction.Category == domain.CategoryOther
	if skipNoData && nothingExtracted {
		return "", domain.StatusSkippedNoData
	}

	base := domain.BaseName(extraction.Category, extraction.Date, extraction.Amount)
	name, collided := registry.Resolve(base, ext)
	if collided {
		return name, domain.StatusCollisionResolved
	}
	return name, domain.StatusRenamed
}
