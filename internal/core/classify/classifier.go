package classify

import (
	"strings"

	"github.com/BradRyan1/Receipt-Processor/internal/core/domain"
)

// Classifier scores text against an ordered rule table. It holds its own
// lowercased copy of the rules, so a table handed in at construction can't
// be mutated underneath it.
type Classifier struct {
	rules []Rule
}

// NewClassifier builds a classifier from the given rules, falling back to
// the default table when none are supplied.
func NewClassifier(rules []Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	owned := make([]Rule, len(rules))
	for i, rule := range rules {
		triggers := make([]string, len(rule.Triggers))
		for j, trigger := range rule.Triggers {
			triggers[j] = strings.ToLower(strings.TrimSpace(trigger))
		}
		owned[i] = Rule{Category: rule.Category, Triggers: triggers}
	}
	return &Classifier{rules: owned}
}

// Classify picks the category whose triggers occur most often in the text.
// Extra strings are additional evidence (entity names, key phrases) that
// join the same haystack. Matching is case-insensitive substring search;
// ties keep the earlier-declared category, and a shutout means Other.
func (c *Classifier) Classify(text string, extra ...string) domain.Category {
	parts := make([]string, 0, 1+len(extra))
	if text != "" {
		parts = append(parts, text)
	}
	parts = append(parts, extra...)
	haystack := strings.ToLower(strings.Join(parts, " "))

	best := domain.CategoryOther
	bestScore := 0
	for _, rule := range c.rules {
		score := 0
		for _, trigger := range rule.Triggers {
			score += strings.Count(haystack, trigger)
		}
		if score > bestScore {
			best = rule.Category
			bestScore = score
		}
	}
	return best
}
