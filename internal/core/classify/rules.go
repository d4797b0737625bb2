// Package classify assigns receipts to spending categories by matching
// trigger keywords against extracted text. The rule table is ordered and
// immutable once loaded, so identical text always classifies identically.
package classify

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BradRyan1/Receipt-Processor/internal/core/domain"
)

// Rule binds one category to its trigger substrings. Declaration order is
// significant: earlier rules win score ties.
type Rule struct {
	Category domain.Category `yaml:"category"`
	Triggers []string        `yaml:"triggers"`
}

// DefaultRules returns the built-in rule table. Other carries no triggers
// because it is the fallback, not a scored category.
func DefaultRules() []Rule {
	return []Rule{
		{Category: domain.CategoryRestaurant, Triggers: []string{
			"restaurant", "cafe", "diner", "dining", "food", "meal", "grill", "pizza", "burger", "sushi",
		}},
		{Category: domain.CategoryParking, Triggers: []string{
			"parking", "garage", "valet", "meter", "lot",
		}},
		{Category: domain.CategoryGas, Triggers: []string{
			"gas", "fuel", "petrol", "station", "shell", "exxon", "bp", "chevron",
		}},
		{Category: domain.CategoryGrocery, Triggers: []string{
			"grocery", "supermarket", "market", "food", "walmart", "target", "kroger", "safeway",
		}},
		{Category: domain.CategoryRetail, Triggers: []string{
			"store", "shop", "retail", "clothing", "electronics", "amazon", "best buy",
		}},
		{Category: domain.CategoryTransportation, Triggers: []string{
			"uber", "lyft", "taxi", "transport", "bus", "train", "subway",
		}},
		{Category: domain.CategoryEntertainment, Triggers: []string{
			"movie", "theater", "cinema", "concert", "show", "ticket", "amusement",
		}},
		{Category: domain.CategoryHealthcare, Triggers: []string{
			"pharmacy", "drug", "medical", "doctor", "hospital", "clinic", "cvs", "walgreens",
		}},
		{Category: domain.CategoryUtilities, Triggers: []string{
			"electric", "water", "gas", "internet", "phone", "utility", "bill",
		}},
	}
}

// LoadRules reads a rule table from YAML. The file replaces the default
// table wholesale, so operators tune trigger vocabularies without
// rebuilding. Categories outside the fixed set are rejected; so is Other,
// which must stay the trigger-free fallback.
func LoadRules(r io.Reader) ([]Rule, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	if len(doc.Rules) == 0 {
		return nil, fmt.Errorf("rules file declares no rules")
	}

	seen := make(map[domain.Category]bool, len(doc.Rules))
	for i, rule := range doc.Rules {
		if !domain.IsValidCategory(rule.Category) {
			return nil, fmt.Errorf("rule %d: unknown category %q", i, rule.Category)
		}
		if rule.Category == domain.CategoryOther {
			return nil, fmt.Errorf("rule %d: category Other is the fallback and carries no triggers", i)
		}
		if seen[rule.Category] {
			return nil, fmt.Errorf("rule %d: duplicate category %q", i, rule.Category)
		}
		seen[rule.Category] = true
		if len(rule.Triggers) == 0 {
			return nil, fmt.Errorf("rule %d (%s): no triggers", i, rule.Category)
		}
		for j, trigger := range rule.Triggers {
			if strings.TrimSpace(trigger) == "" {
				return nil, fmt.Errorf("rule %d (%s): empty trigger at index %d", i, rule.Category, j)
			}
		}
	}
	return doc.Rules, nil
}
