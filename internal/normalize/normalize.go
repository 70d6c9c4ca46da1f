// Package normalize turns raw listing text into typed record fields. Every
// function is pure and total: malformed input yields a documented default,
// never an error, so a record is never dropped over one bad field.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"mhbaig/coffeemarketworker/internal/catalog"
)

var (
	priceRe = regexp.MustCompile(`\d+(?:\.\d+)?`)
	// kg before g and l after ml so the longer unit wins at the same position
	packagingRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s?(kg|g|ml|l)\b`)
)

// Normalizer derives brand, type, packaging and price tier from free-text
// product names using an injected rule set.
type Normalizer struct {
	rules        Rules
	lowerLexicon []string
}

// New builds a Normalizer; empty rule sections fall back to the defaults.
func New(rules Rules) *Normalizer {
	rules = rules.Merge()
	lower := make([]string, len(rules.BrandLexicon))
	for i, b := range rules.BrandLexicon {
		lower[i] = strings.ToLower(b)
	}
	return &Normalizer{rules: rules, lowerLexicon: lower}
}

// Price strips currency markers and group separators and returns the first
// decimal number in the text. 0.0 is the defined fallback for absent or
// malformed text, not a signal of a free product.
func (n *Normalizer) Price(text string) float64 {
	for _, marker := range n.rules.CurrencyMarkers {
		text = strings.ReplaceAll(text, marker, "")
	}
	text = strings.ReplaceAll(text, ",", "")

	match := priceRe.FindString(text)
	if match == "" {
		return 0.0
	}
	price, err := strconv.ParseFloat(match, 64)
	if err != nil || price < 0 {
		return 0.0
	}
	return price
}

// Brand matches the name against the ordered brand lexicon,
// case-insensitively; the first lexicon entry found in the name wins.
func (n *Normalizer) Brand(name string) string {
	nameLower := strings.ToLower(name)
	for i, brand := range n.lowerLexicon {
		if strings.Contains(nameLower, brand) {
			return n.rules.BrandLexicon[i]
		}
	}
	return catalog.UnknownBrand
}

// Type classifies the name with the ordered keyword rule list; the first
// rule with a matching keyword wins, and an unmatched name is "other".
func (n *Normalizer) Type(name string) catalog.CoffeeType {
	nameLower := strings.ToLower(name)
	for _, rule := range n.rules.TypeRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(nameLower, kw) {
				return rule.Type
			}
		}
	}
	return catalog.TypeOther
}

// Packaging scans the name for a <number><unit> size pattern with unit in
// {g, kg, ml, l}. It returns nil when no pattern is present; packaging is
// absent, not zero.
func (n *Normalizer) Packaging(name string) *catalog.Packaging {
	m := packagingRe.FindStringSubmatch(name)
	if m == nil {
		return nil
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	unit := strings.ToLower(m[2])
	display := fmt.Sprintf("%s%s", trimTrailingZeros(m[1]), unit)
	return &catalog.Packaging{Value: value, Unit: unit, Display: display}
}

// Tier maps a price onto the ascending threshold table: the first threshold
// the price is strictly below names the tier, otherwise the top label.
// Price 0 therefore resolves to the lowest tier.
func (n *Normalizer) Tier(price float64) string {
	for _, t := range n.rules.Tiers {
		if price < t.Below {
			return t.Label
		}
	}
	return n.rules.TopTier
}

// InCategory reports whether a name looks like a product of the harvested
// category. Sources whose search results mix categories opt in to this
// filter per source configuration.
func (n *Normalizer) InCategory(name string) bool {
	if name == "" || name == catalog.UnknownName {
		return false
	}
	nameLower := strings.ToLower(name)
	for _, kw := range n.rules.CategoryKeywords {
		if strings.Contains(nameLower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Apply derives the normalized fields of a record whose name and price are
// already set.
func (n *Normalizer) Apply(rec *catalog.Record) {
	if rec.Name == "" {
		rec.Name = catalog.UnknownName
	}
	rec.Brand = n.Brand(rec.Name)
	rec.Type = n.Type(rec.Name)
	rec.Packaging = n.Packaging(rec.Name)
	rec.PriceTier = n.Tier(rec.Price)
}

func trimTrailingZeros(num string) string {
	if !strings.Contains(num, ".") {
		return num
	}
	num = strings.TrimRight(num, "0")
	return strings.TrimRight(num, ".")
}
