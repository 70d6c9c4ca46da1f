package normalize

import "mhbaig/coffeemarketworker/internal/catalog"

// TypeRule maps a keyword list to one coffee type. Rules are evaluated
// top-to-bottom; the first rule with a matching keyword wins.
type TypeRule struct {
	Type     catalog.CoffeeType `yaml:"type"`
	Keywords []string           `yaml:"keywords"`
}

// TierThreshold is one step of the ascending price-tier table. A price
// strictly below Below resolves to Label.
type TierThreshold struct {
	Label string  `yaml:"label"`
	Below float64 `yaml:"below"`
}

// Rules is the business configuration the normalizer runs on: brand
// lexicon, type keyword rules, tier thresholds and the category filter.
// It is supplied externally (sources YAML) and falls back to the defaults
// below when a section is omitted.
type Rules struct {
	BrandLexicon     []string        `yaml:"brand_lexicon"`
	TypeRules        []TypeRule      `yaml:"type_rules"`
	Tiers            []TierThreshold `yaml:"tiers"`
	TopTier          string          `yaml:"top_tier"`
	CategoryKeywords []string        `yaml:"category_keywords"`
	CurrencyMarkers  []string        `yaml:"currency_markers"`
}

// DefaultRules returns the built-in business configuration for the Pakistani
// coffee market. Lexicon order is a tie-break: earlier entries win when a
// name mentions more than one brand.
func DefaultRules() Rules {
	return Rules{
		BrandLexicon: []string{
			"Nescafe Gold", "Nescafe Classic", "Nescafe", "Nestle",
			"Lavazza", "Davidoff", "Jacobs", "Maxwell House", "Folgers",
			"Mehran", "National", "Tapal", "Koffee Kult", "MacCoffee",
			"Kenco", "Illy", "Gloria Jeans", "Second Cup", "Coffee Planet",
			"Arkadia", "Continental", "Kauphy",
		},
		TypeRules: []TypeRule{
			{Type: catalog.TypeCapsule, Keywords: []string{"capsule", "pod"}},
			{Type: catalog.TypeBeans, Keywords: []string{"bean", "whole"}},
			{Type: catalog.TypeGround, Keywords: []string{"ground", "grind"}},
			{Type: catalog.TypeMix, Keywords: []string{"mix", "3 in 1", "2 in 1"}},
			{Type: catalog.TypeInstant, Keywords: []string{"instant"}},
		},
		Tiers: []TierThreshold{
			{Label: "economy", Below: 1000},
			{Label: "mid-range", Below: 2500},
		},
		TopTier: "premium",
		CategoryKeywords: []string{
			"coffee", "café", "nescafe", "espresso", "cappuccino", "latte",
			"mocha", "americano", "arabica", "robusta", "decaf", "cold brew",
		},
		CurrencyMarkers: []string{"Rs.", "Rs", "PKR", "₨", "$"},
	}
}

// Merge fills empty sections of r from the defaults so a partial YAML
// override does not silently disable a whole derivation.
func (r Rules) Merge() Rules {
	def := DefaultRules()
	if len(r.BrandLexicon) == 0 {
		r.BrandLexicon = def.BrandLexicon
	}
	if len(r.TypeRules) == 0 {
		r.TypeRules = def.TypeRules
	}
	if len(r.Tiers) == 0 {
		r.Tiers = def.Tiers
	}
	if r.TopTier == "" {
		r.TopTier = def.TopTier
	}
	if len(r.CategoryKeywords) == 0 {
		r.CategoryKeywords = def.CategoryKeywords
	}
	if len(r.CurrencyMarkers) == 0 {
		r.CurrencyMarkers = def.CurrencyMarkers
	}
	return r
}
