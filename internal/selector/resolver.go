// Package selector locates DOM fragments for a logical field using an
// ordered list of CSS strategies. Absence is a valid outcome: a resolve that
// finds nothing returns an empty selection, never an error, and the caller
// decides what "field unextractable" means.
package selector

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Chain is an ordered fallback list for one logical field. The primary
// selector is tried first, then each alternative in listed order; the first
// strategy that yields fragments wins. Listed order is a deliberate
// tie-break, so resolution is deterministic for the same markup.
type Chain struct {
	Primary      string   `yaml:"primary"`
	Alternatives []string `yaml:"alternatives"`
}

// IsZero reports whether the chain has no strategies at all.
func (c Chain) IsZero() bool {
	return c.Primary == "" && len(c.Alternatives) == 0
}

// Resolve returns the fragments matched by the first non-empty strategy, or
// an empty selection when every strategy fails.
func Resolve(root *goquery.Selection, primary string, alternatives ...string) *goquery.Selection {
	if primary != "" {
		if found := root.Find(primary); found.Length() > 0 {
			return found
		}
	}
	for _, alt := range alternatives {
		if alt == "" {
			continue
		}
		if found := root.Find(alt); found.Length() > 0 {
			return found
		}
	}
	// Empty selection scoped to the same document
	return root.Find("selector-resolver-no-match")
}

// ResolveChain applies a configured chain against root.
func ResolveChain(root *goquery.Selection, chain Chain) *goquery.Selection {
	return Resolve(root, chain.Primary, chain.Alternatives...)
}

// Text resolves a chain and returns the trimmed text of the first fragment,
// with ok=false when no strategy matched.
func Text(root *goquery.Selection, chain Chain) (string, bool) {
	found := ResolveChain(root, chain)
	if found.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(found.First().Text()), true
}

// Attr resolves a chain and returns the named attribute of the first
// fragment, with ok=false when no strategy matched or the attribute is
// absent on the winning fragment.
func Attr(root *goquery.Selection, chain Chain, name string) (string, bool) {
	found := ResolveChain(root, chain)
	if found.Length() == 0 {
		return "", false
	}
	val, exists := found.First().Attr(name)
	if !exists {
		return "", false
	}
	return strings.TrimSpace(val), true
}
