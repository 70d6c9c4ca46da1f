package adapter

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"mhbaig/coffeemarketworker/config"
	"mhbaig/coffeemarketworker/internal/catalog"
	"mhbaig/coffeemarketworker/internal/normalize"
	"mhbaig/coffeemarketworker/internal/selector"
	"mhbaig/coffeemarketworker/logger"
	pkgerr "mhbaig/coffeemarketworker/pkg/errors"
)

// baseAdapter carries the state shared by the HTML-driven adapters: the
// selector chains, the normalizer, and the per-run seen set that enforces
// at-most-once emission of each physical product.
type baseAdapter struct {
	name           string
	source         string
	baseURL        string
	selectors      config.SelectorSet
	normalizer     *normalize.Normalizer
	filterCategory bool
	seen           map[string]struct{}
	log            *logger.Logger
}

func newBaseAdapter(src config.Source, norm *normalize.Normalizer) baseAdapter {
	return baseAdapter{
		name:           src.Name,
		source:         src.Source,
		baseURL:        src.BaseURL,
		selectors:      src.Selectors,
		normalizer:     norm,
		filterCategory: src.FilterCategory,
		seen:           make(map[string]struct{}),
		log:            logger.ForAdapter(src.Name),
	}
}

// GetName returns the adapter's name
func (b *baseAdapter) GetName() string {
	return b.name
}

// GetSource returns the origin identifier
func (b *baseAdapter) GetSource() string {
	return b.source
}

// extractCard turns one card selection into a canonical record. Field
// absence is absorbed into documented defaults; only a card that yields no
// name, no link and no price at all is treated as malformed and skipped.
// A nil record with nil error means the card was deliberately filtered
// (duplicate or out of category).
func (b *baseAdapter) extractCard(card *goquery.Selection) (*catalog.Record, error) {
	name, nameOK := selector.Text(card, b.selectors.Name)
	if !nameOK || name == "" {
		name = catalog.UnknownName
	}

	link, linkOK := selector.Attr(card, b.selectors.Link, "href")
	if !linkOK && !b.selectors.Name.IsZero() {
		// Some storefronts hang the product link on the name element itself
		link, linkOK = selector.Attr(card, b.selectors.Name, "href")
	}
	if linkOK {
		link = b.resolveURL(link)
	}

	priceText, priceOK := selector.Text(card, b.selectors.Price)
	price := 0.0
	if priceOK {
		price = b.normalizer.Price(priceText)
	}

	if name == catalog.UnknownName && !linkOK && !priceOK {
		return nil, pkgerr.NewExtraction(b.source, "card yielded no name, link or price")
	}
	if name == catalog.UnknownName {
		b.log.Debug().Err(pkgerr.NewFieldDefaulted(b.source, "name")).Msg("Name unextractable")
	}
	if !priceOK {
		b.log.Debug().Err(pkgerr.NewFieldDefaulted(b.source, "price")).Msg("Price unextractable")
	} else if price == 0 && strings.TrimSpace(priceText) != "" {
		b.log.Debug().Err(pkgerr.NewFieldDefaulted(b.source, "price")).
			Str("text", priceText).Msg("Price unparsable")
	}

	if b.filterCategory && !b.normalizer.InCategory(name) {
		return nil, nil
	}

	identity := catalog.Identity(name, price, link)
	if _, dup := b.seen[identity]; dup {
		return nil, nil
	}
	b.seen[identity] = struct{}{}

	rec := catalog.Record{
		ID:         b.source + "_" + identity,
		Name:       name,
		Price:      price,
		ProductURL: link,
		Source:     b.source,
		ScrapedAt:  time.Now(),
	}

	if img, ok := selector.Attr(card, b.selectors.Image, "src"); ok {
		rec.ImageURL = b.resolveURL(img)
	} else if img, ok := selector.Attr(card, b.selectors.Image, "data-src"); ok {
		rec.ImageURL = b.resolveURL(img)
	}

	if ratingText, ok := selector.Text(card, b.selectors.Rating); ok {
		rec.Rating = b.normalizer.Price(ratingText)
	}
	if reviewsText, ok := selector.Text(card, b.selectors.Reviews); ok {
		rec.ReviewsCount = digitsToInt(reviewsText)
	}

	b.normalizer.Apply(&rec)
	return &rec, nil
}

// collectCards resolves the card chain and extracts every card, isolating
// per-card failures: a malformed card is logged and skipped, never aborting
// the page or cycle.
func (b *baseAdapter) collectCards(doc *goquery.Document) ([]catalog.Record, int) {
	cards := selector.ResolveChain(doc.Selection, b.selectors.Card)
	matched := cards.Length()

	var records []catalog.Record
	cards.Each(func(_ int, card *goquery.Selection) {
		rec, err := b.extractCard(card)
		if err != nil {
			b.log.Warn().Err(err).Msg("Skipping malformed card")
			return
		}
		if rec != nil {
			records = append(records, *rec)
		}
	})
	return records, matched
}

func (b *baseAdapter) resolveURL(href string) string {
	if href == "" || b.baseURL == "" {
		return href
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return strings.TrimSuffix(b.baseURL, "/") + "/" + strings.TrimPrefix(href, "/")
}

func digitsToInt(text string) int {
	var digits []rune
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) == 0 {
		return 0
	}
	n := 0
	for _, d := range digits {
		n = n*10 + int(d-'0')
	}
	return n
}
