package adapter

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"mhbaig/coffeemarketworker/config"
	"mhbaig/coffeemarketworker/helpers"
	"mhbaig/coffeemarketworker/internal/catalog"
	"mhbaig/coffeemarketworker/internal/normalize"
	"mhbaig/coffeemarketworker/internal/selector"
	pkgerr "mhbaig/coffeemarketworker/pkg/errors"
	"mhbaig/coffeemarketworker/services/browser"
	"mhbaig/coffeemarketworker/services/cache"
)

// vendorSearchQuery is the structured search issued per vendor. Listings it
// returns carry structured fields directly; no selector fallback is needed,
// but they pass through the same normalizer as HTML-sourced cards.
const vendorSearchQuery = `
query vendorSearchProduct($clientName: String!, $vendorId: String!, $sortOrder: VendorSort, $query: String!) {
  vendor(id: $vendorId) {
    id
    name
    searchProducts(sortOrder: $sortOrder, query: $query, limit: 50) {
      name
      id
      imageUrl
      description
      price {
        value
      }
    }
  }
}`

type gqlRequest struct {
	Query     string       `json:"query"`
	Variables gqlVariables `json:"variables"`
}

type gqlVariables struct {
	ClientName string `json:"clientName"`
	VendorID   string `json:"vendorId"`
	SortOrder  string `json:"sortOrder"`
	Query      string `json:"query"`
}

type gqlResponse struct {
	Data struct {
		Vendor *struct {
			ID             string       `json:"id"`
			Name           string       `json:"name"`
			SearchProducts []apiProduct `json:"searchProducts"`
		} `json:"vendor"`
	} `json:"data"`
}

type apiProduct struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	Price       struct {
		Value float64 `json:"value"`
	} `json:"price"`
}

// QueryAPIAdapter is the two-phase structured-query adapter: discover
// per-city vendor references, then fetch listings per vendor. Both phases
// are memoized in the cache under independent key spaces; a hit
// short-circuits the network call entirely.
type QueryAPIAdapter struct {
	baseAdapter
	cfg      config.Source
	cache    cache.CacheService
	sessions browser.Factory

	// postFunc and discoverFunc are swapped out in tests
	postFunc     func(url string, payload []byte) ([]byte, error)
	discoverFunc func(city string) (string, error)
}

// NewQueryAPIAdapter creates an adapter for one structured-query source.
func NewQueryAPIAdapter(src config.Source, norm *normalize.Normalizer, store cache.CacheService, sessions browser.Factory) *QueryAPIAdapter {
	a := &QueryAPIAdapter{
		baseAdapter: newBaseAdapter(src, norm),
		cfg:         src,
		cache:       store,
		sessions:    sessions,
		postFunc:    helpers.PostJSON,
	}
	a.discoverFunc = a.discoverWithBrowser
	return a
}

// FetchRecords discovers vendors for every configured city and folds their
// listings into canonical records. A city whose discovery or fetch fails is
// skipped after one retry; the remaining cities still contribute.
func (a *QueryAPIAdapter) FetchRecords() ([]catalog.Record, error) {
	var records []catalog.Record
	var lastErr error

	for _, city := range a.cfg.Cities {
		vendorID, err := a.discoverVendor(city)
		if err != nil {
			a.log.Error().Err(err).Str("city", city).Msg("Vendor discovery failed, skipping city")
			lastErr = err
			continue
		}

		products, err := a.fetchVendor(city, vendorID)
		if err != nil {
			a.log.Error().Err(err).Str("city", city).Str("vendor", vendorID).
				Msg("Vendor fetch failed, skipping city")
			lastErr = err
			continue
		}

		records = append(records, a.transform(city, vendorID, products)...)
	}

	if len(records) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return records, nil
}

// discoverVendor resolves the vendor reference for a city, memoized under
// its own TTL and key space.
func (a *QueryAPIAdapter) discoverVendor(city string) (string, error) {
	key := fmt.Sprintf("vendors:%s:%s", a.source, citySlug(city))
	if cached, err := a.cache.Get(key); err == nil {
		a.log.Debug().Str("city", city).Msg("Vendor id served from cache")
		return string(cached), nil
	}

	vendorID, err := a.discoverFunc(city)
	if err != nil {
		// One retry at vendor granularity
		a.log.Warn().Err(err).Str("city", city).Msg("Retrying vendor discovery")
		vendorID, err = a.discoverFunc(city)
	}
	if err != nil {
		return "", pkgerr.NewFetch(a.source, "vendor discovery failed for "+city, err)
	}

	if err := a.cache.Set(key, []byte(vendorID), a.cfg.VendorTTL()); err != nil {
		a.log.Warn().Err(err).Msg("Vendor cache write failed")
	}
	return vendorID, nil
}

// fetchVendor returns the raw listings for one vendor, memoized per vendor.
// A cache miss performs the live call and writes the result back before
// returning.
func (a *QueryAPIAdapter) fetchVendor(city, vendorID string) ([]apiProduct, error) {
	key := fmt.Sprintf("products:%s:%s:%s", a.source, citySlug(city), vendorID)
	if cached, err := a.cache.Get(key); err == nil {
		var products []apiProduct
		if err := json.Unmarshal(cached, &products); err == nil {
			a.log.Debug().Str("city", city).Int("products", len(products)).
				Msg("Listings served from cache")
			return products, nil
		}
		a.log.Warn().Err(pkgerr.NewCacheCorrupt("undecodable cached listings", err)).
			Str("key", key).Msg("Refetching live")
	}

	payload, err := json.Marshal(gqlRequest{
		Query: vendorSearchQuery,
		Variables: gqlVariables{
			ClientName: "web",
			VendorID:   vendorID,
			SortOrder:  "PRICE_ASC",
			Query:      a.cfg.Query,
		},
	})
	if err != nil {
		return nil, err
	}

	body, err := a.postFunc(a.cfg.Endpoint, payload)
	if err != nil {
		a.log.Warn().Err(err).Str("vendor", vendorID).Msg("Retrying vendor fetch")
		body, err = a.postFunc(a.cfg.Endpoint, payload)
	}
	if err != nil {
		return nil, pkgerr.NewFetch(a.source, "query failed for vendor "+vendorID, err)
	}

	var resp gqlResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, pkgerr.NewFetch(a.source, "undecodable response for vendor "+vendorID, err)
	}
	if resp.Data.Vendor == nil {
		return nil, pkgerr.NewFetch(a.source, "no vendor in response for "+vendorID, nil)
	}

	products := resp.Data.Vendor.SearchProducts
	if cached, err := json.Marshal(products); err == nil {
		if err := a.cache.Set(key, cached, a.cfg.ProductTTL()); err != nil {
			a.log.Warn().Err(err).Msg("Listings cache write failed")
		}
	}
	return products, nil
}

// transform maps structured listings onto canonical records, reusing the
// shared normalizer, category filter and dedup identity.
func (a *QueryAPIAdapter) transform(city, vendorID string, products []apiProduct) []catalog.Record {
	base := strings.TrimSuffix(a.cfg.DiscoveryURL, "/")
	source := fmt.Sprintf("%s (%s)", a.source, city)

	var records []catalog.Record
	for _, p := range products {
		name := p.Name
		if name == "" {
			name = catalog.UnknownName
		}
		if a.filterCategory && !a.normalizer.InCategory(name) {
			continue
		}

		productURL := fmt.Sprintf("%s/darkstore/%s/product/%s", base, vendorID, p.ID)
		identity := catalog.Identity(name, p.Price.Value, productURL)
		if _, dup := a.seen[identity]; dup {
			continue
		}
		a.seen[identity] = struct{}{}

		rec := catalog.Record{
			ID:         p.ID,
			Name:       name,
			Price:      p.Price.Value,
			ImageURL:   p.ImageURL,
			ProductURL: productURL,
			Source:     source,
			ScrapedAt:  time.Now(),
		}
		if rec.ID == "" {
			rec.ID = a.source + "_" + identity
		}
		a.normalizer.Apply(&rec)
		records = append(records, rec)
	}
	return records
}

// discoverWithBrowser loads the city storefront page and pulls the vendor
// reference out of the first matching link. The session is scoped to the
// one discovery and always released.
func (a *QueryAPIAdapter) discoverWithBrowser(city string) (string, error) {
	sess, err := a.sessions.NewSession()
	if err != nil {
		return "", err
	}
	defer sess.Close()

	cityURL := strings.TrimSuffix(a.cfg.DiscoveryURL, "/") + "/city/" + citySlug(city)
	if err := sess.Navigate(cityURL); err != nil {
		return "", err
	}

	html, err := sess.HTML()
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	href, ok := selector.Attr(doc.Selection, a.selectors.Link, "href")
	if !ok {
		return "", pkgerr.NewExtraction(a.source, "no vendor link found for "+city)
	}
	return vendorFromHref(href)
}

// vendorFromHref extracts the vendor slug, the first path segment of a
// vendor link such as /sx92/pandamart.
func vendorFromHref(href string) (string, error) {
	u, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			return seg, nil
		}
	}
	return "", fmt.Errorf("no vendor segment in link %q", href)
}

func citySlug(city string) string {
	slug := strings.ToLower(strings.TrimSpace(city))
	slug = strings.ReplaceAll(slug, " ", "-")
	return slug
}
