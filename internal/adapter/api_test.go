package adapter

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mhbaig/coffeemarketworker/config"
	"mhbaig/coffeemarketworker/internal/catalog"
	"mhbaig/coffeemarketworker/internal/normalize"
)

func apiSource(cities ...string) config.Source {
	return config.Source{
		Name:            "pandamart-test",
		Kind:            config.SourceKindAPI,
		Source:          "foodpanda.pk",
		Endpoint:        "https://api.test/gql",
		DiscoveryURL:    "https://api.test",
		Cities:          cities,
		Query:           "coffee",
		VendorTTLHours:  1,
		ProductTTLHours: 1,
		FilterCategory:  true,
	}
}

const vendorResponse = `{"data":{"vendor":{"id":"sx92","name":"Pandamart Test","searchProducts":[
	{"id":"PRD1","name":"Nescafe Gold Instant Coffee 200g","imageUrl":"https://img.test/prd1.jpg","price":{"value":2399}},
	{"id":"PRD2","name":"Green Tea Bags 100s","price":{"value":450}}
]}}}`

// countingBackend wires counting fakes into a fresh API adapter sharing the
// given cache.
type countingBackend struct {
	posts     int
	discovers int
	postErr   error
	discErr   error
}

func (b *countingBackend) newAdapter(src config.Source, store *mockKVCache) *QueryAPIAdapter {
	a := NewQueryAPIAdapter(src, normalize.New(normalize.Rules{}), store, nil)
	a.postFunc = func(url string, payload []byte) ([]byte, error) {
		b.posts++
		if b.postErr != nil {
			return nil, b.postErr
		}
		return []byte(vendorResponse), nil
	}
	a.discoverFunc = func(city string) (string, error) {
		b.discovers++
		if b.discErr != nil {
			return "", b.discErr
		}
		return "sx92", nil
	}
	return a
}

func TestQueryAPIFetchAndTransform(t *testing.T) {
	backend := &countingBackend{}
	a := backend.newAdapter(apiSource("Karachi"), newMockKVCache())

	records, err := a.FetchRecords()
	require.NoError(t, err)

	// The tea listing fails the category filter
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "PRD1", rec.ID)
	assert.Equal(t, "foodpanda.pk (Karachi)", rec.Source)
	assert.Equal(t, "https://api.test/darkstore/sx92/product/PRD1", rec.ProductURL)
	assert.Equal(t, "Nescafe Gold", rec.Brand)
	assert.Equal(t, catalog.TypeInstant, rec.Type)
	assert.Equal(t, "mid-range", rec.PriceTier)
	require.NotNil(t, rec.Packaging)
	assert.Equal(t, "200g", rec.Packaging.Display)

	assert.Equal(t, 1, backend.discovers)
	assert.Equal(t, 1, backend.posts)
}

func TestQueryAPICacheHitShortCircuits(t *testing.T) {
	store := newMockKVCache()
	backend := &countingBackend{}

	first := backend.newAdapter(apiSource("Karachi"), store)
	_, err := first.FetchRecords()
	require.NoError(t, err)
	require.Equal(t, 1, backend.discovers)
	require.Equal(t, 1, backend.posts)

	// A later run with a warm cache performs no network calls at all
	second := backend.newAdapter(apiSource("Karachi"), store)
	records, err := second.FetchRecords()
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, backend.discovers)
	assert.Equal(t, 1, backend.posts)
}

func TestQueryAPIExpiredCacheRefetchesLive(t *testing.T) {
	store := newMockKVCache()
	base := time.Now()
	store.now = func() time.Time { return base }

	backend := &countingBackend{}
	first := backend.newAdapter(apiSource("Karachi"), store)
	_, err := first.FetchRecords()
	require.NoError(t, err)

	// Both TTLs are one hour; two simulated hours later both phases go live
	store.now = func() time.Time { return base.Add(2 * time.Hour) }

	second := backend.newAdapter(apiSource("Karachi"), store)
	records, err := second.FetchRecords()
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 2, backend.discovers)
	assert.Equal(t, 2, backend.posts)
}

func TestQueryAPICorruptCachedListingsRefetch(t *testing.T) {
	store := newMockKVCache()
	require.NoError(t, store.Set("vendors:foodpanda.pk:karachi", []byte("sx92"), time.Hour))
	require.NoError(t, store.Set("products:foodpanda.pk:karachi:sx92", []byte("{not json"), time.Hour))

	backend := &countingBackend{}
	a := backend.newAdapter(apiSource("Karachi"), store)

	records, err := a.FetchRecords()
	require.NoError(t, err)
	assert.Len(t, records, 1)

	// Vendor id came from cache; listings were refetched live
	assert.Equal(t, 0, backend.discovers)
	assert.Equal(t, 1, backend.posts)
}

func TestQueryAPIDiscoveryRetriesThenSkipsCity(t *testing.T) {
	backend := &countingBackend{discErr: errors.New("city page blocked")}
	a := backend.newAdapter(apiSource("Karachi"), newMockKVCache())

	records, err := a.FetchRecords()
	require.Error(t, err)
	assert.Nil(t, records)
	// Exactly one retry at vendor granularity
	assert.Equal(t, 2, backend.discovers)
	assert.Equal(t, 0, backend.posts)
}

func TestQueryAPIFailedCityDoesNotSinkOthers(t *testing.T) {
	store := newMockKVCache()
	backend := &countingBackend{}
	a := backend.newAdapter(apiSource("Karachi", "Lahore"), store)

	a.discoverFunc = func(city string) (string, error) {
		backend.discovers++
		if city == "Lahore" {
			return "", errors.New("no vendor for city")
		}
		return "sx92", nil
	}

	records, err := a.FetchRecords()
	// Karachi contributed records, so the Lahore failure is non-fatal
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 3, backend.discovers)
}

func TestQueryAPIDeduplicatesAcrossCities(t *testing.T) {
	// Both cities resolve to the same vendor, so listings hash identically
	backend := &countingBackend{}
	a := backend.newAdapter(apiSource("Karachi", "Lahore"), newMockKVCache())

	records, err := a.FetchRecords()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestVendorFromHref(t *testing.T) {
	vendor, err := vendorFromHref("/sx92/pandamart-gulshan")
	require.NoError(t, err)
	assert.Equal(t, "sx92", vendor)

	vendor, err = vendorFromHref("https://api.test/ab12/shop")
	require.NoError(t, err)
	assert.Equal(t, "ab12", vendor)

	_, err = vendorFromHref("/")
	assert.Error(t, err)
}

func TestCitySlug(t *testing.T) {
	assert.Equal(t, "karachi", citySlug("Karachi"))
	assert.Equal(t, "dera-ghazi-khan", citySlug(" Dera Ghazi Khan "))
}
