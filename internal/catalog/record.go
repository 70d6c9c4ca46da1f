package catalog

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// CoffeeType is the closed classification of a coffee product.
type CoffeeType string

const (
	TypeInstant CoffeeType = "instant"
	TypeGround  CoffeeType = "ground"
	TypeBeans   CoffeeType = "beans"
	TypeCapsule CoffeeType = "capsule"
	TypeMix     CoffeeType = "mix"
	TypeOther   CoffeeType = "other"
)

// UnknownBrand is the fallback when no lexicon entry matches a product name.
const UnknownBrand = "Unknown"

// UnknownName is the fallback when a product name cannot be extracted at all.
const UnknownName = "Unknown"

// Packaging holds the size information parsed out of a product name.
// It is only attached to a record when a size pattern was actually found;
// a missing packaging is represented by a nil pointer, never a zero value.
type Packaging struct {
	Value   float64 `json:"value" yaml:"value"`
	Unit    string  `json:"unit" yaml:"unit"`
	Display string  `json:"display" yaml:"display"`
}

// Record is the canonical, source-independent representation of one listed
// product. Records are immutable after construction; every field has a
// defined default so a record is never dropped because one field was
// unextractable.
type Record struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Price        float64    `json:"price"`
	ImageURL     string     `json:"image_url,omitempty"`
	ProductURL   string     `json:"product_url,omitempty"`
	Source       string     `json:"source"`
	Brand        string     `json:"brand"`
	Type         CoffeeType `json:"type"`
	Packaging    *Packaging `json:"packaging,omitempty"`
	PriceTier    string     `json:"price_tier"`
	Rating       float64    `json:"rating"`
	ReviewsCount int        `json:"reviews_count"`
	ScrapedAt    time.Time  `json:"scraped_at"`
}

// Identity derives the duplicate-detection key for a listing. The same
// derivation is used by every adapter so cross-adapter duplicates hash
// identically.
func Identity(name string, price float64, url string) string {
	raw := name + "|" + strconv.FormatFloat(price, 'f', -1, 64) + "|" + url
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// RecordID builds a run-stable record id from the source name and the
// listing identity. Adapters whose upstream supplies a native product id
// (the query API) keep that id instead.
func RecordID(source, name string, price float64, url string) string {
	return fmt.Sprintf("%s_%s", source, Identity(name, price, url))
}
