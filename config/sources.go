package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"mhbaig/coffeemarketworker/internal/normalize"
	"mhbaig/coffeemarketworker/internal/selector"
)

// Source kinds understood by the adapter factory.
const (
	SourceKindPaginated = "paginated"
	SourceKindScroll    = "scroll"
	SourceKindAPI       = "api"
)

// SelectorSet holds the per-field fallback chains for HTML sources.
type SelectorSet struct {
	Card    selector.Chain `yaml:"card"`
	Name    selector.Chain `yaml:"name"`
	Price   selector.Chain `yaml:"price"`
	Link    selector.Chain `yaml:"link"`
	Image   selector.Chain `yaml:"image"`
	Rating  selector.Chain `yaml:"rating"`
	Reviews selector.Chain `yaml:"reviews"`
}

// Source is the immutable per-storefront configuration injected into its
// adapter. One Source drives exactly one adapter instance.
type Source struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Source string `yaml:"source"`

	// HTML sources
	URL       string      `yaml:"url"`
	BaseURL   string      `yaml:"base_url"`
	Selectors SelectorSet `yaml:"selectors"`

	// Pagination
	PageParam string `yaml:"page_param"`
	MaxPages  int    `yaml:"max_pages"`

	// Infinite scroll
	MaxScrolls   int `yaml:"max_scrolls"`
	StableRounds int `yaml:"stable_rounds"`
	SettleMS     int `yaml:"settle_ms"`

	// Query API
	Endpoint        string   `yaml:"endpoint"`
	DiscoveryURL    string   `yaml:"discovery_url"`
	Cities          []string `yaml:"cities"`
	Query           string   `yaml:"query"`
	VendorTTLHours  int      `yaml:"vendor_ttl_hours"`
	ProductTTLHours int      `yaml:"product_ttl_hours"`

	// Drop listings whose name does not look like the harvested category
	FilterCategory bool `yaml:"filter_category"`
}

// SettleWait returns the post-scroll settle delay.
func (s Source) SettleWait() time.Duration {
	return time.Duration(s.SettleMS) * time.Millisecond
}

// VendorTTL returns the memoization TTL for vendor discovery.
func (s Source) VendorTTL() time.Duration {
	return time.Duration(s.VendorTTLHours) * time.Hour
}

// ProductTTL returns the memoization TTL for per-vendor API fetches.
func (s Source) ProductTTL() time.Duration {
	return time.Duration(s.ProductTTLHours) * time.Hour
}

// Sources is the root of the sources YAML document: normalization rules
// plus the storefront list.
type Sources struct {
	Rules   normalize.Rules `yaml:"rules"`
	Sources []Source        `yaml:"sources"`
}

// LoadSources reads and validates the sources YAML file.
func LoadSources(path string) (*Sources, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file %q: %w", path, err)
	}

	var cfg Sources
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse sources file %q: %w", path, err)
	}

	for i := range cfg.Sources {
		applySourceDefaults(&cfg.Sources[i])
		if err := validateSource(cfg.Sources[i]); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

func applySourceDefaults(s *Source) {
	if s.Source == "" {
		s.Source = s.Name
	}
	switch s.Kind {
	case SourceKindPaginated:
		if s.MaxPages == 0 {
			s.MaxPages = 3
		}
		if s.PageParam == "" {
			s.PageParam = "page"
		}
	case SourceKindScroll:
		if s.MaxScrolls == 0 {
			s.MaxScrolls = 10
		}
		if s.StableRounds == 0 {
			s.StableRounds = 2
		}
		if s.SettleMS == 0 {
			s.SettleMS = 3000
		}
	case SourceKindAPI:
		if s.VendorTTLHours == 0 {
			s.VendorTTLHours = 7 * 24
		}
		if s.ProductTTLHours == 0 {
			s.ProductTTLHours = 24
		}
	}
}

func validateSource(s Source) error {
	if s.Name == "" {
		return fmt.Errorf("source with empty name")
	}
	switch s.Kind {
	case SourceKindPaginated, SourceKindScroll:
		if s.URL == "" {
			return fmt.Errorf("source %q: url is required for kind %q", s.Name, s.Kind)
		}
		if s.Selectors.Card.IsZero() {
			return fmt.Errorf("source %q: card selector chain is required", s.Name)
		}
	case SourceKindAPI:
		if s.Endpoint == "" {
			return fmt.Errorf("source %q: endpoint is required for kind %q", s.Name, s.Kind)
		}
		if len(s.Cities) == 0 {
			return fmt.Errorf("source %q: at least one city is required", s.Name)
		}
	default:
		return fmt.Errorf("source %q: unknown kind %q", s.Name, s.Kind)
	}
	return nil
}
