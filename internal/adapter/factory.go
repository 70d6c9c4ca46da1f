package adapter

import (
	"mhbaig/coffeemarketworker/config"
	"mhbaig/coffeemarketworker/internal/normalize"
	"mhbaig/coffeemarketworker/logger"
	"mhbaig/coffeemarketworker/services/browser"
	"mhbaig/coffeemarketworker/services/cache"
)

// Services holds the infrastructure shared by adapters.
type Services struct {
	Cache    cache.CacheService
	Sessions browser.Factory
}

// CreateAdapters builds one adapter per configured source. Sources of an
// unknown kind were already rejected at config load, so the switch is total.
func CreateAdapters(cfg config.Config, sources *config.Sources, svcs Services) []Adapter {
	norm := normalize.New(sources.Rules)

	var adapters []Adapter
	for _, src := range sources.Sources {
		switch src.Kind {
		case config.SourceKindPaginated:
			adapters = append(adapters,
				NewPaginatedAdapter(src, norm, cfg.SnapshotDir, cfg.DelayMin, cfg.DelayMax))
		case config.SourceKindScroll:
			adapters = append(adapters, NewScrollAdapter(src, norm, svcs.Sessions))
		case config.SourceKindAPI:
			adapters = append(adapters, NewQueryAPIAdapter(src, norm, svcs.Cache, svcs.Sessions))
		}
	}

	logger.ForWorker().Info().Int("adapters", len(adapters)).Msg("Created source adapters")
	return adapters
}
