// Package aggregate folds canonical records into grouped running statistics.
// Observe is O(1) per record; means and distributions are derived only when
// a snapshot is requested, never on the observe path.
package aggregate

import "mhbaig/coffeemarketworker/internal/catalog"

// groupStat is the running state per grouping key: count and price sum.
// The mean is price_sum / count computed on demand, never stored
// pre-divided, so incremental updates stay O(1).
type groupStat struct {
	count    int
	priceSum float64
}

// Aggregator accumulates grouped statistics over one run.
type Aggregator struct {
	total     int
	brands    map[string]*groupStat
	types     map[string]*groupStat
	packaging map[string]*groupStat
	tiers     map[string]*groupStat
}

// New creates an empty aggregator.
func New() *Aggregator {
	return &Aggregator{
		brands:    make(map[string]*groupStat),
		types:     make(map[string]*groupStat),
		packaging: make(map[string]*groupStat),
		tiers:     make(map[string]*groupStat),
	}
}

// Observe updates the running stats for every grouping the record belongs
// to. Records without packaging simply do not contribute to the packaging
// dimension.
func (a *Aggregator) Observe(rec catalog.Record) {
	a.total++
	bump(a.brands, rec.Brand, rec.Price)
	bump(a.types, string(rec.Type), rec.Price)
	bump(a.tiers, rec.PriceTier, rec.Price)
	if rec.Packaging != nil {
		bump(a.packaging, rec.Packaging.Unit, rec.Price)
	}
}

func bump(m map[string]*groupStat, key string, price float64) {
	if key == "" {
		return
	}
	stat, ok := m[key]
	if !ok {
		stat = &groupStat{}
		m[key] = stat
	}
	stat.count++
	stat.priceSum += price
}

// GroupSnapshot is the derived view of one grouping key.
type GroupSnapshot struct {
	Count     int     `json:"count"`
	PriceSum  float64 `json:"price_sum"`
	MeanPrice float64 `json:"mean_price"`
}

// Snapshot is the derived view of a whole run.
type Snapshot struct {
	Total     int                      `json:"total"`
	Brands    map[string]GroupSnapshot `json:"brands"`
	Types     map[string]GroupSnapshot `json:"types"`
	Packaging map[string]GroupSnapshot `json:"packaging"`
	Tiers     map[string]GroupSnapshot `json:"price_tiers"`
}

// Snapshot computes derived statistics on demand.
func (a *Aggregator) Snapshot() Snapshot {
	return Snapshot{
		Total:     a.total,
		Brands:    derive(a.brands),
		Types:     derive(a.types),
		Packaging: derive(a.packaging),
		Tiers:     derive(a.tiers),
	}
}

func derive(m map[string]*groupStat) map[string]GroupSnapshot {
	out := make(map[string]GroupSnapshot, len(m))
	for key, stat := range m {
		snap := GroupSnapshot{Count: stat.count, PriceSum: stat.priceSum}
		if stat.count > 0 {
			snap.MeanPrice = stat.priceSum / float64(stat.count)
		}
		out[key] = snap
	}
	return out
}
