package adapter

import "mhbaig/coffeemarketworker/internal/catalog"

// Adapter is the contract every source adapter implements: retrieve raw
// listings from one storefront and emit canonical records. Adapters run one
// at a time; a failed adapter returns the records accumulated so far
// together with the halting error, never a hard abort of other sources.
type Adapter interface {
	// FetchRecords retrieves and normalizes listings from the source
	FetchRecords() ([]catalog.Record, error)

	// GetName returns the adapter's name for logging and identification
	GetName() string

	// GetSource returns the origin identifier stamped on emitted records
	GetSource() string
}
