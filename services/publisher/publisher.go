package publisher

// Publisher pushes canonical records to downstream consumers as they are
// extracted. Publishing is optional; the JSON output files remain the
// primary contract.
type Publisher interface {
	// Publish publishes one serialized record under the source key
	Publish(source string, record []byte) error

	// Close closes the publisher connection
	Close() error
}
