package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mhbaig/coffeemarketworker/internal/adapter"
	"mhbaig/coffeemarketworker/internal/catalog"
)

// mockAdapter returns canned records, optionally alongside an error to
// exercise the partial-results contract.
type mockAdapter struct {
	name    string
	source  string
	records []catalog.Record
	err     error
	runs    int
}

func (m *mockAdapter) FetchRecords() ([]catalog.Record, error) {
	m.runs++
	return m.records, m.err
}

func (m *mockAdapter) GetName() string   { return m.name }
func (m *mockAdapter) GetSource() string { return m.source }

type mockPublisher struct {
	published []string
	closed    bool
}

func (p *mockPublisher) Publish(source string, record []byte) error {
	p.published = append(p.published, source)
	return nil
}

func (p *mockPublisher) Close() error {
	p.closed = true
	return nil
}

func mkRecord(source, name string, price float64) catalog.Record {
	return catalog.Record{
		ID:        catalog.RecordID(source, name, price, ""),
		Name:      name,
		Price:     price,
		Source:    source,
		Brand:     catalog.UnknownBrand,
		Type:      catalog.TypeOther,
		PriceTier: "economy",
	}
}

func TestRunOnceMergesAdapters(t *testing.T) {
	a := &mockAdapter{name: "shop-a", source: "a.pk", records: []catalog.Record{
		mkRecord("a.pk", "Coffee One", 500),
		mkRecord("a.pk", "Coffee Two", 900),
	}}
	b := &mockAdapter{name: "shop-b", source: "b.pk", records: []catalog.Record{
		mkRecord("b.pk", "Coffee Three", 700),
	}}

	w := NewWorker([]adapter.Adapter{a, b}, nil, "", time.Hour)

	result, err := w.RunOnce()
	require.NoError(t, err)

	assert.Len(t, result.Records, 3)
	assert.Equal(t, 2, result.Counts["a.pk"])
	assert.Equal(t, 1, result.Counts["b.pk"])
	assert.Empty(t, result.Errors)
	assert.Equal(t, 3, result.Stats.Total)
	assert.Equal(t, 1, a.runs)
	assert.Equal(t, 1, b.runs)
}

func TestRunOnceIsolatesFailingAdapter(t *testing.T) {
	healthy := &mockAdapter{name: "shop-a", source: "a.pk", records: []catalog.Record{
		mkRecord("a.pk", "Coffee One", 500),
	}}
	failing := &mockAdapter{
		name:    "shop-b",
		source:  "b.pk",
		records: []catalog.Record{mkRecord("b.pk", "Partial", 300)},
		err:     errors.New("blocked after page 1"),
	}

	w := NewWorker([]adapter.Adapter{failing, healthy}, nil, "", time.Hour)

	result, err := w.RunOnce()
	require.Error(t, err)

	// The failing adapter's partial records still count, and the healthy
	// adapter ran after it
	assert.Len(t, result.Records, 2)
	assert.Equal(t, 1, result.Counts["a.pk"])
	assert.Equal(t, 1, result.Counts["b.pk"])
	assert.Contains(t, result.Errors["shop-b"], "blocked")
	assert.Equal(t, 1, healthy.runs)
}

func TestRunOncePublishesEveryRecord(t *testing.T) {
	a := &mockAdapter{name: "shop-a", source: "a.pk", records: []catalog.Record{
		mkRecord("a.pk", "Coffee One", 500),
		mkRecord("a.pk", "Coffee Two", 900),
	}}
	pub := &mockPublisher{}

	w := NewWorker([]adapter.Adapter{a}, pub, "", time.Hour)

	_, err := w.RunOnce()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pk", "a.pk"}, pub.published)
}

func TestRunOnceWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	a := &mockAdapter{name: "shop-a", source: "a.pk", records: []catalog.Record{
		mkRecord("a.pk", "Coffee One", 500),
	}}

	w := NewWorker([]adapter.Adapter{a}, nil, dir, time.Hour)
	w.now = func() time.Time { return time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC) }

	_, err := w.RunOnce()
	require.NoError(t, err)

	for _, name := range []string{"products_20260203_040506.json", "products_latest.json", "stats_latest.json"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.NotEmpty(t, data, name)
	}
}

func TestStartStopsOnContextCancel(t *testing.T) {
	a := &mockAdapter{name: "shop-a", source: "a.pk"}
	w := NewWorker([]adapter.Adapter{a}, nil, "", time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on cancellation")
	}
	assert.GreaterOrEqual(t, a.runs, 1)
}
