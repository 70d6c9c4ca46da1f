package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mhbaig/coffeemarketworker/internal/adapter"
	"mhbaig/coffeemarketworker/internal/aggregate"
	"mhbaig/coffeemarketworker/internal/catalog"
	"mhbaig/coffeemarketworker/logger"
	"mhbaig/coffeemarketworker/services/publisher"
)

// Result is the outcome of one collection run: the flat canonical record
// list, per-source counts and the aggregate snapshot. A run is never fatal;
// the worst outcome is an empty or partial count for one source.
type Result struct {
	Records []catalog.Record   `json:"records"`
	Counts  map[string]int     `json:"counts"`
	Errors  map[string]string  `json:"errors,omitempty"`
	Stats   aggregate.Snapshot `json:"stats"`
}

// Worker runs the configured adapters sequentially and writes the run
// outputs. Adapters are never run concurrently against their sources.
type Worker struct {
	adapters  []adapter.Adapter
	publisher publisher.Publisher
	outputDir string
	interval  time.Duration
	log       *logger.Logger
	now       func() time.Time
}

// NewWorker creates a worker; the publisher may be nil when stream
// publishing is not configured.
func NewWorker(adapters []adapter.Adapter, pub publisher.Publisher, outputDir string, interval time.Duration) *Worker {
	return &Worker{
		adapters:  adapters,
		publisher: pub,
		outputDir: outputDir,
		interval:  interval,
		log:       logger.ForWorker(),
		now:       time.Now,
	}
}

// Start runs collection on the configured interval until the context is
// cancelled.
func (w *Worker) Start(ctx context.Context) error {
	for {
		start := w.now()
		if _, err := w.RunOnce(); err != nil {
			w.log.Error().Err(err).Msg("Run finished with errors")
		}
		w.log.Info().Dur("elapsed", time.Since(start)).Msg("Run complete")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.interval):
		}
	}
}

// RunOnce executes every adapter once, in order, and merges their outputs
// into one flat record list. A failing adapter contributes its partial
// records and is reported in the result; it never aborts the other sources.
func (w *Worker) RunOnce() (*Result, error) {
	agg := aggregate.New()
	result := &Result{
		Counts: make(map[string]int),
		Errors: make(map[string]string),
	}

	for _, a := range w.adapters {
		records, err := a.FetchRecords()
		if err != nil {
			w.log.Error().Err(err).Str("adapter", a.GetName()).
				Int("partial", len(records)).Msg("Adapter halted early")
			result.Errors[a.GetName()] = err.Error()
		}

		for _, rec := range records {
			agg.Observe(rec)
			w.publish(rec)
		}
		result.Records = append(result.Records, records...)
		result.Counts[a.GetSource()] += len(records)

		w.log.Info().Str("adapter", a.GetName()).Int("records", len(records)).
			Msg("Adapter finished")
	}

	result.Stats = agg.Snapshot()

	if err := w.writeOutputs(result); err != nil {
		w.log.Error().Err(err).Msg("Failed to write run outputs")
		return result, err
	}
	if len(result.Errors) > 0 {
		return result, fmt.Errorf("%d of %d adapters reported errors", len(result.Errors), len(w.adapters))
	}
	return result, nil
}

func (w *Worker) publish(rec catalog.Record) {
	if w.publisher == nil {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		w.log.Error().Err(err).Str("id", rec.ID).Msg("Record marshal failed")
		return
	}
	if err := w.publisher.Publish(rec.Source, data); err != nil {
		w.log.Error().Err(err).Str("id", rec.ID).Msg("Record publish failed")
	}
}

// writeOutputs serializes the canonical record list (timestamped plus a
// stable "latest" name) and the aggregate snapshot.
func (w *Worker) writeOutputs(result *Result) error {
	if w.outputDir == "" {
		return nil
	}
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return err
	}

	records, err := json.MarshalIndent(result.Records, "", "  ")
	if err != nil {
		return err
	}

	stamp := w.now().Format("20060102_150405")
	if err := os.WriteFile(filepath.Join(w.outputDir, "products_"+stamp+".json"), records, 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(w.outputDir, "products_latest.json"), records, 0o644); err != nil {
		return err
	}

	stats, err := json.MarshalIndent(result.Stats, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(w.outputDir, "stats_latest.json"), stats, 0o644)
}
