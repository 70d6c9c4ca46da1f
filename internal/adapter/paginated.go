package adapter

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/PuerkitoBio/goquery"

	"mhbaig/coffeemarketworker/config"
	"mhbaig/coffeemarketworker/helpers"
	"mhbaig/coffeemarketworker/internal/catalog"
	"mhbaig/coffeemarketworker/internal/normalize"
	pkgerr "mhbaig/coffeemarketworker/pkg/errors"
)

// PaginatedAdapter walks a classic page-numbered catalog. Pagination ends
// the first time a page matches zero cards (reached the end, not an error)
// or when a page fetch fails twice in a row; both terminations return the
// records accumulated so far.
type PaginatedAdapter struct {
	baseAdapter
	cfg         config.Source
	snapshotDir string
	delayMin    time.Duration
	delayMax    time.Duration

	// fetchFunc is swapped out in tests
	fetchFunc func(url string) (io.Reader, error)
}

// NewPaginatedAdapter creates an adapter for one paginated HTML source.
func NewPaginatedAdapter(src config.Source, norm *normalize.Normalizer, snapshotDir string, delayMin, delayMax time.Duration) *PaginatedAdapter {
	return &PaginatedAdapter{
		baseAdapter: newBaseAdapter(src, norm),
		cfg:         src,
		snapshotDir: snapshotDir,
		delayMin:    delayMin,
		delayMax:    delayMax,
		fetchFunc:   helpers.FetchWithRandomHeaders,
	}
}

// FetchRecords iterates pages 1..MaxPages with a randomized delay between
// fetches as the only backpressure mechanism.
func (a *PaginatedAdapter) FetchRecords() ([]catalog.Record, error) {
	var records []catalog.Record

	for page := 1; page <= a.cfg.MaxPages; page++ {
		pageURL := a.pageURL(page)

		body, err := a.fetchPage(pageURL)
		if err != nil {
			a.log.Error().Err(err).Int("page", page).Msg("Page fetch failed after retry, halting pagination")
			return records, err
		}

		if page == 1 {
			a.writeSnapshot(body)
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			a.log.Error().Err(err).Int("page", page).Msg("HTML parse failed, halting pagination")
			return records, pkgerr.NewFetch(a.source, "failed to parse page", err)
		}

		pageRecords, matched := a.collectCards(doc)
		if matched == 0 {
			a.log.Info().Int("page", page).Msg("No cards matched, reached the end")
			return records, nil
		}

		records = append(records, pageRecords...)
		a.log.Info().Int("page", page).Int("matched", matched).
			Int("extracted", len(pageRecords)).Msg("Page processed")

		if page < a.cfg.MaxPages {
			helpers.RandomDelay(a.delayMin, a.delayMax)
		}
	}

	return records, nil
}

// fetchPage reads one page, permitting exactly one retry.
func (a *PaginatedAdapter) fetchPage(pageURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			a.log.Warn().Err(lastErr).Str("url", pageURL).Msg("Retrying page fetch")
			helpers.RandomDelay(a.delayMin, a.delayMax)
		}
		reader, err := a.fetchFunc(pageURL)
		if err != nil {
			lastErr = err
			continue
		}
		body, err := io.ReadAll(reader)
		if err != nil {
			lastErr = err
			continue
		}
		return body, nil
	}
	return nil, pkgerr.NewFetch(a.source, fmt.Sprintf("failed to fetch %s twice", pageURL), lastErr)
}

// pageURL appends the page query parameter for pages beyond the first.
func (a *PaginatedAdapter) pageURL(page int) string {
	if page == 1 {
		return a.cfg.URL
	}
	u, err := url.Parse(a.cfg.URL)
	if err != nil {
		return a.cfg.URL
	}
	q := u.Query()
	q.Set(a.cfg.PageParam, fmt.Sprintf("%d", page))
	u.RawQuery = q.Encode()
	return u.String()
}

// writeSnapshot persists the first page's raw content for offline selector
// debugging. Failure to write is logged and ignored; the snapshot is not
// required for correct operation.
func (a *PaginatedAdapter) writeSnapshot(body []byte) {
	if a.snapshotDir == "" {
		return
	}
	if err := os.MkdirAll(a.snapshotDir, 0o755); err != nil {
		a.log.Warn().Err(err).Msg("Snapshot dir unavailable")
		return
	}
	path := filepath.Join(a.snapshotDir, a.name+"_page_1.html")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		a.log.Warn().Err(err).Str("path", path).Msg("Snapshot write failed")
	}
}
