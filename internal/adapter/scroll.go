package adapter

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mhbaig/coffeemarketworker/config"
	"mhbaig/coffeemarketworker/internal/catalog"
	"mhbaig/coffeemarketworker/internal/normalize"
	pkgerr "mhbaig/coffeemarketworker/pkg/errors"
	"mhbaig/coffeemarketworker/services/browser"
)

// scrollState is the explicit state of the infinite-scroll machine.
type scrollState int

const (
	stateScrolling scrollState = iota
	stateSettling
	stateExhausted
)

// ScrollAdapter drives an infinite-scroll catalog through a browser
// session. Each cycle scrolls to the bottom, waits for content to settle and
// compares the page height before and after; the source is exhausted when
// the height stays unchanged for StableRounds consecutive cycles or the
// iteration cap is reached. The per-run seen set guarantees a card
// re-observed after a scroll is not re-emitted.
type ScrollAdapter struct {
	baseAdapter
	cfg      config.Source
	sessions browser.Factory
}

// NewScrollAdapter creates an adapter for one infinite-scroll HTML source.
func NewScrollAdapter(src config.Source, norm *normalize.Normalizer, sessions browser.Factory) *ScrollAdapter {
	return &ScrollAdapter{
		baseAdapter: newBaseAdapter(src, norm),
		cfg:         src,
		sessions:    sessions,
	}
}

// FetchRecords acquires a browser session for the run and releases it on
// every exit path.
func (a *ScrollAdapter) FetchRecords() ([]catalog.Record, error) {
	sess, err := a.sessions.NewSession()
	if err != nil {
		return nil, pkgerr.NewFetch(a.source, "failed to acquire browser session", err)
	}
	defer sess.Close()

	if err := a.navigate(sess); err != nil {
		return nil, err
	}

	var records []catalog.Record

	// Content already rendered before the first scroll
	initial, err := a.harvest(sess)
	if err != nil {
		return nil, err
	}
	records = append(records, initial...)

	lastHeight, err := sess.Height()
	if err != nil {
		a.log.Error().Err(err).Msg("Height probe failed, returning partial results")
		return records, pkgerr.NewFetch(a.source, "height probe failed", err)
	}

	state := stateScrolling
	stable := 0
	cycle := 0

	for state != stateExhausted {
		switch state {
		case stateScrolling:
			cycle++
			if err := sess.ScrollToBottom(); err != nil {
				a.log.Error().Err(err).Int("cycle", cycle).Msg("Scroll failed, returning partial results")
				return records, pkgerr.NewFetch(a.source, "scroll failed", err)
			}
			state = stateSettling

		case stateSettling:
			if err := sess.WaitStable(a.cfg.SettleWait()); err != nil {
				a.log.Debug().Err(err).Int("cycle", cycle).Msg("Settle wait ended early")
			}

			fresh, err := a.harvest(sess)
			if err != nil {
				return records, err
			}
			records = append(records, fresh...)

			height, err := sess.Height()
			if err != nil {
				a.log.Error().Err(err).Int("cycle", cycle).Msg("Height probe failed, returning partial results")
				return records, pkgerr.NewFetch(a.source, "height probe failed", err)
			}

			if height == lastHeight {
				stable++
			} else {
				stable = 0
			}
			lastHeight = height

			if stable >= a.cfg.StableRounds {
				a.log.Info().Int("cycle", cycle).Msg("Page height settled, source exhausted")
				state = stateExhausted
			} else if cycle >= a.cfg.MaxScrolls {
				a.log.Info().Int("cycle", cycle).Msg("Scroll cap reached")
				state = stateExhausted
			} else {
				state = stateScrolling
			}
		}
	}

	return records, nil
}

// navigate loads the catalog URL, permitting exactly one retry.
func (a *ScrollAdapter) navigate(sess browser.Session) error {
	err := sess.Navigate(a.cfg.URL)
	if err != nil {
		a.log.Warn().Err(err).Msg("Retrying navigation")
		err = sess.Navigate(a.cfg.URL)
	}
	if err != nil {
		return pkgerr.NewFetch(a.source, "failed to load "+a.cfg.URL+" twice", err)
	}
	return nil
}

// harvest parses the current DOM and extracts only genuinely new cards; the
// base adapter's seen set filters everything observed in earlier cycles.
func (a *ScrollAdapter) harvest(sess browser.Session) ([]catalog.Record, error) {
	html, err := sess.HTML()
	if err != nil {
		return nil, pkgerr.NewFetch(a.source, "failed to read rendered page", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, pkgerr.NewFetch(a.source, "failed to parse rendered page", err)
	}
	records, _ := a.collectCards(doc)
	return records, nil
}
