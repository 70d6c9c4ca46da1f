// Package browser wraps headless-browser automation behind a small session
// interface so adapters can be tested without a real browser. A session is a
// scoped resource: acquired at the start of an adapter run and released on
// every exit path.
package browser

import (
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"mhbaig/coffeemarketworker/logger"
)

// Session is one live browser page.
type Session interface {
	// Navigate loads a URL and waits for the initial load
	Navigate(url string) error

	// HTML returns the current rendered document
	HTML() (string, error)

	// Height returns the current document scroll height
	Height() (float64, error)

	// ScrollToBottom triggers a scroll to the bottom of the document
	ScrollToBottom() error

	// WaitStable waits until the page stops mutating, up to the session timeout
	WaitStable(interval time.Duration) error

	// Close releases the page and the underlying browser
	Close() error
}

// Factory creates sessions; adapters hold a factory, not a session, so the
// session lifetime is bounded by a single run.
type Factory interface {
	NewSession() (Session, error)
}

// RodFactory launches a headless Chromium per session via go-rod with a
// stealth page to reduce bot detection.
type RodFactory struct {
	Timeout time.Duration
}

// NewRodFactory creates a factory with a per-operation timeout.
func NewRodFactory(timeout time.Duration) *RodFactory {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &RodFactory{Timeout: timeout}
}

// NewSession launches a browser and opens a stealth page.
func (f *RodFactory) NewSession() (Session, error) {
	l := launcher.New().Headless(true).NoSandbox(true)
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := stealth.Page(b)
	if err != nil {
		_ = b.Close()
		l.Cleanup()
		return nil, fmt.Errorf("failed to open stealth page: %w", err)
	}

	logger.ForBrowser().Debug().Msg("Browser session started")

	return &rodSession{
		launcher: l,
		browser:  b,
		page:     page,
		timeout:  f.Timeout,
	}, nil
}

type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	timeout  time.Duration
}

func (s *rodSession) Navigate(url string) error {
	return rod.Try(func() {
		s.page.Timeout(s.timeout).MustNavigate(url).MustWaitLoad()
	})
}

func (s *rodSession) HTML() (string, error) {
	return s.page.Timeout(s.timeout).HTML()
}

func (s *rodSession) Height() (float64, error) {
	res, err := s.page.Timeout(s.timeout).Eval("() => document.body.scrollHeight")
	if err != nil {
		return 0, err
	}
	return res.Value.Num(), nil
}

func (s *rodSession) ScrollToBottom() error {
	_, err := s.page.Timeout(s.timeout).Eval("() => window.scrollTo(0, document.body.scrollHeight)")
	return err
}

func (s *rodSession) WaitStable(interval time.Duration) error {
	return s.page.Timeout(s.timeout).WaitStable(interval)
}

func (s *rodSession) Close() error {
	err := s.page.Close()
	if berr := s.browser.Close(); err == nil {
		err = berr
	}
	s.launcher.Cleanup()
	logger.ForBrowser().Debug().Msg("Browser session closed")
	return err
}
