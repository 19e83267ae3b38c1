package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/IshaanNene/RepoMiner/internal/config"
)

// ErrBrowserUnreachable marks a browser session that could not be started or
// could not reach the target host. Callers may treat it as a soft failure.
var ErrBrowserUnreachable = errors.New("browser unreachable")

// Browser opens headless browser sessions.
type Browser interface {
	// Open launches a browser process and returns a session bound to it.
	// The caller owns the session and must Close it.
	Open(ctx context.Context) (BrowserSession, error)
}

// BrowserSession is one browser process with one page.
type BrowserSession interface {
	// Navigate loads url in the session's page.
	Navigate(url string) error

	// WaitVisibleText blocks until the element matched by the CSS selector
	// is visible, or timeout expires, and returns its text.
	WaitVisibleText(selector string, timeout time.Duration) (string, error)

	// Close closes the page, the browser connection and kills the process.
	Close() error
}

// RodBrowser implements Browser with a Chromium instance driven by Rod.
type RodBrowser struct {
	cfg    *config.BrowserConfig
	logger *slog.Logger
}

// NewRodBrowser creates a Browser that launches a fresh Chromium per session.
func NewRodBrowser(cfg *config.BrowserConfig, logger *slog.Logger) *RodBrowser {
	return &RodBrowser{
		cfg:    cfg,
		logger: logger.With("component", "rod_browser"),
	}
}

// Open launches and connects a browser. Launch and connect failures wrap ErrBrowserUnreachable.
func (b *RodBrowser) Open(ctx context.Context) (BrowserSession, error) {
	l := newLauncher(b.cfg).Context(ctx)

	controlURL, err := l.Launch()
	if err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: launch: %v", ErrBrowserUnreachable, err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("%w: connect: %v", ErrBrowserUnreachable, err)
	}

	page, err := newPage(browser, b.cfg.Stealth)
	if err != nil {
		_ = browser.Close()
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("open page: %w", err)
	}

	b.logger.Debug("browser session opened", "stealth", b.cfg.Stealth, "headless", b.cfg.Headless)

	return &rodSession{
		launcher: l,
		browser:  browser,
		page:     page,
		logger:   b.logger,
	}, nil
}

type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	logger   *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

func (s *rodSession) Navigate(url string) error {
	err := s.page.Navigate(url)
	if err == nil {
		return nil
	}
	if isUnreachable(err) {
		return fmt.Errorf("%w: navigate %s: %v", ErrBrowserUnreachable, url, err)
	}
	return fmt.Errorf("navigate %s: %w", url, err)
}

func (s *rodSession) WaitVisibleText(selector string, timeout time.Duration) (string, error) {
	page := s.page.Timeout(timeout)

	el, err := page.Element(selector)
	if err != nil {
		return "", fmt.Errorf("wait for %q: %w", selector, err)
	}
	if err := el.WaitVisible(); err != nil {
		return "", fmt.Errorf("wait visible %q: %w", selector, err)
	}

	text, err := el.Text()
	if err != nil {
		return "", fmt.Errorf("read text %q: %w", selector, err)
	}
	return text, nil
}

func (s *rodSession) Close() error {
	s.closeOnce.Do(func() {
		if err := s.page.Close(); err != nil {
			s.logger.Debug("page close failed", "error", err)
		}
		s.closeErr = s.browser.Close()
		s.launcher.Kill()
		s.launcher.Cleanup()
		s.logger.Debug("browser session closed")
	})
	return s.closeErr
}

// isUnreachable reports whether a navigation failed at the network level
// (DNS, connection refused, offline) rather than in the page itself.
func isUnreachable(err error) bool {
	var navErr *rod.NavigationError
	if errors.As(err, &navErr) {
		return strings.HasPrefix(navErr.Reason, "net::")
	}
	return false
}

// newPage opens a blank page, patched against automation detection when stealth is set.
func newPage(browser *rod.Browser, stealthMode bool) (*rod.Page, error) {
	if stealthMode {
		return stealthPage(browser)
	}
	return browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
}
