package fetcher

import (
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/RepoMiner/internal/config"
)

// newLauncher builds the Chromium launcher: sandboxing and shared memory off,
// automation signalling removed.
func newLauncher(cfg *config.BrowserConfig) *launcher.Launcher {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox).
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("disable-extensions").
		Set("disable-infobars").
		Set("start-maximized").
		Set("disable-blink-features", "AutomationControlled").
		Delete("enable-automation")

	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	if cfg.WindowSize != "" {
		l = l.Set("window-size", cfg.WindowSize)
	}
	if cfg.ProxyURL != "" {
		l = l.Proxy(cfg.ProxyURL)
	}
	return l
}

// stealthPage opens a page with go-rod/stealth evasions injected before any
// site script runs.
func stealthPage(browser *rod.Browser) (*rod.Page, error) {
	page, err := stealth.Page(browser)
	if err != nil {
		return nil, fmt.Errorf("stealth page: %w", err)
	}
	return page, nil
}
