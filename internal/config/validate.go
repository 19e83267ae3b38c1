package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}
	if cfg.Fetcher.ProxyURL != "" {
		if _, err := url.Parse(cfg.Fetcher.ProxyURL); err != nil {
			return fmt.Errorf("invalid fetcher.proxy_url %q: %w", cfg.Fetcher.ProxyURL, err)
		}
	}

	if cfg.Browser.WaitTimeout <= 0 {
		return fmt.Errorf("browser.wait_timeout must be > 0")
	}

	if err := validateSelectors(&cfg.Selectors); err != nil {
		return err
	}

	if cfg.Miner.Parallel < 1 {
		return fmt.Errorf("miner.parallel must be >= 1, got %d", cfg.Miner.Parallel)
	}

	validStorageTypes := map[string]bool{
		"json": true, "jsonl": true, "csv": true, "mongodb": true, "none": true,
	}
	if !validStorageTypes[cfg.Storage.Type] {
		return fmt.Errorf("storage.type %q is not supported (valid: json, jsonl, csv, mongodb, none)", cfg.Storage.Type)
	}
	if cfg.Storage.Type == "mongodb" && cfg.Storage.MongoURI == "" {
		return fmt.Errorf("storage.mongo_uri is required for mongodb storage")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "text", "json", "pretty":
	default:
		return fmt.Errorf("logging.format must be 'text', 'json' or 'pretty', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

func validateSelectors(s *SelectorConfig) error {
	required := map[string]string{
		"summary":               s.Summary,
		"summary_commits":       s.SummaryCommits,
		"summary_branches":      s.SummaryBranches,
		"summary_releases":      s.SummaryReleases,
		"summary_contributors":  s.SummaryContributors,
		"summary_count":         s.SummaryCount,
		"page_actions":          s.PageActions,
		"watchers":              s.Watchers,
		"stars":                 s.Stars,
		"social_count_attr":     s.SocialCountAttr,
		"state_toggle":          s.StateToggle,
		"state_link":            s.StateLink,
		"commit_sha_button":     s.CommitSHAButton,
		"commit_time_xpath":     s.CommitTimeXPath,
		"commit_time_attr":      s.CommitTimeAttr,
		"commit_full_sha":       s.CommitFullSHA,
		"fallback_contributors": s.FallbackContributors,
	}
	for key, sel := range required {
		if strings.TrimSpace(sel) == "" {
			return fmt.Errorf("selectors.%s must not be empty", key)
		}
	}
	if s.ContributorsMinNodes < 1 {
		return fmt.Errorf("selectors.contributors_min_nodes must be >= 1, got %d", s.ContributorsMinNodes)
	}
	return nil
}

// ValidateURL checks that a repository locator is an absolute http(s) URL with a path.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	if strings.Trim(u.Path, "/") == "" {
		return fmt.Errorf("URL must point at a repository, got %q", rawURL)
	}
	return nil
}
