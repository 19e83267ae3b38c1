package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and defaults.
// Priority (highest to lowest): env vars > config file > defaults.
// CLI flags are applied by the caller after Load.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("REPOMINER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("repominer")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".repominer"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so every key can be overridden from the environment.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("fetcher.request_timeout", cfg.Fetcher.RequestTimeout)
	v.SetDefault("fetcher.user_agents", cfg.Fetcher.UserAgents)
	v.SetDefault("fetcher.follow_redirects", cfg.Fetcher.FollowRedirects)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.tls_insecure", cfg.Fetcher.TLSInsecure)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)
	v.SetDefault("fetcher.proxy_url", cfg.Fetcher.ProxyURL)

	v.SetDefault("browser.bin", cfg.Browser.Bin)
	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.no_sandbox", cfg.Browser.NoSandbox)
	v.SetDefault("browser.stealth", cfg.Browser.Stealth)
	v.SetDefault("browser.window_size", cfg.Browser.WindowSize)
	v.SetDefault("browser.wait_timeout", cfg.Browser.WaitTimeout)
	v.SetDefault("browser.proxy_url", cfg.Browser.ProxyURL)

	s := cfg.Selectors
	v.SetDefault("selectors.summary", s.Summary)
	v.SetDefault("selectors.summary_commits", s.SummaryCommits)
	v.SetDefault("selectors.summary_branches", s.SummaryBranches)
	v.SetDefault("selectors.summary_releases", s.SummaryReleases)
	v.SetDefault("selectors.summary_contributors", s.SummaryContributors)
	v.SetDefault("selectors.summary_count", s.SummaryCount)
	v.SetDefault("selectors.contributors_min_nodes", s.ContributorsMinNodes)
	v.SetDefault("selectors.page_actions", s.PageActions)
	v.SetDefault("selectors.watchers", s.Watchers)
	v.SetDefault("selectors.stars", s.Stars)
	v.SetDefault("selectors.social_count_attr", s.SocialCountAttr)
	v.SetDefault("selectors.state_toggle", s.StateToggle)
	v.SetDefault("selectors.state_link", s.StateLink)
	v.SetDefault("selectors.commit_sha_button", s.CommitSHAButton)
	v.SetDefault("selectors.commit_time_xpath", s.CommitTimeXPath)
	v.SetDefault("selectors.commit_time_attr", s.CommitTimeAttr)
	v.SetDefault("selectors.commit_full_sha", s.CommitFullSHA)
	v.SetDefault("selectors.fallback_contributors", s.FallbackContributors)

	v.SetDefault("miner.parallel", cfg.Miner.Parallel)
	v.SetDefault("miner.fallback", cfg.Miner.Fallback)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.output_path", cfg.Storage.OutputPath)
	v.SetDefault("storage.mongo_uri", cfg.Storage.MongoURI)
	v.SetDefault("storage.database", cfg.Storage.Database)
	v.SetDefault("storage.collection", cfg.Storage.Collection)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
