package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for RepoMiner.
type Config struct {
	Fetcher   FetcherConfig  `mapstructure:"fetcher"   yaml:"fetcher"`
	Browser   BrowserConfig  `mapstructure:"browser"   yaml:"browser"`
	Selectors SelectorConfig `mapstructure:"selectors" yaml:"selectors"`
	Miner     MinerConfig    `mapstructure:"miner"     yaml:"miner"`
	Storage   StorageConfig  `mapstructure:"storage"   yaml:"storage"`
	Logging   LoggingConfig  `mapstructure:"logging"   yaml:"logging"`
	Metrics   MetricsConfig  `mapstructure:"metrics"   yaml:"metrics"`
}

// FetcherConfig controls the HTTP page fetcher.
type FetcherConfig struct {
	RequestTimeout  time.Duration `mapstructure:"request_timeout"   yaml:"request_timeout"`
	UserAgents      []string      `mapstructure:"user_agents"       yaml:"user_agents"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	ProxyURL        string        `mapstructure:"proxy_url"         yaml:"proxy_url"`
}

// BrowserConfig controls the headless browser used by the contributor fallback.
type BrowserConfig struct {
	Bin         string        `mapstructure:"bin"          yaml:"bin"`
	Headless    bool          `mapstructure:"headless"     yaml:"headless"`
	NoSandbox   bool          `mapstructure:"no_sandbox"   yaml:"no_sandbox"`
	Stealth     bool          `mapstructure:"stealth"      yaml:"stealth"`
	WindowSize  string        `mapstructure:"window_size"  yaml:"window_size"`
	WaitTimeout time.Duration `mapstructure:"wait_timeout" yaml:"wait_timeout"`
	ProxyURL    string        `mapstructure:"proxy_url"    yaml:"proxy_url"`
}

// SelectorConfig holds every structural query used by the extractors.
// Each one can be replaced from the config file when the host changes its markup.
type SelectorConfig struct {
	// Landing page
	Summary              string `mapstructure:"summary"                yaml:"summary"`
	SummaryCommits       string `mapstructure:"summary_commits"        yaml:"summary_commits"`
	SummaryBranches      string `mapstructure:"summary_branches"       yaml:"summary_branches"`
	SummaryReleases      string `mapstructure:"summary_releases"       yaml:"summary_releases"`
	SummaryContributors  string `mapstructure:"summary_contributors"   yaml:"summary_contributors"`
	SummaryCount         string `mapstructure:"summary_count"          yaml:"summary_count"`
	ContributorsMinNodes int    `mapstructure:"contributors_min_nodes" yaml:"contributors_min_nodes"`
	PageActions          string `mapstructure:"page_actions"           yaml:"page_actions"`
	Watchers             string `mapstructure:"watchers"               yaml:"watchers"`
	Stars                string `mapstructure:"stars"                  yaml:"stars"`
	SocialCountAttr      string `mapstructure:"social_count_attr"      yaml:"social_count_attr"`

	// Issues and pull request listings
	StateToggle string `mapstructure:"state_toggle" yaml:"state_toggle"`
	StateLink   string `mapstructure:"state_link"   yaml:"state_link"`

	// Commits listing and detail page
	CommitSHAButton string `mapstructure:"commit_sha_button" yaml:"commit_sha_button"`
	CommitTimeXPath string `mapstructure:"commit_time_xpath" yaml:"commit_time_xpath"`
	CommitTimeAttr  string `mapstructure:"commit_time_attr"  yaml:"commit_time_attr"`
	CommitFullSHA   string `mapstructure:"commit_full_sha"   yaml:"commit_full_sha"`

	// Rendered landing page, read by the browser fallback
	FallbackContributors string `mapstructure:"fallback_contributors" yaml:"fallback_contributors"`
}

// MinerConfig controls the mining pipeline.
type MinerConfig struct {
	// Parallel is how many repositories the CLI mines at once. A single run is always sequential.
	Parallel int  `mapstructure:"parallel" yaml:"parallel"`
	Fallback bool `mapstructure:"fallback" yaml:"fallback"`
}

// StorageConfig controls output/storage.
type StorageConfig struct {
	Type       string `mapstructure:"type"        yaml:"type"`
	OutputPath string `mapstructure:"output_path" yaml:"output_path"`
	MongoURI   string `mapstructure:"mongo_uri"   yaml:"mongo_uri"`
	Database   string `mapstructure:"database"    yaml:"database"`
	Collection string `mapstructure:"collection"  yaml:"collection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultSelectors returns the queries matching the host's classic repository markup.
func DefaultSelectors() SelectorConfig {
	return SelectorConfig{
		Summary:              "ul.numbers-summary",
		SummaryCommits:       `a[href*="/commits"]`,
		SummaryBranches:      `a[href$="/branches"]`,
		SummaryReleases:      `a[href$="/releases"]`,
		SummaryContributors:  `a[href$="/contributors"]`,
		SummaryCount:         "span.num",
		ContributorsMinNodes: 4,
		PageActions:          "ul.pagehead-actions",
		Watchers:             `a.social-count[href$="/watchers"]`,
		Stars:                `a.social-count[href$="/stargazers"]`,
		SocialCountAttr:      "aria-label",

		StateToggle: "div.table-list-header-toggle.states",
		StateLink:   "a.btn-link",

		CommitSHAButton: "a.sha.btn.btn-outline.BtnGroup-item",
		CommitTimeXPath: "//relative-time[@datetime]",
		CommitTimeAttr:  "datetime",
		CommitFullSHA:   ".sha.user-select-contain",

		FallbackContributors: `ul.numbers-summary a[href$="/contributors"] span.num`,
	}
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Fetcher: FetcherConfig{
			RequestTimeout:  30 * time.Second,
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    20,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
		},
		Browser: BrowserConfig{
			Headless:    true,
			NoSandbox:   true,
			Stealth:     true,
			WindowSize:  "1920,1080",
			WaitTimeout: 5 * time.Second,
		},
		Selectors: DefaultSelectors(),
		Miner: MinerConfig{
			Parallel: 1,
			Fallback: true,
		},
		Storage: StorageConfig{
			Type:       "json",
			OutputPath: "./output",
			Database:   "repominer",
			Collection: "repositories",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
