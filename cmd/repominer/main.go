package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/IshaanNene/RepoMiner/internal/config"
	"github.com/IshaanNene/RepoMiner/internal/fetcher"
	"github.com/IshaanNene/RepoMiner/internal/miner"
	"github.com/IshaanNene/RepoMiner/internal/observability"
	"github.com/IshaanNene/RepoMiner/internal/pipeline"
	"github.com/IshaanNene/RepoMiner/internal/storage"
	"github.com/IshaanNene/RepoMiner/internal/types"
)

var (
	cfgFile    string
	verbose    bool
	logFormat  string
	outputPath string
	outputType string
	parallel   int
	noFallback bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "repominer",
		Short: "RepoMiner: repository activity metrics from the hosting web frontend",
		Long: `RepoMiner reads a repository's public pages and extracts commit, branch,
release, contributor, watcher, star, issue and pull request counts plus the
time and hash of the latest commit. No API token is needed.

When the landing page does not render the contributor count, a headless
browser renders the page and reads it instead.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text, json, pretty")

	rootCmd.AddCommand(mineCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// mineCmd creates the "mine" subcommand.
func mineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mine [url...]",
		Short: "Mine metrics for one or more repositories",
		Long:  "Fetch each repository's landing, issues, pulls and commits pages and extract its metrics.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runMine,
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output directory")
	cmd.Flags().StringVarP(&outputType, "format", "f", "", "output format: json, jsonl, csv, mongodb, none")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 0, "repositories mined at once")
	cmd.Flags().BoolVar(&noFallback, "no-fallback", false, "never start a browser; unrendered contributor counts become -1")

	return cmd
}

// runMine executes the mine command.
func runMine(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	applyCLIOverrides(cfg)

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	for _, rawURL := range args {
		if err := config.ValidateURL(rawURL); err != nil {
			return fmt.Errorf("invalid URL %q: %w", rawURL, err)
		}
	}

	logger := setupLogger(&cfg.Logging)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics(logger)
	if cfg.Metrics.Enabled {
		if err := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metrics.Shutdown(shutdownCtx)
		}()
	}

	httpFetcher, err := fetcher.NewHTTPFetcher(cfg, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	defer httpFetcher.Close()

	opts := []miner.Option{miner.WithMetrics(metrics)}
	if cfg.Miner.Fallback {
		browser := fetcher.NewRodBrowser(&cfg.Browser, logger)
		opts = append(opts, miner.WithFallback(
			miner.NewBrowserFallback(browser, cfg.Selectors.FallbackContributors, cfg.Browser.WaitTimeout, logger),
		))
	}
	m := miner.New(httpFetcher, cfg.Selectors, logger, opts...)

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}

	logger.Info("starting mining run",
		"repositories", len(args),
		"parallel", cfg.Miner.Parallel,
		"fallback", cfg.Miner.Fallback,
		"storage", store.Name(),
	)

	start := time.Now()
	results := mineAll(ctx, m, args, cfg.Miner.Parallel)

	var mined []*types.RepositoryMetrics
	var failed int
	for _, r := range results {
		if r.err != nil {
			failed++
			continue
		}
		mined = append(mined, r.record)
	}

	pipe := pipeline.New(logger)
	pipe.Use(&pipeline.InvariantMiddleware{})
	pipe.Use(pipeline.NewDedupMiddleware())
	mined, rejected := pipe.ProcessAll(mined)
	failed += len(rejected)

	storeErr := store.Store(mined)
	if err := store.Close(); err != nil && storeErr == nil {
		storeErr = err
	}

	printResults(results, time.Since(start))
	if cfg.Storage.Type != "none" && len(mined) > 0 {
		printOutput(cfg.Storage)
	}

	if storeErr != nil {
		return fmt.Errorf("store results: %w", storeErr)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d repositories failed", failed, len(args))
	}
	return nil
}

// result is the outcome of one repository's run.
type result struct {
	locator string
	record  *types.RepositoryMetrics
	err     error
}

// mineAll mines every locator with at most limit runs in flight. Each run is
// independent: one failure does not cancel the others.
func mineAll(ctx context.Context, m *miner.Miner, locators []string, limit int) []result {
	results := make([]result, len(locators))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, locator := range locators {
		i, locator := i, locator
		g.Go(func() error {
			rec, err := m.Mine(ctx, locator)
			results[i] = result{locator: locator, record: rec, err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("RepoMiner %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			printConfig(cfg)
			return nil
		},
	}
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if outputPath != "" {
		cfg.Storage.OutputPath = outputPath
	}
	if outputType != "" {
		cfg.Storage.Type = strings.ToLower(outputType)
	}
	if parallel > 0 {
		cfg.Miner.Parallel = parallel
	}
	if noFallback {
		cfg.Miner.Fallback = false
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if logFormat != "" {
		cfg.Logging.Format = strings.ToLower(logFormat)
	}
}

// failureKind names the class of a run failure for the summary table.
func failureKind(err error) string {
	switch {
	case types.IsFetchError(err):
		return "fetch failed"
	case types.IsStructuralError(err):
		return "unexpected markup"
	case errors.Is(err, context.Canceled):
		return "interrupted"
	default:
		return "failed"
	}
}
