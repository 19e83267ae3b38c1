package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/IshaanNene/RepoMiner/internal/config"
	"github.com/IshaanNene/RepoMiner/internal/types"
)

var (
	colorCyan  = lipgloss.Color("36")
	colorGreen = lipgloss.Color("35")
	colorAmber = lipgloss.Color("220")
	colorRed   = lipgloss.Color("167")
	colorWhite = lipgloss.Color("255")
	colorGray  = lipgloss.Color("245")
	colorDim   = lipgloss.Color("240")
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(16)
	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleNumber  = lipgloss.NewStyle().Foreground(colorCyan)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleWarning = lipgloss.NewStyle().Foreground(colorAmber)
	styleError   = lipgloss.NewStyle().Foreground(colorRed)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconArrow   = "→"
)

// printResults prints one block per repository followed by a summary line.
func printResults(results []result, elapsed time.Duration) {
	var ok int
	for _, r := range results {
		fmt.Println()
		if r.err != nil {
			fmt.Println(styleError.Render(iconError) + " " + styleTitle.Render(r.locator) + " " + styleError.Render(failureKind(r.err)))
			fmt.Println("  " + styleDim.Render(r.err.Error()))
			if r.record != nil {
				printRecord(r.record)
			}
			continue
		}
		ok++
		fmt.Println(styleSuccess.Render(iconSuccess) + " " + styleTitle.Render(r.locator))
		printRecord(r.record)
	}

	fmt.Println()
	summary := fmt.Sprintf("%d of %d repositories mined in %s", ok, len(results), elapsed.Round(time.Millisecond))
	if ok == len(results) {
		fmt.Println(styleSuccess.Render(summary))
	} else {
		fmt.Println(styleWarning.Render(summary))
	}
}

func printRecord(rec *types.RepositoryMetrics) {
	printCount("commits", rec.Commits)
	printCount("branches", rec.Branches)
	printCount("releases", rec.Releases)
	if rec.ContributorsKnown() {
		printKeyValue("contributors", styleNumber.Render(strconv.FormatInt(rec.Contributors, 10))+styleDim.Render(" ("+rec.ContributorsSource+")"))
	} else {
		printKeyValue("contributors", styleWarning.Render("unknown"))
	}
	printCount("watchers", rec.Watchers)
	printCount("stars", rec.Stars)
	printKeyValue("issues", fmt.Sprintf("%s open / %s total",
		styleNumber.Render(strconv.FormatInt(rec.OpenIssues, 10)),
		styleNumber.Render(strconv.FormatInt(rec.TotalIssues, 10))))
	printKeyValue("pull requests", fmt.Sprintf("%s open / %s total",
		styleNumber.Render(strconv.FormatInt(rec.OpenPullRequests, 10)),
		styleNumber.Render(strconv.FormatInt(rec.TotalPullRequests, 10))))
	if rec.LastCommit != nil {
		printKeyValue("last commit", styleValue.Render(rec.LastCommit.UTC().Format(time.RFC3339))+" "+styleDim.Render(rec.LastCommitSHA))
	}
}

func printCount(key string, n int64) {
	printKeyValue(key, styleNumber.Render(strconv.FormatInt(n, 10)))
}

func printKeyValue(key, value string) {
	fmt.Println("  " + styleKey.Render(key) + " " + value)
}

// printOutput prints where the records were written.
func printOutput(cfg config.StorageConfig) {
	var dest string
	switch cfg.Type {
	case "mongodb":
		dest = cfg.Database + "." + cfg.Collection
	default:
		dest = filepath.Join(cfg.OutputPath, "repositories."+cfg.Type)
	}
	fmt.Println("  " + styleDim.Render(iconArrow) + " " + styleValue.Render(dest))
}

// printConfig prints the effective configuration.
func printConfig(cfg *config.Config) {
	section := func(name string) {
		fmt.Println()
		fmt.Println(styleTitle.Render(name))
	}
	kv := func(key string, value any) {
		printKeyValue(key, styleValue.Render(fmt.Sprint(value)))
	}

	section("Fetcher")
	kv("timeout", cfg.Fetcher.RequestTimeout)
	kv("redirects", cfg.Fetcher.FollowRedirects)
	kv("max body", fmt.Sprintf("%d bytes", cfg.Fetcher.MaxBodySize))
	kv("user agents", fmt.Sprintf("%d configured", len(cfg.Fetcher.UserAgents)))

	section("Browser")
	kv("fallback", cfg.Miner.Fallback)
	kv("headless", cfg.Browser.Headless)
	kv("stealth", cfg.Browser.Stealth)
	kv("wait timeout", cfg.Browser.WaitTimeout)
	if cfg.Browser.Bin != "" {
		kv("binary", cfg.Browser.Bin)
	}

	section("Miner")
	kv("parallel", cfg.Miner.Parallel)
	kv("min nodes", cfg.Selectors.ContributorsMinNodes)

	section("Storage")
	kv("type", cfg.Storage.Type)
	kv("output path", cfg.Storage.OutputPath)

	section("Logging")
	kv("level", cfg.Logging.Level)
	kv("format", cfg.Logging.Format)

	section("Metrics")
	kv("enabled", cfg.Metrics.Enabled)
	kv("port", cfg.Metrics.Port)
	kv("path", cfg.Metrics.Path)
}
