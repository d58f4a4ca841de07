// Command scraper crawls the supplier catalog and writes a run report
// snapshot.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/F8ai/sourcing-agent/catalog"
	"github.com/F8ai/sourcing-agent/config"
	"github.com/F8ai/sourcing-agent/models"
	"github.com/F8ai/sourcing-agent/pipeline"
	"github.com/F8ai/sourcing-agent/scraper"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	os.Exit(run())
}

func run() int {
	defaultCfg := config.DefaultConfig()

	sourcesDefault := defaultCfg.SourcesFile
	if value, ok := config.EnvString("SOURCING_SOURCES_FILE"); ok {
		sourcesDefault = value
	}
	concurrentDefault := defaultCfg.MaxConcurrent
	if value, ok, err := config.EnvInt("SOURCING_MAX_CONCURRENT"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SOURCING_MAX_CONCURRENT: %v\n", err)
		return 1
	} else if ok {
		concurrentDefault = value
	}
	pacingDefault := defaultCfg.PacingDelay
	if value, ok, err := config.EnvDuration("SOURCING_PACING"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SOURCING_PACING: %v\n", err)
		return 1
	} else if ok {
		pacingDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("SOURCING_METRICS_ADDR"); ok {
		metricsDefault = value
	}

	sourcesFile := flag.String("sources-file", sourcesDefault, "Path to sources JSON file")
	maxConcurrent := flag.Int("max-concurrent", concurrentDefault, "Maximum concurrent requests")
	outputFile := flag.String("output-file", "", "Output file for scraped data (default: auto-generated)")
	dryRun := flag.Bool("dry-run", false, "Show what would be scraped without actually scraping")
	pacing := flag.Duration("pacing", pacingDefault, "Post-fetch delay before a concurrency slot frees up")
	timeout := flag.Duration("timeout", defaultCfg.Timeout, "Per-request total timeout")
	recordLog := flag.String("record-log", "", "Optional JSONL log of records as they complete")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := defaultCfg
	cfg.SourcesFile = *sourcesFile
	cfg.MaxConcurrent = *maxConcurrent
	cfg.OutputFile = *outputFile
	cfg.PacingDelay = *pacing
	cfg.Timeout = *timeout
	cfg.RecordLog = *recordLog
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		return 1
	}

	if _, err := os.Stat(cfg.SourcesFile); err != nil {
		fmt.Fprintf(os.Stderr, "sources file not found: %s\n", cfg.SourcesFile)
		return 1
	}

	cat, err := catalog.Load(cfg.SourcesFile)
	if err != nil {
		slog.Error("loading source catalog", slog.Any("error", err))
	}
	sources := catalog.Flatten(cat)

	fmt.Println("Cannabis Source Scraper")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Sources file:   %s\n", cfg.SourcesFile)
	fmt.Printf("Max concurrent: %d\n", cfg.MaxConcurrent)
	fmt.Printf("Found %d sources to scrape\n\n", len(sources))

	if *dryRun {
		printDryRun(cat)
		return 0
	}

	s, err := scraper.NewScraper(cfg)
	if err != nil {
		slog.Error("initialising scraper", slog.Any("error", err))
		return 1
	}

	var writer pipeline.OutputWriter
	if cfg.RecordLog != "" {
		log, err := pipeline.NewRecordLog(cfg.RecordLog)
		if err != nil {
			slog.Error("creating record log", slog.Any("error", err))
			return 1
		}
		writer = log
		defer func() {
			if err := log.Close(); err != nil {
				slog.Error("close record log", slog.Any("error", err))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, waiting for in-flight fetches to finish")
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	p := pipeline.NewPipeline(writer)
	p.Start(2)

	startTime := time.Now()
	report, err := s.Run(ctx, sources, p)
	if err != nil {
		slog.Error("scraping failed", slog.Any("error", err))
		return 1
	}
	if err := p.Close(); err != nil {
		slog.Error("pipeline shutdown failed", slog.Any("error", err))
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	path, err := pipeline.SaveReport(report, cfg.OutputFile)
	if err != nil {
		// The report stays available in memory and in the summary below.
		slog.Error("saving run report", slog.Any("error", err))
	}

	printSummary(report, time.Since(startTime), path, s.ErrorsByType())
	return 0
}

func printDryRun(cat *models.Catalog) {
	fmt.Println("DRY RUN MODE - No actual scraping will be performed")
	fmt.Println("Sources that would be scraped:")

	if len(cat.PreferredSources) > 0 {
		fmt.Println("\nPreferred Sources:")
		for _, source := range cat.PreferredSources {
			fmt.Printf("  * %s - %s\n", source.Name, source.URL)
		}
	}

	if len(cat.SourcesByState) > 0 {
		fmt.Println("\nState Sources:")
		for _, state := range cat.StateOrder() {
			stateSources := cat.SourcesByState[state]
			fmt.Printf("\n  %s:\n", strings.ToUpper(state))
			for _, source := range stateSources.Materials {
				fmt.Printf("    [materials] %s - %s\n", source.Name, source.URL)
			}
			for _, source := range stateSources.Equipment {
				fmt.Printf("    [equipment] %s - %s\n", source.Name, source.URL)
			}
		}
	}

	national := cat.NationalSuppliers
	if len(national.Materials) > 0 || len(national.Equipment) > 0 {
		fmt.Println("\nNational Suppliers:")
		for _, source := range national.Materials {
			fmt.Printf("    [materials] %s - %s\n", source.Name, source.URL)
		}
		for _, source := range national.Equipment {
			fmt.Printf("    [equipment] %s - %s\n", source.Name, source.URL)
		}
	}
}

func printSummary(report *models.RunReport, duration time.Duration, savedTo string, errorsByType map[string]int) {
	separator := strings.Repeat("=", 50)
	fmt.Println("\n" + separator)
	fmt.Println("SCRAPING RESULTS")
	fmt.Println(separator)
	fmt.Printf("Total sources:      %d\n", report.TotalSources)
	fmt.Printf("Successful scrapes: %d\n", report.SuccessfulScrapes)
	fmt.Printf("Failed scrapes:     %d\n", report.FailedScrapes)
	if report.TotalSources > 0 {
		rate := float64(report.SuccessfulScrapes) / float64(report.TotalSources) * 100
		fmt.Printf("Success rate:       %.1f%%\n", rate)
	}
	fmt.Printf("Duration:           %v\n", duration)
	if len(errorsByType) > 0 {
		fmt.Printf("Error types:        %v\n", errorsByType)
	}
	fmt.Println()

	if report.SuccessfulScrapes > 0 {
		fmt.Println("Successfully scraped sources:")
		for i, result := range report.Results {
			if i == 5 {
				fmt.Printf("  ... and %d more\n", len(report.Results)-5)
				break
			}
			fmt.Printf("  - %s - %s\n", result.Title, result.URL)
		}
		fmt.Println()
	}

	if report.FailedScrapes > 0 {
		fmt.Println("Failed scrapes:")
		for i, failure := range report.Failures {
			if i == 5 {
				fmt.Printf("  ... and %d more\n", len(report.Failures)-5)
				break
			}
			fmt.Printf("  - %s - %s\n", failure.URL, failure.Error)
		}
		fmt.Println()
	}

	if savedTo != "" {
		fmt.Printf("Results saved to: %s\n", savedTo)
	}
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
