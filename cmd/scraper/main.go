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
	"syscall"
	"time"

	"github.com/aprilianr/go-scrape-fashion/config"
	"github.com/aprilianr/go-scrape-fashion/models"
	"github.com/aprilianr/go-scrape-fashion/pipeline"
	"github.com/aprilianr/go-scrape-fashion/scraper"
	"github.com/aprilianr/go-scrape-fashion/transform"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	baseURL := flag.String("base-url", "", "Catalog base URL")
	paginationURL := flag.String("pagination-url", "", "Pagination URL template with one %d placeholder")
	startPage := flag.Int("start-page", 0, "First numbered page to walk after the base URL")
	delayMs := flag.Int("delay", -1, "Delay between pages (milliseconds)")
	exchangeRate := flag.Float64("exchange-rate", 0, "Dollar to rupiah exchange rate")
	outputFile := flag.String("output", "", "CSV output filename (empty disables the file sink)")
	outputDir := flag.String("output-dir", "", "CSV output directory")
	spreadsheetID := flag.String("spreadsheet-id", "", "Google Sheets spreadsheet id (empty disables the sheet sink)")
	credentialsPath := flag.String("credentials", "", "Service account credentials file for the sheet sink")
	sheetRange := flag.String("sheet-range", "", "Target range for the sheet sink")
	databaseURL := flag.String("db-url", "", "Database DSN (empty disables the relational sink)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		if err := cfg.MergeFile(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "config file: %v\n", err)
			os.Exit(1)
		}
	}
	if err := applyEnv(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "base-url":
			cfg.BaseURL = *baseURL
		case "pagination-url":
			cfg.PaginationURL = *paginationURL
		case "start-page":
			cfg.StartPage = *startPage
		case "delay":
			cfg.Delay = time.Duration(*delayMs) * time.Millisecond
		case "exchange-rate":
			cfg.ExchangeRate = *exchangeRate
		case "output":
			cfg.OutputFile = *outputFile
		case "output-dir":
			cfg.OutputDir = *outputDir
		case "spreadsheet-id":
			cfg.SpreadsheetID = *spreadsheetID
		case "credentials":
			cfg.CredentialsPath = *credentialsPath
		case "sheet-range":
			cfg.SpreadsheetRange = *sheetRange
		case "db-url":
			cfg.DatabaseURL = *databaseURL
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		case "v":
			cfg.Verbose = *verbose
		}
	})

	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting run",
		slog.String("base_url", cfg.BaseURL),
		slog.Int("start_page", cfg.StartPage),
		slog.Float64("exchange_rate", cfg.ExchangeRate),
	)

	metrics := scraper.NewMetrics()
	fetcher, err := scraper.NewFetcher(cfg, metrics)
	if err != nil {
		slog.Error("initialising fetcher", slog.Any("error", err))
		os.Exit(1)
	}
	walker := scraper.NewWalker(fetcher, metrics)
	normalizer := transform.New(cfg.ExchangeRate, cfg.DedupeMaxSize)
	p := pipeline.New(walker, normalizer, buildSinks(cfg), metrics, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, finishing current page")
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	result, err := p.Run(ctx)
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if serr := metricsServer.Shutdown(shutdownCtx); serr != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", serr))
		}
		cancel()
	}
	if err != nil {
		slog.Error("run failed", slog.Any("error", err))
		os.Exit(1)
	}

	printSummary(result)
}

func applyEnv(cfg *config.Config) error {
	if value, ok := config.EnvString("SCRAPER_BASE_URL"); ok {
		cfg.BaseURL = value
	}
	if value, ok := config.EnvString("SCRAPER_PAGINATION_URL"); ok {
		cfg.PaginationURL = value
	}
	if value, ok, err := config.EnvInt("SCRAPER_START_PAGE"); err != nil {
		return err
	} else if ok {
		cfg.StartPage = value
	}
	if value, ok, err := config.EnvInt("SCRAPER_DELAY_MS"); err != nil {
		return err
	} else if ok {
		cfg.Delay = time.Duration(value) * time.Millisecond
	}
	if value, ok, err := config.EnvFloat("SCRAPER_EXCHANGE_RATE"); err != nil {
		return err
	} else if ok {
		cfg.ExchangeRate = value
	}
	if value, ok := config.EnvString("SCRAPER_OUTPUT"); ok {
		cfg.OutputFile = value
	}
	if value, ok := config.EnvString("SCRAPER_OUTPUT_DIR"); ok {
		cfg.OutputDir = value
	}
	if value, ok := config.EnvString("SCRAPER_SPREADSHEET_ID"); ok {
		cfg.SpreadsheetID = value
	}
	if value, ok := config.EnvString("SCRAPER_CREDENTIALS"); ok {
		cfg.CredentialsPath = value
	}
	if value, ok := config.EnvString("SCRAPER_SHEET_RANGE"); ok {
		cfg.SpreadsheetRange = value
	}
	if value, ok := config.EnvString("SCRAPER_DB_URL"); ok {
		cfg.DatabaseURL = value
	}
	if value, ok := config.EnvString("SCRAPER_METRICS_ADDR"); ok {
		cfg.MetricsAddr = value
	}
	return nil
}

func buildSinks(cfg *config.Config) []pipeline.Sink {
	var sinks []pipeline.Sink
	if cfg.OutputFile != "" {
		sinks = append(sinks, pipeline.NewCSVSink(cfg.OutputFile, cfg.OutputDir))
	}
	if cfg.SpreadsheetID != "" {
		sinks = append(sinks, pipeline.NewSheetsSink(cfg.SpreadsheetID, cfg.CredentialsPath, cfg.SpreadsheetRange))
	}
	if cfg.DatabaseURL != "" {
		sinks = append(sinks, pipeline.NewSQLSink(cfg.DatabaseURL))
	}
	return sinks
}

func printSummary(result *models.RunResult) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Run complete")
	fmt.Printf("  Pages fetched:  %d\n", result.PageCount)
	fmt.Printf("  Fetch errors:   %d\n", result.ErrorCount)
	if len(result.FailedURLs) > 0 {
		fmt.Printf("  Failed URLs:    %v\n", result.FailedURLs)
	}
	fmt.Printf("  Raw records:    %d\n", result.RawCount)
	fmt.Printf("  Duplicates:     %d\n", result.Duplicates)
	fmt.Printf("  Incomplete:     %d\n", result.Incomplete)
	fmt.Printf("  Clean records:  %d\n", result.CleanCount)
	if len(result.SinkFailures) > 0 {
		fmt.Printf("  Failed sinks:   %v\n", result.SinkFailures)
	}
	fmt.Printf("  Duration:       %v\n", result.EndTime.Sub(result.StartTime))
	fmt.Println(separator)
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
