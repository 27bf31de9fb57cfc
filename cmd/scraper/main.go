// Package main provides the scraper command-line tool: it fetches the
// national reference and per-station election documents and writes the two
// flattened output tables.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"

	"ogyscraper/internal/config"
	"ogyscraper/internal/fetch"
	"ogyscraper/internal/logger"
	"ogyscraper/internal/pipeline"
	"ogyscraper/internal/progress"
	"ogyscraper/internal/refdata"
	"ogyscraper/internal/storage"
)

const defaultConfigPath = "configs/scraper.yaml"

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration file")
	testMode := flag.Bool("test", false, "Test mode: only scrape the first pairs (overrides config)")
	pairLimit := flag.Int("limit", 0, "Pair limit for test mode (overrides config)")
	outputDir := flag.String("out", "", "Output directory (overrides config)")
	flag.Parse()

	cfg := loadConfig(*configFile)

	if *testMode {
		cfg.Scraper.TestMode.Enabled = true
	}

	if *pairLimit > 0 {
		cfg.Scraper.TestMode.Enabled = true
		cfg.Scraper.TestMode.PairLimit = *pairLimit
	}

	if *outputDir != "" {
		cfg.Scraper.Output.Dir = *outputDir
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v\n", err)
	}

	lg := logger.New(cfg.Scraper.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := fetch.New(&cfg.Scraper.Retry, lg)

	fmt.Println("📚 Loading reference documents...")

	loader := refdata.NewLoader(fetcher, cfg.Scraper.Sources.ReferenceBase, lg)
	ref := loader.Load(ctx)

	fmt.Printf("✅ Reference loaded: %s municipalities, %s candidates, %s lists\n\n",
		humanize.Comma(int64(len(ref.Municipalities))),
		humanize.Comma(int64(len(ref.Candidates))),
		humanize.Comma(int64(len(ref.Lists))))

	agg := pipeline.New(&cfg.Scraper, fetcher, lg)

	if cfg.Scraper.TestMode.Enabled {
		fmt.Printf("🧪 Test mode: limiting the run to the first %d pairs\n", cfg.Scraper.TestMode.PairLimit)
	}

	bar := progress.NewBar(os.Stdout, cfg.Scraper.Logging.ShowProgress)
	agg.SetProgress(func(done, total int) {
		bar.Update(done, total, "polling station pairs")
	})

	fmt.Println("🚀 Scraping polling station documents...")

	out, err := agg.Run(ctx, ref)

	bar.Finish()

	if err != nil {
		log.Fatalf("❌ Scrape aborted: %v\n", err)
	}

	if out.Empty() {
		fmt.Println("⚠️  No usable station documents were fetched; nothing to write")
		printFetchStats(fetcher)

		return
	}

	fmt.Printf("✅ Scraped %s pairs (%d skipped, %d without results)\n",
		humanize.Comma(int64(out.PairsProcessed)), out.PairsSkipped, out.ResultsMissing)
	fmt.Printf("📊 Results table: %s rows × %d columns\n",
		humanize.Comma(int64(out.Results.Len())), len(out.Results.Columns()))
	fmt.Printf("📋 Info table:    %s rows × %d columns\n\n",
		humanize.Comma(int64(out.Info.Len())), len(out.Info.Columns()))

	writeOutputs(ctx, cfg, lg, out)
	printFetchStats(fetcher)
}

func loadConfig(path string) *config.Config {
	if path != "" {
		fmt.Printf("⚙️  Loading configuration from: %s\n", path)

		cfg, err := config.LoadConfig(path)
		if err != nil {
			log.Fatalf("❌ Failed to load config: %v\n", err)
		}

		return cfg
	}

	if _, err := os.Stat(defaultConfigPath); err == nil {
		fmt.Printf("⚙️  Loading default configuration: %s\n", defaultConfigPath)

		cfg, err := config.LoadConfig(defaultConfigPath)
		if err != nil {
			log.Fatalf("❌ Failed to load default config: %v\n", err)
		}

		return cfg
	}

	fmt.Println("⚙️  No configuration file found, using built-in defaults")

	return config.Default()
}

func writeOutputs(ctx context.Context, cfg *config.Config, lg *logger.Logger, out *pipeline.Output) {
	writers := openWriters(cfg, lg)

	for _, w := range writers {
		if err := w.WriteTable(ctx, "polling_station_results", out.Results); err != nil {
			log.Fatalf("❌ Failed to write results table: %v\n", err)
		}

		if err := w.WriteTable(ctx, "polling_station_info", out.Info); err != nil {
			log.Fatalf("❌ Failed to write info table: %v\n", err)
		}

		if err := w.Close(); err != nil {
			log.Fatalf("❌ Failed to close writer: %v\n", err)
		}
	}

	fmt.Printf("💾 Tables written in %d format(s) under %s\n", len(writers), cfg.Scraper.Output.Dir)

	if cfg.Scraper.Output.SampleDocuments {
		writeSamples(cfg, out)
	}
}

func openWriters(cfg *config.Config, lg *logger.Logger) []storage.Writer {
	var writers []storage.Writer

	if cfg.Scraper.HasFormat("csv") {
		w, err := storage.NewCSVWriter(cfg.Scraper.Output.Dir, lg)
		if err != nil {
			log.Fatalf("❌ Failed to open CSV writer: %v\n", err)
		}

		writers = append(writers, w)
	}

	if cfg.Scraper.HasFormat("sqlite") {
		w, err := storage.NewSQLiteWriter(cfg.Scraper.Output.SQLitePath(), lg)
		if err != nil {
			log.Fatalf("❌ Failed to open SQLite writer: %v\n", err)
		}

		writers = append(writers, w)
	}

	if cfg.Scraper.HasFormat("postgres") {
		w, err := storage.NewPostgresWriter(cfg.Scraper.Output.PostgresDSN, lg)
		if err != nil {
			log.Fatalf("❌ Failed to open Postgres writer: %v\n", err)
		}

		writers = append(writers, w)
	}

	if len(writers) == 0 {
		log.Fatal("❌ No output formats configured")
	}

	return writers
}

func writeSamples(cfg *config.Config, out *pipeline.Output) {
	samples := map[string][]byte{
		"sample_station.json": out.SampleStation,
		"sample_results.json": out.SampleResults,
	}

	for name, body := range samples {
		if body == nil {
			continue
		}

		path := filepath.Join(cfg.Scraper.Output.Dir, name)
		if err := os.WriteFile(path, body, 0o644); err != nil {
			log.Fatalf("❌ Failed to write %s: %v\n", path, err)
		}

		fmt.Printf("🔍 Sample document saved: %s\n", path)
	}
}

func printFetchStats(fetcher *fetch.Fetcher) {
	fmt.Printf("\n📈 %s\n", fetcher.Stats())
}
