// Package main provides the inspect command-line tool: it scrapes a single
// (maz, taz) pair and prints the resulting table window for eyeballing.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ogyscraper/internal/config"
	"ogyscraper/internal/election"
	"ogyscraper/internal/fetch"
	"ogyscraper/internal/logger"
	"ogyscraper/internal/pipeline"
	"ogyscraper/internal/preview"
	"ogyscraper/internal/refdata"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration file")
	maz := flag.Int("maz", 0, "Administrative area code")
	taz := flag.Int("taz", 0, "Sub-area code")
	which := flag.String("table", "results", "Table to print: results or info")
	maxRows := flag.Int("rows", preview.DefaultOptions.MaxRows, "Maximum rows to print")
	maxCols := flag.Int("cols", preview.DefaultOptions.MaxColumns, "Maximum columns to print")
	flag.Parse()

	if *maz <= 0 || *taz <= 0 {
		log.Fatal("❌ Both -maz and -taz are required, e.g. -maz 1 -taz 4")
	}

	if *which != "results" && *which != "info" {
		log.Fatalf("❌ Unknown table %q: want results or info\n", *which)
	}

	cfg := config.Default()

	if *configFile != "" {
		loaded, err := config.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("❌ Failed to load config: %v\n", err)
		}

		cfg = loaded
	}

	lg := logger.New(cfg.Scraper.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := fetch.New(&cfg.Scraper.Retry, lg)

	fmt.Printf("📚 Loading reference documents for pair %d-%d...\n", *maz, *taz)

	loader := refdata.NewLoader(fetcher, cfg.Scraper.Sources.ReferenceBase, lg)
	ref := loader.Load(ctx)

	// Restrict the run to the requested pair; candidate and list reference
	// stays national so party names and constituency ids match full runs.
	ref.Municipalities = []election.Municipality{
		{Maz: election.Code(*maz), Taz: election.Code(*taz)},
	}

	agg := pipeline.New(&cfg.Scraper, fetcher, lg)

	out, err := agg.Run(ctx, ref)
	if err != nil {
		log.Fatalf("❌ Scrape aborted: %v\n", err)
	}

	if out.Empty() {
		fmt.Printf("⚠️  No station document available for pair %d-%d\n", *maz, *taz)

		return
	}

	tbl := out.Results
	if *which == "info" {
		tbl = out.Info
	}

	fmt.Printf("\n📊 %s for pair %d-%d (%d rows × %d columns):\n\n",
		*which, *maz, *taz, tbl.Len(), len(tbl.Columns()))
	fmt.Print(preview.Render(tbl, preview.Options{MaxRows: *maxRows, MaxColumns: *maxCols}))
}
