package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ledgermatch/dedup-backend/internal/application/service"
	"github.com/ledgermatch/dedup-backend/internal/domain/dedup"
	"github.com/ledgermatch/dedup-backend/internal/importer"
	"github.com/ledgermatch/dedup-backend/internal/infrastructure/config"
	"github.com/ledgermatch/dedup-backend/internal/infrastructure/logging"
	"github.com/ledgermatch/dedup-backend/internal/infrastructure/storage"
	"github.com/ledgermatch/dedup-backend/internal/verifier"
)

func main() {
	var (
		configFile = flag.String("config", "", "Configuration file path")
		csvPath    = flag.String("csv", "", "CSV file with incoming transactions (required)")
		accountID  = flag.String("account", "default", "Account to dedup against")
		preview    = flag.Bool("preview", false, "Deterministic tier only, skip semantic verification")
		seed       = flag.Bool("seed", false, "Import the CSV as known transactions instead of deduping")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if *csvPath == "" {
		fmt.Fprintln(os.Stderr, "usage: dedup -csv <statement.csv> [-account <id>] [-preview|-seed]")
		os.Exit(2)
	}

	cfg := loadConfig(*configFile)
	if *verbose {
		cfg.Observability.Logging.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "dedup-cli")

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("failed to initialize storage", "path", cfg.Storage.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	records, err := loadCSV(*csvPath, logger)
	if err != nil {
		logger.Error("failed to parse CSV", "path", *csvPath, "error", err)
		os.Exit(1)
	}
	if len(records) == 0 {
		logger.Warn("no parseable transactions in CSV", "path", *csvPath)
		return
	}

	var v verifier.Verifier
	if !*preview && cfg.OpenAI.APIKey != "" {
		v = verifier.NewOpenAIVerifier(verifier.NewRealChatClient(cfg.OpenAI.APIKey), cfg.OpenAI.Model)
	}

	svc := service.NewDedupService(cfg, store, v, logger)

	if *seed {
		saved, err := svc.ImportKnown(*accountID, "csv_import", records)
		if err != nil {
			logger.Error("import failed", "saved", saved, "error", err)
			os.Exit(1)
		}
		fmt.Printf("Imported %d transactions into account %s\n", saved, *accountID)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var result *dedup.RunResult
	if *preview {
		result, err = svc.Preview(*accountID, records)
	} else {
		result, _, err = svc.Run(ctx, *accountID, records)
	}
	if err != nil {
		logger.Error("dedup failed", "error", err)
		os.Exit(1)
	}

	printResult(result)
}

func loadConfig(path string) *config.Config {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config %s: %v\n", path, err)
			os.Exit(1)
		}
		return cfg
	}
	return config.LoadOrEnv()
}

func loadCSV(path string, logger *slog.Logger) ([]dedup.TransactionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	parsed, err := importer.ParseCSV(f)
	if err != nil {
		return nil, err
	}
	for _, rowErr := range parsed.RowErrors {
		logger.Warn("skipped CSV row", "line", rowErr.Line, "reason", rowErr.Reason)
	}
	return parsed.Records, nil
}

func printResult(result *dedup.RunResult) {
	fmt.Printf("Processed %d transactions in %s\n", result.Stats.TotalIncoming, result.Stats.Elapsed.Round(time.Millisecond))
	fmt.Printf("  Unique:     %d\n", result.Stats.UniqueCount)
	fmt.Printf("  Duplicates: %d (tier1: %d, tier2: %d)\n",
		result.Stats.DuplicateCount, result.Stats.Tier1Matches, result.Stats.Tier2Matches)

	for _, d := range result.Duplicates {
		fmt.Printf("  DUP  %-40s -> %-40s  (%.2f, tier %d)\n",
			truncate(d.Incoming.Description, 40), truncate(d.Matched.Description, 40), d.Confidence, d.Tier)
	}
	for _, u := range result.Unique {
		if u.Confidence < 1 {
			fmt.Printf("  ?    %-40s  kept unique at reduced confidence (%.2f)\n",
				truncate(u.Record.Description, 40), u.Confidence)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
