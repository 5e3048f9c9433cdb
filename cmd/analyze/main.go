// Package main provides the wallet analysis entry point.
// Executes: load history → dust filter → chunk → narrate → report.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"wallet-chronicle/internal/analyzer"
	"wallet-chronicle/internal/config"
	"wallet-chronicle/internal/llm"
	"wallet-chronicle/internal/observability"
	"wallet-chronicle/internal/storage"
	"wallet-chronicle/internal/storage/file"
	"wallet-chronicle/internal/storage/migrations"
	"wallet-chronicle/internal/storage/postgres"
)

func main() {
	// .env is optional; real environment variables win either way.
	_ = godotenv.Load()

	wallet := flag.String("wallet", "", "Wallet address to analyze (required)")
	apiKey := flag.String("api-key", os.Getenv("OPENROUTER_API_KEY"), "OpenRouter API key")
	dataDir := flag.String("data-dir", "data", "Directory with <wallet>.json histories")
	reportsDir := flag.String("reports-dir", "reports", "Directory for reports and checkpoints")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string (empty for file storage)")
	from := flag.String("from", "", "Analysis period start (YYYY-MM-DD)")
	to := flag.String("to", "", "Analysis period end (YYYY-MM-DD, inclusive)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")
	showReport := flag.Bool("show-report", false, "Print the stored report after the run")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	if *wallet == "" {
		fmt.Fprintln(os.Stderr, "Error: -wallet is required")
		flag.Usage()
		os.Exit(1)
	}
	if *apiKey == "" {
		fmt.Fprintln(os.Stderr, "Error: specify OPENROUTER_API_KEY in the environment or .env file")
		os.Exit(1)
	}

	period, err := parsePeriod(*from, *to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal %v, stopping after the current chunk...\n", sig)
		cancel()
	}()

	cfg := config.FromEnv()
	logger := log.New(os.Stderr, "", log.LstdFlags)

	var metrics *observability.Metrics
	if *metricsAddr != "" {
		metrics = observability.NewMetrics("")
		go func() {
			http.Handle("/metrics", observability.Handler())
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				logger.Printf("[main] metrics server: %v", err)
			}
		}()
	}

	var clientOpts []llm.ClientOption
	if metrics != nil {
		clientOpts = append(clientOpts, llm.WithRetryHook(metrics.LLMRetries.Inc))
	}
	client := llm.NewOpenRouterClient(*apiKey, cfg.Model, clientOpts...)

	states, reports, cleanup, err := buildStores(ctx, *postgresDSN, *reportsDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	runner, err := analyzer.NewRunner(analyzer.Options{
		Transactions: file.NewTransactionStore(*dataDir),
		States:       states,
		Reports:      reports,
		LLM:          client,
		Config:       cfg,
		Metrics:      metrics,
		Logger:       logger,
		Verbose:      *verbose,
		Progress: func(chunk, total, percent int) {
			fmt.Printf("\rChunk %d/%d (%d%%)", chunk, total, percent)
			if percent == 100 {
				fmt.Println()
			}
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	result, err := runner.Analyze(ctx, *wallet, period)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nAnalysis failed: %v\n", err)
		fmt.Fprintln(os.Stderr, "Progress has been checkpointed; run again to continue.")
		os.Exit(1)
	}

	switch {
	case result.Migrated:
		fmt.Println("State migrated to the keyed format. No new transactions found.")
	case result.NewTransactions == 0:
		fmt.Println("No new transactions found.")
	default:
		fmt.Printf("Analysis completed: %d transactions in %d chunks.\n",
			result.NewTransactions, result.TotalChunks)
	}

	if rr, ok := reports.(reportReader); ok && *showReport {
		report, err := rr.Report(ctx, *wallet)
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Println("No report stored for this wallet.")
		} else if err != nil {
			fmt.Fprintf(os.Stderr, "Error: read report: %v\n", err)
			os.Exit(1)
		} else {
			fmt.Println()
			fmt.Println(report)
		}
	}
}

// reportReader is the read side both persistence backends implement.
type reportReader interface {
	Report(ctx context.Context, wallet string) (string, error)
}

// buildStores selects the persistence backend: PostgreSQL when a DSN is
// given, the reports directory otherwise. Transaction histories always
// come from collector files.
func buildStores(ctx context.Context, dsn, reportsDir string) (storage.StateStore, storage.ReportStore, func(), error) {
	if dsn == "" {
		return file.NewStateStore(reportsDir), file.NewReportStore(reportsDir), func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("apply migrations: %w", err)
	}
	return postgres.NewStateStore(pool), postgres.NewReportStore(pool), pool.Close, nil
}

func parsePeriod(from, to string) (analyzer.Period, error) {
	var period analyzer.Period
	if from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return period, fmt.Errorf("invalid -from date %q", from)
		}
		period.From = &t
	}
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return period, fmt.Errorf("invalid -to date %q", to)
		}
		period.To = &t
	}
	return period, nil
}
