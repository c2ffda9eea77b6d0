package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aerodrome-lp-lab/internal/basescan"
	"aerodrome-lp-lab/internal/dataset"
	"aerodrome-lp-lab/internal/ingestion"
	"aerodrome-lp-lab/internal/observability"
	"aerodrome-lp-lab/internal/storage"
	chstore "aerodrome-lp-lab/internal/storage/clickhouse"
	"aerodrome-lp-lab/internal/storage/memory"
	"aerodrome-lp-lab/internal/storage/migrations"
	pgstore "aerodrome-lp-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	wallet := flag.String("wallet", "", "Wallet address to fetch position history for")
	apiKey := flag.String("api-key", os.Getenv("BASESCAN_API_KEY"), "Basescan API key (or set BASESCAN_API_KEY)")
	startBlock := flag.Int64("start-block", 0, "Start block for fetching (0 for earliest)")
	endBlock := flag.Int64("end-block", 0, "End block for fetching (0 for latest)")
	out := flag.String("out", "", "Output dataset path (default lp_data_<wallet prefix>.json)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string for the action archive")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for the swap sample archive")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage even when DSNs are set")
	pause := flag.Duration("pause", 0, "Pause before each receipt lookup (0 for the 200ms default, negative to disable)")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[fetch] ", log.LstdFlags|log.Lshortfile)

	if *wallet == "" {
		logger.Fatal("No wallet specified. Use -wallet")
	}
	if *apiKey == "" {
		logger.Fatal("Basescan API key required. Pass -api-key or set BASESCAN_API_KEY (free keys at https://basescan.org/apis)")
	}

	outPath := *out
	if outPath == "" {
		outPath = defaultOutPath(*wallet)
	}

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel to signal main goroutine completion
	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	err := runFetch(ctx, logger, fetchConfig{
		Wallet:        *wallet,
		APIKey:        *apiKey,
		StartBlock:    *startBlock,
		EndBlock:      *endBlock,
		OutPath:       outPath,
		PostgresDSN:   *postgresDSN,
		ClickHouseDSN: *clickhouseDSN,
		UseMemory:     *useMemory,
		Pause:         *pause,
	})

	// Signal completion to shutdown handler
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Done")
}

// fetchConfig carries resolved flag values into runFetch.
type fetchConfig struct {
	Wallet        string
	APIKey        string
	StartBlock    int64
	EndBlock      int64
	OutPath       string
	PostgresDSN   string
	ClickHouseDSN string
	UseMemory     bool
	Pause         time.Duration
}

// runFetch wires the client and stores, rebuilds the position history and
// writes the dataset file.
func runFetch(ctx context.Context, logger *log.Logger, cfg fetchConfig) error {
	client := basescan.NewClient(cfg.APIKey)

	// Create stores (use interfaces)
	var actionStore storage.ActionStore = memory.NewActionStore()
	var sampleStore storage.SwapSampleStore = memory.NewSwapSampleStore()

	if !cfg.UseMemory && cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}

		actionStore = pgstore.NewActionStore(pool)
		logger.Println("Archiving actions to PostgreSQL")
	}

	if !cfg.UseMemory && cfg.ClickHouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
		if err != nil {
			return fmt.Errorf("migrate clickhouse: %w", err)
		}
		defer conn.Close()

		sampleStore = chstore.NewSwapSampleStore(conn)
		logger.Println("Archiving swap samples to ClickHouse")
	}

	fetcher := ingestion.NewFetcher(ingestion.FetcherOptions{
		Client:      client,
		ActionStore: actionStore,
		SampleStore: sampleStore,
		Pause:       cfg.Pause,
		Logger:      logger,
	})

	data, _, err := fetcher.FetchPosition(ctx, cfg.Wallet, cfg.StartBlock, cfg.EndBlock)
	if err != nil {
		return err
	}

	if err := dataset.Save(cfg.OutPath, data); err != nil {
		return err
	}
	logger.Printf("Data saved to: %s", cfg.OutPath)

	return nil
}

// defaultOutPath names the dataset file after the wallet's address prefix.
func defaultOutPath(wallet string) string {
	tag := wallet
	if len(tag) > 8 {
		tag = tag[:8]
	}
	return fmt.Sprintf("lp_data_%s.json", tag)
}
