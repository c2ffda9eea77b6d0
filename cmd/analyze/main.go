package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"aerodrome-lp-lab/internal/dataset"
	"aerodrome-lp-lab/internal/domain"
	"aerodrome-lp-lab/internal/metrics"
	"aerodrome-lp-lab/internal/reporting"
	pgstore "aerodrome-lp-lab/internal/storage/postgres"
)

// expectedStructure is shown when the dataset file is missing.
const expectedStructure = `{
  "actions": [
    {
      "timestamp": "2025-09-04T...",
      "event": "IncreaseLiquidity" or "DecreaseLiquidity",
      "cbbtc": 0.00207616,
      "usdc": 1641.79,
      "cash_flow": -1840.15,
      "tx": "0x..."
    },
    ...
  ]
}`

func main() {
	// Parse flags
	dataFile := flag.String("data-file", "", "Position dataset JSON file (default: full_example_data.json if exists)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string to read actions from the archive instead of a file")
	wallet := flag.String("wallet", "", "Wallet address (archive key with -postgres-dsn, display label otherwise)")
	format := flag.String("format", "summary", "Output format: text, json or summary")
	exportCSV := flag.String("export-csv", "", "Write the analyzed actions as CSV to this path")
	flag.Parse()

	ctx := context.Background()

	// Validate flags
	switch *format {
	case "text", "json", "summary":
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid format %q (choose text, json or summary)\n", *format)
		os.Exit(1)
	}
	if *postgresDSN != "" && *wallet == "" {
		fmt.Fprintln(os.Stderr, "Error: -wallet is required when reading from the archive")
		os.Exit(1)
	}

	// Load position data from the archive or a dataset file
	var (
		data *domain.PositionData
		err  error
	)
	if *postgresDSN != "" {
		data, err = loadFromArchive(ctx, *postgresDSN, *wallet)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading archive: %v\n", err)
			os.Exit(1)
		}
	} else {
		path := resolveDataFile(*dataFile)
		data, err = dataset.Load(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(os.Stderr, "Error: Data file '%s' not found\n", path)
				fmt.Fprintln(os.Stderr, "\nExpected JSON structure:")
				fmt.Fprintln(os.Stderr, expectedStructure)
			} else {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			os.Exit(1)
		}
	}

	var opts []metrics.AnalyzerOption
	if *wallet != "" {
		opts = append(opts, metrics.WithWalletLabel(*wallet))
	}

	m, err := metrics.NewAnalyzer(data, opts...).Analyze()
	if err != nil {
		if errors.Is(err, metrics.ErrNoActions) || errors.Is(err, metrics.ErrNoPriceData) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fmt.Fprintln(os.Stderr, "\nTip: Ensure your data has non-zero 'cbbtc' values to calculate BTC prices.")
		} else {
			fmt.Fprintf(os.Stderr, "Error analyzing data: %v\n", err)
		}
		os.Exit(1)
	}

	switch *format {
	case "json":
		out, err := reporting.RenderJSON(m)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering report: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(out)
	case "text":
		fmt.Print(reporting.RenderText(m))
	default:
		fmt.Print(reporting.RenderSummary(m))
	}

	if *exportCSV != "" {
		if err := writeCSV(*exportCSV, data.Actions); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting CSV: %v\n", err)
			os.Exit(1)
		}
		// Keep stdout clean for piped report output
		fmt.Fprintf(os.Stderr, "Actions CSV written to %s\n", *exportCSV)
	}
}

// resolveDataFile applies the default dataset file chain when no explicit
// path was given.
func resolveDataFile(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if _, err := os.Stat("full_example_data.json"); err == nil {
		return "full_example_data.json"
	}
	return "xirr_from_receipts.json"
}

// loadFromArchive reads a wallet's actions back from PostgreSQL.
func loadFromArchive(ctx context.Context, dsn, wallet string) (*domain.PositionData, error) {
	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	actions, err := pgstore.NewActionStore(pool).GetByWallet(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("load actions for %s: %w", wallet, err)
	}

	data := &domain.PositionData{
		Wallet:  wallet,
		Actions: make([]domain.Action, 0, len(actions)),
	}
	for _, a := range actions {
		data.Actions = append(data.Actions, *a)
	}
	return data, nil
}

// writeCSV dumps the actions to a CSV file.
func writeCSV(path string, actions []domain.Action) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := reporting.WriteActionsCSV(f, actions); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
