package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/leapscreener/internal/report"
	"github.com/wonny/leapscreener/internal/s1_universe"
	"github.com/wonny/leapscreener/internal/scan"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one screening pass and print the report",
	Long: `Build the universe, evaluate every ticker through the three layers
and print a Markdown report (or JSON with --json).

Progress is logged to stderr; the report goes to stdout or --output.

Example:
  go run ./cmd/leapscreener scan
  go run ./cmd/leapscreener scan --tickers AAPL,NVDA,AMD --top 5
  go run ./cmd/leapscreener scan --require-volume-spike --workers 4 --json --output scan.json`,
	RunE: runScan,
}

var (
	scanTickers            string
	scanTop                int
	scanRequireVolumeSpike bool
	scanWorkers            int
	scanJSON               bool
	scanOutput             string
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanTickers, "tickers", "", "comma separated tickers (default: S&P 500 + Nasdaq-100)")
	scanCmd.Flags().IntVar(&scanTop, "top", 0, "number of clean candidates to list (default SCAN_TOP)")
	scanCmd.Flags().BoolVar(&scanRequireVolumeSpike, "require-volume-spike", false, "make the volume spike a hard Layer 2 filter")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "concurrent tickers (default SCAN_WORKERS)")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "emit JSON instead of Markdown")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "write the report to a file instead of stdout")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	var explicit []string
	if scanTickers != "" {
		explicit = s1_universe.ParseTickerList(scanTickers)
	}

	universe, err := a.universeBuilder(explicit).Build(ctx)
	if err != nil {
		return fmt.Errorf("build universe: %w", err)
	}

	requireSpike := a.cfg.Scan.RequireVolumeSpike || a.strategy.Technical.RequireVolumeSpike
	if cmd.Flags().Changed("require-volume-spike") {
		requireSpike = scanRequireVolumeSpike
	}
	workers := a.cfg.Scan.Workers
	if scanWorkers > 0 {
		workers = scanWorkers
	}
	top := a.cfg.Scan.TopN
	if scanTop > 0 {
		top = scanTop
	}

	result, err := a.runner(workers, requireSpike).Run(ctx, universe.Tickers)
	if errors.Is(err, scan.ErrEmptyUniverse) {
		return fmt.Errorf("no usable tickers, check network or --tickers: %w", err)
	}
	if err != nil {
		return err
	}

	opts := report.Options{
		TopN:        top,
		Criteria:    a.funnel.Describe(),
		GeneratedAt: time.Now(),
	}

	var out []byte
	if scanJSON {
		out, err = report.JSON(result, opts)
		if err != nil {
			return err
		}
	} else {
		out = []byte(report.Markdown(result, opts))
	}

	return writeOutput(cmd, scanOutput, out)
}

// writeOutput writes to path, or to the command's stdout when path is empty
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", path)
	return nil
}
