package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "leapscreener",
	Short: "LEAP call candidate screener",
	Long: `LEAP call candidate screener

Three-layer funnel over US equities:
  Layer 1  fundamentals (growth, PEG, market cap, analyst upside)
  Layer 2  technicals (RSI, drawdown from 52-week high, volume)
  Layer 3  options (long-dated ATM call, spread, IV rank proxy)

Usage:
  go run ./cmd/leapscreener [command]

Examples:
  go run ./cmd/leapscreener scan --tickers AAPL,NVDA,AMD
  go run ./cmd/leapscreener scan --top 20 --require-volume-spike
  go run ./cmd/leapscreener universe list
  go run ./cmd/leapscreener serve
  go run ./cmd/leapscreener strategy show`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML (default: STRATEGY_FILE or built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
