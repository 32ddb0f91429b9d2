package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/leapscreener/internal/strategyconfig"
)

// strategyCmd represents the strategy command
var strategyCmd = &cobra.Command{
	Use:   "strategy",
	Short: "Show or validate screening thresholds",
	Long: `Screening thresholds, sanity rules, option parameters and score
weights live in a strategy YAML. Omitted fields keep the built-in defaults.

Example:
  go run ./cmd/leapscreener strategy show
  go run ./cmd/leapscreener strategy validate config/strategy/leap_default.yaml`,
}

var (
	strategyShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the effective strategy and its hash",
		RunE:  runStrategyShow,
	}

	strategyValidateCmd = &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a strategy file",
		Args:  cobra.ExactArgs(1),
		RunE:  runStrategyValidate,
	}
)

func init() {
	rootCmd.AddCommand(strategyCmd)
	strategyCmd.AddCommand(strategyShowCmd, strategyValidateCmd)
}

func runStrategyShow(cmd *cobra.Command, args []string) error {
	cfg, err := strategyconfig.LoadOrDefault(strategyFile)
	if err != nil {
		return err
	}

	data, err := strategyconfig.Marshal(cfg)
	if err != nil {
		return err
	}
	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# hash: %s\n", hash)
	fmt.Fprint(out, string(data))
	return nil
}

func runStrategyValidate(cmd *cobra.Command, args []string) error {
	cfg, _, err := strategyconfig.Load(args[0])
	if err != nil {
		return fmt.Errorf("❌ %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	for _, w := range strategyconfig.Warn(cfg) {
		fmt.Fprintf(out, "⚠️  %s: %s\n", w.Code, w.Message)
	}

	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✅ %s is valid (hash %s)\n", args[0], hash[:12])
	return nil
}
