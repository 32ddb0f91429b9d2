package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// universeCmd represents the universe command
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Inspect the scan universe and manage the watchlist",
	Long: `Inspect the default universe (S&P 500 + Nasdaq-100 + watchlist)
and maintain the optional PostgreSQL watchlist.

Subcommands:
  list     - print the universe the scan would use
  watch    - add symbols to the watchlist
  unwatch  - deactivate watchlist symbols

Example:
  go run ./cmd/leapscreener universe list
  go run ./cmd/leapscreener universe watch PLTR SHOP --note "growth"
  go run ./cmd/leapscreener universe unwatch SHOP`,
}

var (
	universeListCmd = &cobra.Command{
		Use:   "list",
		Short: "Print the universe",
		RunE:  runUniverseList,
	}

	universeWatchCmd = &cobra.Command{
		Use:   "watch SYMBOL...",
		Short: "Add symbols to the watchlist",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runUniverseWatch,
	}

	universeUnwatchCmd = &cobra.Command{
		Use:   "unwatch SYMBOL...",
		Short: "Deactivate watchlist symbols",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runUniverseUnwatch,
	}
)

var watchNote string

func init() {
	rootCmd.AddCommand(universeCmd)
	universeCmd.AddCommand(universeListCmd, universeWatchCmd, universeUnwatchCmd)

	universeWatchCmd.Flags().StringVar(&watchNote, "note", "", "free-form note stored with the symbols")
}

func runUniverseList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	u, err := a.universeBuilder(nil).Build(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	names := make([]string, 0, len(u.Sources))
	for name := range u.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "# %s: %d\n", name, u.Sources[name])
	}
	fmt.Fprintf(out, "# total: %d\n", u.Count())
	fmt.Fprintln(out, strings.Join(u.Tickers, "\n"))
	return nil
}

func runUniverseWatch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	repo, err := a.watchlist(ctx)
	if err != nil {
		return err
	}

	n, err := repo.Add(ctx, args, watchNote)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ %d symbol(s) on watchlist\n", n)
	return nil
}

func runUniverseUnwatch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	repo, err := a.watchlist(ctx)
	if err != nil {
		return err
	}

	n, err := repo.Deactivate(ctx, args)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ %d symbol(s) deactivated\n", n)
	return nil
}
