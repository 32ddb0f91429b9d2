package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/wonny/leapscreener/internal/contracts"
	"github.com/wonny/leapscreener/internal/selection"
)

// failureSampleSize is how many failures are listed when nothing passes
const failureSampleSize = 10

// Options controls report rendering
type Options struct {
	TopN        int
	Criteria    []string // selection.Funnel.Describe()
	GeneratedAt time.Time
}

// Markdown renders the scan as a Markdown report
// ⭐ SSOT: 리포트 포맷
func Markdown(scan *contracts.ScanReport, opts Options) string {
	if opts.TopN < 1 {
		opts.TopN = 1
	}
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}

	ranking := selection.Rank(scan.Results)
	top := ranking.Top(opts.TopN)
	md := scan.Metadata
	stats := ranking.Stats

	var b strings.Builder
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("# LEAP Call Candidate Screening Report")
	line("")
	line("- Generated: %s", opts.GeneratedAt.Format("2006-01-02 15:04:05"))
	line("- Run ID: %s", md.RunID)
	line("- Tickers scanned: %d", md.UniverseSize)
	line("- Passed all three layers: %d (clean %d, flagged %d)", stats.Passed, stats.Clean, stats.Flagged)
	line("- Top N: %d", opts.TopN)
	if md.RequireVolumeSpike {
		line("- Volume spike hard filter: on")
	} else {
		line("- Volume spike hard filter: off (reference only)")
	}
	line("- Elapsed: %.1f s", md.Elapsed.Seconds())
	if md.StrategyHash != "" {
		line("- Strategy: %s", shortHash(md.StrategyHash))
	}
	line("")

	line("## Criteria")
	line("")
	for _, c := range opts.Criteria {
		line("- %s", c)
	}
	line("")

	if len(top) == 0 && len(ranking.Flagged) == 0 {
		line("## Results")
		line("")
		line("No ticker passed all three layers.")
		if failed := selection.Failures(scan.Results, failureSampleSize); len(failed) > 0 {
			line("")
			line("### Failure sample (first %d)", failureSampleSize)
			for _, r := range failed {
				line("- %s: %s", r.Ticker, r.Reason)
			}
		}
		return b.String()
	}

	line("## 🏆 Top %d without sanity flags", opts.TopN)
	line("")
	if len(top) == 0 {
		line("_No candidate passed without sanity flags._")
		line("")
	}
	for i, r := range top {
		writeEntry(&b, i+1, r)
	}

	if len(ranking.Flagged) > 0 {
		line("## ⚠️ Potential candidates with sanity flags (%d)", len(ranking.Flagged))
		line("")
		for i, r := range ranking.Flagged {
			writeEntry(&b, i+1, r)
		}
	}

	line("## Funnel statistics")
	line("")
	line("- Eliminated at Layer 1: %d", stats.Layer1Failed)
	line("- Eliminated at Layer 2: %d", stats.Layer2Failed)
	line("- Eliminated at Layer 3: %d", stats.Layer3Failed)
	line("- Data errors / processing failures: %d", stats.ProcessingFailed)
	line("")
	line("---")
	line("Note: IV Rank is a proxy computed from the ATM implied volatility range across the currently listed long-dated expirations, not a historical IV rank.")

	return b.String()
}

func writeEntry(b *strings.Builder, i int, r contracts.ScreeningResult) {
	ev := r.Evidence
	if ev == nil {
		ev = &contracts.TickerEvidence{}
	}
	q := r.Option
	if q == nil {
		q = &contracts.OptionQuote{}
	}

	fmt.Fprintf(b, "### #%d %s | Composite score: **%.2f**\n", i, r.Ticker, r.Score)
	fmt.Fprintf(b, "- Price: %s\n", money(ev.Price))
	fmt.Fprintf(b, "- Fundamentals: revenue YoY %s, EPS growth (quarterly YoY) %s, EPS growth (forward) %s, TTM EPS %s, forward EPS %s\n",
		pct(ev.RevenueGrowth), pct(ev.QuarterlyEPSGrowth), pct(ev.ForwardEPSGrowth), num(ev.TrailingEPS, 2), num(ev.ForwardEPS, 2))

	peg := num(ev.PEG, 2)
	if ev.PEGSource == contracts.PEGSourceTrailing {
		peg += " (trailing)"
	}
	fmt.Fprintf(b, "- Valuation: PEG %s, market cap %s, upside %s\n", peg, money(ev.MarketCap), pct(ev.Upside))
	fmt.Fprintf(b, "- Technicals: RSI(14) %s, from 52-week high %s%%, volume ratio (today / 20-day avg) %s\n",
		num(ev.RSI14, 2), num(ev.Drawdown52W, 2), num(ev.VolumeRatio, 2))

	expiry := q.Expiration
	if expiry == "" {
		expiry = "N/A"
	}
	fmt.Fprintf(b, "- LEAP pick: expiration **%s**, strike **%s**, bid/ask %s/%s, spread %s%%\n",
		expiry, money(q.Strike), num(q.Bid, 2), num(q.Ask, 2), num(q.SpreadPct, 2))

	move := "N/A"
	if v, ok := q.RequiredMove2xPct.Get(); ok {
		move = fmt.Sprintf("%.1f%%", v)
	}
	fmt.Fprintf(b, "- Option metrics: IV rank (proxy) %s, move required to double %s\n", num(q.IVRank, 1), move)

	if len(ev.SanityFlags) > 0 {
		fmt.Fprintf(b, "- ⚠️ Sanity flags: %s\n", strings.Join(ev.SanityFlags, "; "))
	}
	b.WriteByte('\n')
}

func pct(f contracts.Field) string {
	v, ok := f.Get()
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", v*100)
}

func num(f contracts.Field, digits int) string {
	v, ok := f.Get()
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%.*f", digits, v)
}

func money(f contracts.Field) string {
	v, ok := f.Get()
	if !ok {
		return "N/A"
	}
	switch {
	case math.Abs(v) >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case math.Abs(v) >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	default:
		return fmt.Sprintf("$%.2f", v)
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
