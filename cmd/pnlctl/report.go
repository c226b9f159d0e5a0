package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ndewijer/pnl-tracker/internal/accounting"
	"github.com/ndewijer/pnl-tracker/internal/model"
)

var (
	reportPlain bool
	reportStyle string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run a valuation sample and print positions and balances",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.Pipeline.Run(cmd.Context()); err != nil {
			return err
		}
		summary, err := a.Pipeline.Summary()
		if err != nil {
			return err
		}

		md := reportMarkdown(summary, a.Pipeline.Positions())
		styled := !reportPlain && term.IsTerminal(int(os.Stdout.Fd()))
		return writeReport(cmd.OutOrStdout(), md, styled, reportStyle)
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportPlain, "plain", false, "Print raw markdown even on a terminal")
	reportCmd.Flags().StringVar(&reportStyle, "style", "dark", "Glamour style for terminal output (dark, light, notty)")
}

// writeReport prints md, rendered through glamour when styled.
func writeReport(w io.Writer, md string, styled bool, style string) error {
	if !styled {
		_, err := io.WriteString(w, md)
		return err
	}
	out, err := glamour.Render(md, style)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// reportMarkdown lays out the summary, the per-asset positions and the
// aggregated balances as markdown tables.
func reportMarkdown(s model.PortfolioSummary, positions []model.Position) string {
	cur := s.Currency
	var b strings.Builder

	fmt.Fprintf(&b, "# Portfolio %s\n\n", s.Display.TotalValue)
	fmt.Fprintf(&b, "- Today: %s (%s)\n", s.Display.DailyChange, s.Display.DailyPct)
	fmt.Fprintf(&b, "- Invested: %s\n", accounting.FormatMoney(s.Invested, cur))
	fmt.Fprintf(&b, "- PnL: %s (%s)\n", s.Display.PnL, accounting.FormatPercent(s.PnLPercentage))
	if !s.UpdatedAt.IsZero() {
		fmt.Fprintf(&b, "- Updated: %s\n", s.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	if len(positions) > 0 {
		b.WriteString("\n## Positions\n\n")
		b.WriteString("| Symbol | Amount | Avg cost | Price | Value | PnL | PnL % |\n")
		b.WriteString("|---|---:|---:|---:|---:|---:|---:|\n")
		for _, p := range positions {
			fmt.Fprintf(&b, "| %s | %g | %s | %s | %s | %s | %s |\n",
				p.Symbol, p.Amount,
				accounting.FormatMoney(p.AverageCost, cur),
				accounting.FormatMoney(p.CurrentPrice, cur),
				accounting.FormatMoney(p.CurrentValue, cur),
				accounting.FormatSignedMoney(p.PnL, cur),
				accounting.FormatPercent(p.PnLPercentage))
		}
	}

	if len(s.Holdings) > 0 {
		b.WriteString("\n## Balances\n\n")
		b.WriteString("| Symbol | Quantity | Value | Sources |\n")
		b.WriteString("|---|---:|---:|---|\n")
		for _, h := range s.Holdings {
			names := make([]string, 0, len(h.Sources))
			for _, src := range h.Sources {
				names = append(names, src.Source)
			}
			fmt.Fprintf(&b, "| %s | %g | %s | %s |\n",
				h.Symbol, h.Quantity, accounting.FormatMoney(h.Value, cur), strings.Join(names, ", "))
		}
	}

	if len(s.Failures) > 0 {
		b.WriteString("\n## Unavailable sources\n\n")
		for _, f := range s.Failures {
			fmt.Fprintf(&b, "- **%s**: %s\n", f.Source, f.Error)
		}
	}
	return b.String()
}
