package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ndewijer/pnl-tracker/internal/accounting"
	"github.com/ndewijer/pnl-tracker/internal/api/request"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Run one valuation sample and record today's snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		out, err := a.Pipeline.Run(cmd.Context())
		if err != nil {
			return err
		}
		cur := a.Config.Engine.Currency
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s (%s)\n",
			out.Snapshot.Date,
			accounting.FormatMoney(out.Snapshot.TotalValue, cur),
			accounting.FormatSignedMoney(out.Snapshot.DailyChange, cur),
			accounting.FormatPercent(out.Snapshot.DailyChangePercentage))
		for _, f := range out.Aggregation.Failures {
			fmt.Fprintf(cmd.ErrOrStderr(), "source %s unavailable: %s\n", f.Source, f.Error)
		}
		return nil
	},
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print recorded daily snapshots, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyLimit <= 0 || historyLimit > request.MaxHistoryLimit {
			return fmt.Errorf("--limit must be between 1 and %d", request.MaxHistoryLimit)
		}
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		cur := a.Config.Engine.Currency
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tVALUE\tPREVIOUS\tCHANGE\tCHANGE %")
		for _, s := range a.Pipeline.History(historyLimit) {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				s.Date,
				accounting.FormatMoney(s.TotalValue, cur),
				accounting.FormatMoney(s.PreviousValue, cur),
				accounting.FormatSignedMoney(s.DailyChange, cur),
				accounting.FormatPercent(s.DailyChangePercentage))
		}
		return tw.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 30, "Number of days to print")
}
