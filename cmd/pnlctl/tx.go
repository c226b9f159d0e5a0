package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ndewijer/pnl-tracker/internal/api/request"
	"github.com/ndewijer/pnl-tracker/internal/validation"
)

var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "Manage ledger transactions",
}

var (
	txSymbol string
	txSide   string
	txAmount float64
	txPrice  float64
	txFee    float64
	txDate   string
)

var txAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Append a manual transaction",
	Example: `  pnlctl tx add --symbol BTC --side buy --amount 0.5 --price 42000
  pnlctl tx add --symbol ETH --side sell --amount 1 --price 3100 --fee 2.5 --date 2024-03-01`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		req := request.CreateTransactionRequest{
			Symbol:     txSymbol,
			Side:       txSide,
			Amount:     txAmount,
			UnitPrice:  txPrice,
			Fee:        txFee,
			OccurredAt: txDate,
		}
		if err := validation.ValidateCreateTransaction(req, a.Transactions.Location()); err != nil {
			return err
		}

		t, err := a.Transactions.CreateTransaction(cmd.Context(), req)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %s %s %g %s @ %g\n",
			t.ID, t.Side, t.Amount, t.Symbol, t.UnitPrice)
		return nil
	},
}

var txListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ledger transactions in date order",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tDATE\tSIDE\tSYMBOL\tAMOUNT\tPRICE\tFEE\tSOURCE")
		for _, t := range a.Transactions.GetTransactions(txSymbol) {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%g\t%g\t%g\t%s\n",
				t.ID, t.OccurredAt.In(a.Transactions.Location()).Format("2006-01-02 15:04"),
				t.Side, t.Symbol, t.Amount, t.UnitPrice, t.Fee, t.Source)
		}
		return tw.Flush()
	},
}

var txRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a transaction by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Transactions.DeleteTransaction(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
		return nil
	},
}

func init() {
	txAddCmd.Flags().StringVar(&txSymbol, "symbol", "", "Asset symbol, e.g. BTC")
	txAddCmd.Flags().StringVar(&txSide, "side", "buy", "buy or sell")
	txAddCmd.Flags().Float64Var(&txAmount, "amount", 0, "Units bought or sold")
	txAddCmd.Flags().Float64Var(&txPrice, "price", 0, "Unit price in the display currency")
	txAddCmd.Flags().Float64Var(&txFee, "fee", 0, "Fee paid (informational)")
	txAddCmd.Flags().StringVar(&txDate, "date", "", "RFC3339 timestamp or YYYY-MM-DD; empty means now")
	_ = txAddCmd.MarkFlagRequired("symbol")
	_ = txAddCmd.MarkFlagRequired("amount")
	_ = txAddCmd.MarkFlagRequired("price")

	txListCmd.Flags().StringVar(&txSymbol, "symbol", "", "Only list this symbol")

	txCmd.AddCommand(txAddCmd)
	txCmd.AddCommand(txListCmd)
	txCmd.AddCommand(txRmCmd)
}
