// Command pnlctl manages the portfolio ledger and inspects valuations from the
// terminal. It shares storage and wiring with the HTTP server.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ndewijer/pnl-tracker/internal/app"
	"github.com/ndewijer/pnl-tracker/internal/config"
	"github.com/ndewijer/pnl-tracker/internal/logging"
	"github.com/ndewijer/pnl-tracker/internal/version"
)

var (
	logLevel string
	dbPath   string
)

var rootCmd = &cobra.Command{
	Use:           "pnlctl",
	Short:         "Portfolio ledger and valuation tool",
	Long:          "pnlctl records transactions, runs valuation samples and prints portfolio reports against the server's database.",
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.SetupWriter(os.Stderr, logLevel, true)
	},
}

func init() {
	addGlobalFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(txCmd)
	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(migrateCmd)
}

func addGlobalFlags(fs *pflag.FlagSet) {
	fs.StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	fs.StringVarP(&dbPath, "db", "d", "", "Database path (overrides DB_PATH)")
	fs.SortFlags = false
}

// openApp loads configuration and wires the engine without the websocket hub.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	return app.New(ctx, cfg, app.Options{})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("pnlctl failed")
		stop()
		os.Exit(1)
	}
}
