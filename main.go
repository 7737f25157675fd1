package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"bookstore-ledger/config"
	"bookstore-ledger/console"
	"bookstore-ledger/ledger"
	"bookstore-ledger/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bookstore",
		Short:         "Bookstore sales ledger",
		Long:          "Interactive ledger of members, books and sales backed by SQLite.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(cmd, func(ctx context.Context, mgr *ledger.Manager, log zerolog.Logger) error {
				return console.NewSession(mgr, cmd.InOrStdin(), cmd.OutOrStdout(), log).Run(ctx)
			})
		},
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(&cobra.Command{
		Use:   "report",
		Short: "Print the sales report and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(cmd, func(ctx context.Context, mgr *ledger.Manager, _ zerolog.Logger) error {
				rows, err := mgr.SaleReport(ctx)
				if err != nil {
					return err
				}
				console.WriteReport(cmd.OutOrStdout(), rows)
				return nil
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "stock",
		Short: "Print the book catalog with current stock and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(cmd, func(ctx context.Context, mgr *ledger.Manager, _ zerolog.Logger) error {
				books, err := mgr.ListBooks(ctx)
				if err != nil {
					return err
				}
				console.WriteCatalog(cmd.OutOrStdout(), books)
				return nil
			})
		},
	})

	return root
}

// withManager resolves config, opens the ledger and guarantees it is closed
// on every return path.
func withManager(cmd *cobra.Command, fn func(context.Context, *ledger.Manager, zerolog.Logger) error) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	log, logCloser, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeQuietly(logCloser)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	manager, err := ledger.NewManager(ctx, ledger.Options{
		Path:   cfg.DBPath,
		Driver: cfg.Driver,
		Seed:   cfg.Seed,
		Logger: log,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer closeQuietly(manager)

	return fn(ctx, manager, log)
}

func closeQuietly(c io.Closer) { _ = c.Close() }
