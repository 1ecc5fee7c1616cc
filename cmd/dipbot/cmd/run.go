package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dipbot/bot"
	"dipbot/config"
	"dipbot/journal"
	"dipbot/state"
	"dipbot/venue"
	"dipbot/web"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the live trading loop",
	Long: `Run the poll loop against the configured venue.

With trade.dry_run set (the default) prices come from the venue but fills
are simulated in memory; no swaps are submitted.

Example:
  dipbot run --config dipbot.yaml`,
	RunE: runRun,
}

var runConfigPath string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to YAML config (defaults apply when omitted)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	j, trades, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	store, err := state.Open(cfg.State.Path, cfg.MaxBars)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer store.Close()

	client := venue.NewClient(venue.ClientConfig{
		PriceURL:   cfg.Venue.PriceURL,
		QuoteURL:   cfg.Venue.QuoteURL,
		SwapURL:    cfg.Venue.SwapURL,
		CandlesURL: cfg.Venue.CandlesURL,
		Pair:       cfg.Pair,
		RateLimit:  cfg.Venue.RateLimit,
	}, log)

	var v venue.Venue = client
	if cfg.Trade.DryRun {
		log.Info("dry run: simulated fills")
		v = venue.NewDryRun(client, 0)
	}

	b := bot.New(cfg, v, client.HistoricalBars, j, store, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := b.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	if cfg.Web.Addr != "" {
		srv := web.NewServer(b, trades, log)
		go func() {
			if err := srv.Start(cfg.Web.Addr); err != nil {
				log.Error("status server stopped", zap.Error(err))
			}
		}()
		log.Info("status server listening", zap.String("addr", cfg.Web.Addr))
	}

	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("shutdown complete")
	return nil
}

// openJournal builds the configured backend. The trade reader is nil for the
// CSV backend, which is append-only.
func openJournal(cfg config.JournalConfig) (journal.Journal, web.TradeLister, error) {
	if cfg.Type == "csv" {
		j, err := journal.NewCSV(cfg.Path)
		return j, nil, err
	}
	j, err := journal.NewSQLite(cfg.Path)
	if err != nil {
		return nil, nil, err
	}
	return j, j, nil
}
