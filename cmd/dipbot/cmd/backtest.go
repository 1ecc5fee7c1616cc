package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"dipbot/backtest"
	"dipbot/config"
	"dipbot/journal"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay a historical bar series through the signal engine",
	Long: `Replay a CSV bar series (columns: ts,open,high,low,close) through the
same engine the live loop uses and print the resulting ledger.

Example:
  dipbot backtest --csv bars.csv --config dipbot.yaml --close-end`,
	RunE: runBacktest,
}

var (
	backtestCSVPath     string
	backtestConfigPath  string
	backtestJournalPath string
	backtestCloseEnd    bool
	backtestSlippage    float64
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVar(&backtestCSVPath, "csv", "", "path to bar CSV (required)")
	backtestCmd.Flags().StringVarP(&backtestConfigPath, "config", "f", "", "path to YAML config for pair and strategy params")
	backtestCmd.Flags().StringVar(&backtestJournalPath, "journal", "", "optional SQLite path to record replayed trades")
	backtestCmd.Flags().BoolVar(&backtestCloseEnd, "close-end", false, "close any open position after the last bar")
	backtestCmd.Flags().Float64Var(&backtestSlippage, "slippage", 0, "simulated fill slippage fraction")
	backtestCmd.MarkFlagRequired("csv")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(backtestConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	feed, err := backtest.OpenCSV(backtestCSVPath)
	if err != nil {
		return err
	}

	var j journal.Journal
	if backtestJournalPath != "" {
		sq, err := journal.NewSQLite(backtestJournalPath)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer sq.Close()
		j = sq
	}

	r := &backtest.Runner{
		Pair:   cfg.Pair,
		Params: cfg.Strategy,
		Feed:   feed,
		Options: backtest.RunnerOptions{
			CloseEnd:    backtestCloseEnd,
			SlippagePct: backtestSlippage,
			Quantity:    cfg.Trade.Quantity,
		},
	}

	res, err := r.Run(context.Background(), j)
	if err != nil {
		return err
	}

	fmt.Printf("Backtest %s\n", cfg.Pair)
	if !res.Start.IsZero() {
		fmt.Printf("  Range:        %s .. %s\n", res.Start.UTC().Format("2006-01-02 15:04"), res.End.UTC().Format("2006-01-02 15:04"))
	}
	fmt.Printf("  Bars:         %d\n", res.Bars)
	fmt.Printf("  Trades:       %d (%d wins, %.1f%% win rate)\n", res.Trades, res.Wins, res.WinRate*100)
	fmt.Printf("  Net P/L:      %+.2f%%\n", res.TotalPnlPct*100)
	fmt.Printf("  Equity:       %.4f\n", res.Equity)
	fmt.Printf("  Max drawdown: %.2f%%\n", res.MaxDrawdown*100)
	if backtestJournalPath != "" {
		fmt.Printf("\nTrades saved to: %s\n", backtestJournalPath)
	}
	return nil
}
