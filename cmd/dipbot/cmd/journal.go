package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"dipbot/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the trade journal",
	Long: `Query and display closed trades from the SQLite journal.

Examples:
  dipbot journal list --limit 20
  dipbot journal trade <trade-id>
  dipbot journal day 2026-08-30
  dipbot journal summary`,
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent trades, newest first",
	Args:  cobra.NoArgs,
	RunE:  runJournalList,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Show one trade in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades closed on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Aggregate stats over all closed trades",
	Args:  cobra.NoArgs,
	RunE:  runJournalSummary,
}

var (
	journalDBPath string
	journalLimit  int
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalDayCmd)
	journalCmd.AddCommand(journalSummaryCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./dipbot-journal.db", "path to SQLite journal")
	journalListCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "number of trades to show")
}

func openSQLiteJournal() (*journal.SQLite, error) {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return j, nil
}

func runJournalList(cmd *cobra.Command, args []string) error {
	j, err := openSQLiteJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := j.ListTrades(journalLimit)
	if err != nil {
		return err
	}
	printTrades(recs)
	return nil
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := openSQLiteJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	rec, err := j.GetTrade(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Trade %s\n", rec.TradeID)
	fmt.Printf("  Pair:      %s\n", rec.Pair)
	fmt.Printf("  Quantity:  %g\n", rec.Quantity)
	fmt.Printf("  Entry:     %.6f at %s\n", rec.EntryPrice, rec.EntryTime.UTC().Format(time.RFC3339))
	fmt.Printf("  Exit:      %.6f at %s (%s)\n", rec.ExitPrice, rec.ExitTime.UTC().Format(time.RFC3339), rec.Reason)
	fmt.Printf("  Held:      %d bars\n", rec.BarsHeld)
	fmt.Printf("  P/L:       %+.3f%% gross, %+.3f%% net\n", rec.PnlPct*100, rec.PnlNet*100)
	fmt.Printf("  Equity:    %.4f\n", rec.EquityAfter)
	return nil
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	j, err := openSQLiteJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	start, err := time.ParseInLocation("2006-01-02", args[0], time.Local)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}
	end := start.AddDate(0, 0, 1)

	recs, err := j.ListTradesClosedBetween(start, end)
	if err != nil {
		return err
	}
	printTrades(recs)
	return nil
}

func runJournalSummary(cmd *cobra.Command, args []string) error {
	j, err := openSQLiteJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	sum, err := j.Summarize()
	if err != nil {
		return err
	}

	fmt.Printf("Trades: %d\n", sum.Trades)
	if sum.Trades > 0 {
		fmt.Printf("Wins:   %d (%.1f%%)\n", sum.Wins, float64(sum.Wins)/float64(sum.Trades)*100)
	}
	fmt.Printf("Net:    %+.3f%%\n", sum.TotalPnlNet*100)
	return nil
}

func printTrades(recs []journal.TradeRecord) {
	if len(recs) == 0 {
		fmt.Println("no trades")
		return
	}
	fmt.Printf("%-27s %-10s %-8s %10s %10s %9s %6s\n",
		"TRADE", "PAIR", "REASON", "ENTRY", "EXIT", "NET", "BARS")
	for _, r := range recs {
		fmt.Printf("%-27s %-10s %-8s %10.4f %10.4f %+8.3f%% %6d\n",
			r.TradeID, r.Pair, r.Reason, r.EntryPrice, r.ExitPrice, r.PnlNet*100, r.BarsHeld)
	}
}
