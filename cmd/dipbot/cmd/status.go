package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dipbot/strategy"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query a running bot's status endpoint",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var statusAddr string

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusAddr, "addr", "localhost:8787", "address of the running bot's status server")
}

func runStatus(cmd *cobra.Command, args []string) error {
	url := statusAddr
	if !strings.HasPrefix(url, "http") {
		url = "http://" + url
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url + "/status")
	if err != nil {
		return fmt.Errorf("reach bot: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status endpoint: http %d", resp.StatusCode)
	}

	var st strategy.State
	if err := json.Unmarshal(body, &st); err != nil {
		return fmt.Errorf("decode status: %w", err)
	}

	fmt.Printf("Pair:     %s\n", st.Pair)
	fmt.Printf("Bars:     %d", st.Bars)
	if st.Warmup {
		fmt.Print("  (warming up)")
	}
	fmt.Println()
	fmt.Printf("EMA:      fast %.4f  slow %.4f  slope %+.5f\n",
		st.Indicators.EMAFast, st.Indicators.EMASlow, st.Indicators.Slope)
	fmt.Printf("ATR:      %.4f  (buy zone top %.4f)\n", st.Indicators.ATR, st.Indicators.BuyZoneTop)
	if st.Position != nil {
		fmt.Printf("Position: entry %.4f  high %.4f  qty %g\n",
			st.Position.EntryPrice, st.Position.HighSinceEntry, st.Position.Quantity)
	} else {
		fmt.Printf("Position: flat (cooldown %d)\n", st.Cooldown)
	}
	fmt.Printf("Equity:   %.4f  (peak %.4f, max drawdown %.2f%%)\n",
		st.Ledger.Equity, st.Ledger.PeakEquity, st.Ledger.MaxDrawdown*100)
	fmt.Printf("Trades:   %d (%d wins)\n", st.Ledger.TotalTrades, st.Ledger.TotalWins)
	return nil
}
