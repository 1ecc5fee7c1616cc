// journal/csv.go
package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

type CSV struct {
	w *csv.Writer
	f *os.File
}

func NewCSV(path string) (*CSV, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(f)
	err = w.Write([]string{
		"trade_id", "pair", "quantity", "entry_price", "exit_price",
		"entry_time", "exit_time", "reason", "pnl_pct", "pnl_net",
		"bars_held", "equity_after",
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return nil, err
	}

	return &CSV{w: w, f: f}, nil
}

func (j *CSV) RecordTrade(t TradeRecord) error {
	err := j.w.Write([]string{
		t.TradeID,
		t.Pair,
		f(t.Quantity),
		f(t.EntryPrice),
		f(t.ExitPrice),
		t.EntryTime.Format(time.RFC3339),
		t.ExitTime.Format(time.RFC3339),
		t.Reason,
		f(t.PnlPct),
		f(t.PnlNet),
		strconv.Itoa(t.BarsHeld),
		f(t.EquityAfter),
	})
	if err != nil {
		return err
	}
	j.w.Flush()
	return j.w.Error()
}

func (j *CSV) Close() error {
	j.w.Flush()
	if err := j.w.Error(); err != nil {
		return err
	}
	return j.f.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
