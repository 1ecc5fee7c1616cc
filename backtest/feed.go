package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"dipbot/market"
)

// BarFeed yields completed bars one at a time. Implementations should be
// deterministic and return (ok=false, err=nil) at EOF.
type BarFeed interface {
	Next() (b market.Bar, ok bool, err error)
	Close() error
}

// SliceFeed replays an in-memory bar series.
type SliceFeed struct {
	bars []market.Bar
	idx  int
}

func NewSliceFeed(bars []market.Bar) *SliceFeed {
	return &SliceFeed{bars: bars}
}

func (f *SliceFeed) Next() (market.Bar, bool, error) {
	if f.idx >= len(f.bars) {
		return market.Bar{}, false, nil
	}
	b := f.bars[f.idx]
	f.idx++
	return b, true, nil
}

func (f *SliceFeed) Close() error { return nil }

// CSVFeed streams bars from a CSV file with columns ts,open,high,low,close.
// A header row is detected and skipped when the first field does not parse
// as an integer timestamp.
type CSVFeed struct {
	f    *os.File
	r    *csv.Reader
	line int
}

func OpenCSV(path string) (*CSVFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("backtest: open csv: %w", err)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = 5
	return &CSVFeed{f: f, r: r}, nil
}

func (c *CSVFeed) Next() (market.Bar, bool, error) {
	for {
		rec, err := c.r.Read()
		if err == io.EOF {
			return market.Bar{}, false, nil
		}
		if err != nil {
			return market.Bar{}, false, fmt.Errorf("backtest: csv line %d: %w", c.line+1, err)
		}
		c.line++

		ts, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			if c.line == 1 {
				continue // header row
			}
			return market.Bar{}, false, fmt.Errorf("backtest: csv line %d: bad timestamp %q", c.line, rec[0])
		}

		var vals [4]float64
		for i, raw := range rec[1:] {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return market.Bar{}, false, fmt.Errorf("backtest: csv line %d: bad field %q", c.line, raw)
			}
			vals[i] = v
		}

		return market.Bar{
			Timestamp: ts,
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
		}, true, nil
	}
}

func (c *CSVFeed) Close() error { return c.f.Close() }
