package market

import "time"

// Bar is a fixed-duration OHLC aggregation of price ticks. Timestamp is the
// bucket open time in unix seconds; bars in a series are strictly increasing
// by Timestamp.
type Bar struct {
	Timestamp int64   `json:"ts"`
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
}

// Time returns the bar open time in UTC.
func (b Bar) Time() time.Time {
	return time.Unix(b.Timestamp, 0).UTC()
}

// Tick is a single observed price at a point in time.
type Tick struct {
	Price float64
	Time  time.Time
}
