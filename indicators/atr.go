package indicators

import (
	"fmt"
	"math"

	"dipbot/market"
)

// ATR is a streaming average true range. While fewer than period bars have
// been seen the value is the plain mean of all true ranges so far; from bar
// index period onward Wilder smoothing takes over:
// atr = (atr*(period-1) + tr) / period.
type ATR struct {
	period    int
	atr       float64
	trSum     float64
	count     int
	prevClose float64
}

// NewATR creates an average true range indicator with the given period.
func NewATR(period int) *ATR {
	return &ATR{period: period}
}

func (a *ATR) Name() string {
	return fmt.Sprintf("ATR(%d)", a.period)
}

func (a *ATR) Period() int {
	return a.period
}

func (a *ATR) Reset() {
	a.atr = 0
	a.trSum = 0
	a.count = 0
	a.prevClose = 0
}

func (a *ATR) Update(b market.Bar) {
	// First bar has no previous close, true range collapses to the bar range.
	tr := b.High - b.Low
	if a.count > 0 {
		tr = math.Max(tr, math.Max(
			math.Abs(b.High-a.prevClose),
			math.Abs(b.Low-a.prevClose),
		))
	}

	if a.count < a.period {
		a.trSum += tr
		a.atr = a.trSum / float64(a.count+1)
	} else {
		a.atr = (a.atr*float64(a.period-1) + tr) / float64(a.period)
	}

	a.prevClose = b.Close
	a.count++
}

func (a *ATR) Ready() bool {
	return a.count >= a.period
}

func (a *ATR) Value() float64 {
	return a.atr
}
