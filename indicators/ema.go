package indicators

import (
	"fmt"

	"dipbot/market"
)

// Streaming is the interface shared by incremental indicators: feed bars in
// order with Update, read the latest value with Value once Ready.
type Streaming interface {
	Name() string
	Update(b market.Bar)
	Ready() bool
	Value() float64
	Reset()
}

// EMA is a streaming exponential moving average over bar closes. The first
// bar seeds the average directly with its close; every later bar applies
// ema = close*k + ema*(1-k) with k = 2/(period+1).
type EMA struct {
	period int
	k      float64
	ema    float64
	count  int
}

// NewEMA creates an exponential moving average with the given period.
func NewEMA(period int) *EMA {
	return &EMA{
		period: period,
		k:      2.0 / float64(period+1),
	}
}

func (e *EMA) Name() string {
	return fmt.Sprintf("EMA(%d)", e.period)
}

func (e *EMA) Period() int {
	return e.period
}

func (e *EMA) Reset() {
	e.ema = 0
	e.count = 0
}

func (e *EMA) Update(b market.Bar) {
	if e.count == 0 {
		e.ema = b.Close
	} else {
		e.ema = b.Close*e.k + e.ema*(1-e.k)
	}
	e.count++
}

func (e *EMA) Ready() bool {
	return e.count > 0
}

func (e *EMA) Value() float64 {
	return e.ema
}
