// Package venue abstracts the external swap venue: price quotes, trade
// quotes, and swap submission. The engine core never touches this package;
// only the run loop does.
package venue

import (
	"context"
	"encoding/json"

	"dipbot/market"
)

// Side of a swap relative to the traded base asset.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Quote is a strongly typed trade quote. Raw carries the venue's original
// payload for submission; nothing downstream inspects it.
type Quote struct {
	Side           Side
	Price          float64
	InAmount       float64
	OutAmount      float64
	PriceImpactPct float64
	Raw            json.RawMessage
}

// Venue is the full swap-venue contract consumed by the run loop.
type Venue interface {
	// QuotePrice returns the current price of the traded pair.
	QuotePrice(ctx context.Context) (float64, error)
	// QuoteTrade requests a quote for swapping amount of the input asset.
	QuoteTrade(ctx context.Context, side Side, amount float64) (Quote, error)
	// SubmitTrade executes a previously obtained quote and returns an
	// execution reference.
	SubmitTrade(ctx context.Context, q Quote) (string, error)
}

// BackfillFunc produces up to limit historical bars, oldest first. Callers
// treat any failure as an empty history.
type BackfillFunc func(ctx context.Context, limit int) ([]market.Bar, error)
