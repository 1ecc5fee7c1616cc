package venue

import (
	"context"
	"encoding/json"
	"fmt"

	"dipbot/pkg/id"
)

// Fill is one executed simulated swap.
type Fill struct {
	Ref    string
	Side   Side
	Price  float64
	Amount float64
}

// Sim is a deterministic in-memory venue for dry runs and backtests. Quotes
// fill at the current price shifted by SlippagePct against the taker.
type Sim struct {
	price       float64
	slippagePct float64
	fills       []Fill
}

// NewSim creates a sim venue starting at the given price.
func NewSim(startPrice, slippagePct float64) *Sim {
	return &Sim{price: startPrice, slippagePct: slippagePct}
}

// SetPrice moves the simulated market.
func (s *Sim) SetPrice(p float64) {
	s.price = p
}

func (s *Sim) QuotePrice(_ context.Context) (float64, error) {
	if s.price <= 0 {
		return 0, fmt.Errorf("venue: sim has no price")
	}
	return s.price, nil
}

func (s *Sim) QuoteTrade(_ context.Context, side Side, amount float64) (Quote, error) {
	if s.price <= 0 {
		return Quote{}, fmt.Errorf("venue: sim has no price")
	}
	if amount <= 0 {
		return Quote{}, fmt.Errorf("venue: non-positive amount %v", amount)
	}

	px := s.price
	if side == Buy {
		px *= 1 + s.slippagePct
	} else {
		px *= 1 - s.slippagePct
	}

	q := Quote{
		Side:           side,
		Price:          px,
		PriceImpactPct: s.slippagePct,
	}
	if side == Buy {
		q.InAmount = amount * px
		q.OutAmount = amount
	} else {
		q.InAmount = amount
		q.OutAmount = amount * px
	}
	q.Raw, _ = json.Marshal(map[string]any{"side": side, "price": px, "amount": amount})
	return q, nil
}

func (s *Sim) SubmitTrade(_ context.Context, q Quote) (string, error) {
	ref := "sim-" + id.New()
	amount := q.OutAmount
	if q.Side == Sell {
		amount = q.InAmount
	}
	s.fills = append(s.fills, Fill{Ref: ref, Side: q.Side, Price: q.Price, Amount: amount})
	return ref, nil
}

// Fills returns all executed simulated swaps in order.
func (s *Sim) Fills() []Fill {
	return s.fills
}
