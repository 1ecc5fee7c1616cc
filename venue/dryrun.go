package venue

import "context"

// PriceSource is the read-only half of a venue.
type PriceSource interface {
	QuotePrice(ctx context.Context) (float64, error)
}

// DryRun quotes live prices from a real source but fills every trade on an
// in-memory sim, pinned to the last observed price. No funds move.
type DryRun struct {
	prices PriceSource
	sim    *Sim
}

func NewDryRun(prices PriceSource, slippagePct float64) *DryRun {
	return &DryRun{
		prices: prices,
		sim:    NewSim(0, slippagePct),
	}
}

func (d *DryRun) QuotePrice(ctx context.Context) (float64, error) {
	p, err := d.prices.QuotePrice(ctx)
	if err != nil {
		return 0, err
	}
	d.sim.SetPrice(p)
	return p, nil
}

func (d *DryRun) QuoteTrade(ctx context.Context, side Side, amount float64) (Quote, error) {
	return d.sim.QuoteTrade(ctx, side, amount)
}

func (d *DryRun) SubmitTrade(ctx context.Context, q Quote) (string, error) {
	return d.sim.SubmitTrade(ctx, q)
}

// Fills exposes the simulated executions for reporting.
func (d *DryRun) Fills() []Fill {
	return d.sim.Fills()
}
