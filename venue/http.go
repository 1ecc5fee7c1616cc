package venue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"dipbot/market"
)

// number decodes a JSON value that the venue serializes either as a number
// or as a numeric string.
type number float64

func (n *number) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("venue: bad numeric field %q: %w", s, err)
	}
	*n = number(v)
	return nil
}

// ClientConfig configures the HTTP venue client.
type ClientConfig struct {
	PriceURL   string  // price endpoint
	QuoteURL   string  // trade quote endpoint
	SwapURL    string  // swap submission endpoint
	CandlesURL string  // historical bars endpoint, optional
	Pair       string  // venue pair identifier
	RateLimit  float64 // requests per second across all endpoints
	Timeout    time.Duration
}

// Client is an HTTP venue client. All requests share one rate limiter so the
// poll loop and trade execution cannot jointly exceed the venue's budget.
type Client struct {
	cfg     ClientConfig
	http    *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewClient creates an HTTP venue client.
func NewClient(cfg ClientConfig, log *zap.Logger) *Client {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		log:     log,
	}
}

type priceResponse struct {
	Price number `json:"price"`
}

// QuotePrice fetches the current pair price.
func (c *Client) QuotePrice(ctx context.Context) (float64, error) {
	var resp priceResponse
	u := fmt.Sprintf("%s?pair=%s", c.cfg.PriceURL, url.QueryEscape(c.cfg.Pair))
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return 0, fmt.Errorf("venue: quote price: %w", err)
	}
	if resp.Price <= 0 {
		return 0, fmt.Errorf("venue: quote price: non-positive price %v", float64(resp.Price))
	}
	return float64(resp.Price), nil
}

type quoteResponse struct {
	Price          number `json:"price"`
	InAmount       number `json:"inAmount"`
	OutAmount      number `json:"outAmount"`
	PriceImpactPct number `json:"priceImpactPct"`
}

// QuoteTrade requests a swap quote for amount units of the input asset.
func (c *Client) QuoteTrade(ctx context.Context, side Side, amount float64) (Quote, error) {
	u := fmt.Sprintf("%s?pair=%s&side=%s&amount=%s",
		c.cfg.QuoteURL,
		url.QueryEscape(c.cfg.Pair),
		side,
		strconv.FormatFloat(amount, 'f', -1, 64),
	)

	raw, err := c.get(ctx, u)
	if err != nil {
		return Quote{}, fmt.Errorf("venue: quote trade: %w", err)
	}

	var resp quoteResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Quote{}, fmt.Errorf("venue: quote trade: %w", err)
	}
	if resp.Price <= 0 {
		return Quote{}, fmt.Errorf("venue: quote trade: non-positive price %v", float64(resp.Price))
	}

	return Quote{
		Side:           side,
		Price:          float64(resp.Price),
		InAmount:       float64(resp.InAmount),
		OutAmount:      float64(resp.OutAmount),
		PriceImpactPct: float64(resp.PriceImpactPct),
		Raw:            raw,
	}, nil
}

type swapResponse struct {
	Signature string `json:"signature"`
	TxID      string `json:"txid"`
}

// SubmitTrade posts the quote's raw payload to the swap endpoint.
func (c *Client) SubmitTrade(ctx context.Context, q Quote) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.SwapURL, bytes.NewReader(q.Raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("venue: submit trade: %w", err)
	}

	var resp swapResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("venue: submit trade: %w", err)
	}
	ref := resp.Signature
	if ref == "" {
		ref = resp.TxID
	}
	if ref == "" {
		return "", fmt.Errorf("venue: submit trade: response carries no signature")
	}
	return ref, nil
}

type candleRow struct {
	Timestamp int64  `json:"ts"`
	Open      number `json:"o"`
	High      number `json:"h"`
	Low       number `json:"l"`
	Close     number `json:"c"`
}

// HistoricalBars fetches up to limit bars, oldest first. Intended for use as
// a BackfillFunc; callers degrade failures to an empty history.
func (c *Client) HistoricalBars(ctx context.Context, limit int) ([]market.Bar, error) {
	if c.cfg.CandlesURL == "" {
		return nil, nil
	}

	u := fmt.Sprintf("%s?pair=%s&limit=%d", c.cfg.CandlesURL, url.QueryEscape(c.cfg.Pair), limit)

	var rows []candleRow
	if err := c.getJSON(ctx, u, &rows); err != nil {
		return nil, fmt.Errorf("venue: historical bars: %w", err)
	}

	bars := make([]market.Bar, 0, len(rows))
	for _, r := range rows {
		bars = append(bars, market.Bar{
			Timestamp: r.Timestamp,
			Open:      float64(r.Open),
			High:      float64(r.High),
			Low:       float64(r.Low),
			Close:     float64(r.Close),
		})
	}
	return bars, nil
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	body, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: http %d: %s", req.URL.Path, resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
