package venue

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(ClientConfig{
		PriceURL:   srv.URL + "/price",
		QuoteURL:   srv.URL + "/quote",
		SwapURL:    srv.URL + "/swap",
		CandlesURL: srv.URL + "/candles",
		Pair:       "SOL/USDC",
		RateLimit:  1000,
		Timeout:    time.Second,
	}, nil)
}

func TestQuotePrice(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/price", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "SOL/USDC", r.URL.Query().Get("pair"))
		// Venue serializes prices as strings.
		w.Write([]byte(`{"price": "142.37"}`))
	})

	c := testClient(t, mux)
	p, err := c.QuotePrice(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 142.37, p, 1e-9)
}

func TestQuotePriceErrors(t *testing.T) {
	t.Run("http error", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/price", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		})
		c := testClient(t, mux)
		_, err := c.QuotePrice(context.Background())
		assert.Error(t, err)
	})

	t.Run("zero price rejected", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/price", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"price": 0}`))
		})
		c := testClient(t, mux)
		_, err := c.QuotePrice(context.Background())
		assert.Error(t, err)
	})
}

func TestQuoteTradeKeepsRawPayload(t *testing.T) {
	const payload = `{"price":"142.0","inAmount":"284.0","outAmount":"2.0","priceImpactPct":"0.001","route":{"hops":3}}`

	mux := http.NewServeMux()
	mux.HandleFunc("/quote", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "buy", r.URL.Query().Get("side"))
		assert.Equal(t, "2", r.URL.Query().Get("amount"))
		w.Write([]byte(payload))
	})

	c := testClient(t, mux)
	q, err := c.QuoteTrade(context.Background(), Buy, 2)
	require.NoError(t, err)
	assert.Equal(t, Buy, q.Side)
	assert.InDelta(t, 142.0, q.Price, 1e-9)
	assert.InDelta(t, 284.0, q.InAmount, 1e-9)
	assert.InDelta(t, 2.0, q.OutAmount, 1e-9)
	assert.InDelta(t, 0.001, q.PriceImpactPct, 1e-9)
	// Raw is the untouched upstream payload, opaque to the caller.
	assert.JSONEq(t, payload, string(q.Raw))
}

func TestSubmitTrade(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/quote", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price":100,"inAmount":100,"outAmount":1,"priceImpactPct":0}`))
	})
	mux.HandleFunc("/swap", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{"signature": "5KtP9x"}`))
	})

	c := testClient(t, mux)
	q, err := c.QuoteTrade(context.Background(), Sell, 1)
	require.NoError(t, err)

	ref, err := c.SubmitTrade(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, "5KtP9x", ref)
}

func TestHistoricalBars(t *testing.T) {
	t.Run("parses rows", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/candles", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "100", r.URL.Query().Get("limit"))
			w.Write([]byte(`[
				{"ts":1714550400,"o":"100","h":"101","l":"99","c":"100.5"},
				{"ts":1714550700,"o":100.5,"h":102,"l":100,"c":101}
			]`))
		})

		c := testClient(t, mux)
		bars, err := c.HistoricalBars(context.Background(), 100)
		require.NoError(t, err)
		require.Len(t, bars, 2)
		assert.Equal(t, int64(1714550400), bars[0].Timestamp)
		assert.InDelta(t, 100.5, bars[0].Close, 1e-9)
		assert.InDelta(t, 102.0, bars[1].High, 1e-9)
	})

	t.Run("no endpoint configured", func(t *testing.T) {
		c := NewClient(ClientConfig{Pair: "SOL/USDC"}, nil)
		bars, err := c.HistoricalBars(context.Background(), 10)
		require.NoError(t, err)
		assert.Empty(t, bars)
	})
}

func TestSimVenue(t *testing.T) {
	s := NewSim(100, 0.001)

	p, err := s.QuotePrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100.0, p)

	q, err := s.QuoteTrade(context.Background(), Buy, 2)
	require.NoError(t, err)
	assert.InDelta(t, 100.1, q.Price, 1e-9) // slippage against the buyer
	assert.InDelta(t, 2.0, q.OutAmount, 1e-9)

	ref, err := s.SubmitTrade(context.Background(), q)
	require.NoError(t, err)
	assert.NotEmpty(t, ref)

	s.SetPrice(110)
	q, err = s.QuoteTrade(context.Background(), Sell, 2)
	require.NoError(t, err)
	assert.InDelta(t, 109.89, q.Price, 1e-9)

	_, err = s.SubmitTrade(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, s.Fills(), 2)
	assert.Equal(t, Buy, s.Fills()[0].Side)
	assert.Equal(t, Sell, s.Fills()[1].Side)
}
