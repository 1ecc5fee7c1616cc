package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatorFirstObservationOpensBucket(t *testing.T) {
	agg := NewAggregator(5 * time.Minute)
	now := time.Date(2024, 3, 1, 12, 2, 30, 0, time.UTC)

	bar := agg.Observe(101.5, now)
	assert.Nil(t, bar)

	pending := agg.Pending()
	require.NotNil(t, pending)
	assert.Equal(t, int64(now.Unix()/300*300), pending.Timestamp)
	assert.Equal(t, 101.5, pending.Open)
	assert.Equal(t, 101.5, pending.Close)
}

func TestAggregatorAccumulatesWithinBucket(t *testing.T) {
	agg := NewAggregator(time.Minute)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Nil(t, agg.Observe(100, base))
	assert.Nil(t, agg.Observe(105, base.Add(10*time.Second)))
	assert.Nil(t, agg.Observe(98, base.Add(20*time.Second)))
	assert.Nil(t, agg.Observe(102, base.Add(30*time.Second)))

	p := agg.Pending()
	require.NotNil(t, p)
	assert.Equal(t, 100.0, p.Open)
	assert.Equal(t, 105.0, p.High)
	assert.Equal(t, 98.0, p.Low)
	assert.Equal(t, 102.0, p.Close)
}

func TestAggregatorEmitsOnRollover(t *testing.T) {
	agg := NewAggregator(time.Minute)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	agg.Observe(100, base)
	agg.Observe(104, base.Add(30*time.Second))

	bar := agg.Observe(103, base.Add(time.Minute))
	require.NotNil(t, bar)
	assert.Equal(t, base.Unix(), bar.Timestamp)
	assert.Equal(t, 100.0, bar.Open)
	assert.Equal(t, 104.0, bar.High)
	assert.Equal(t, 100.0, bar.Low)
	assert.Equal(t, 104.0, bar.Close)

	// New bucket seeded with the rollover price.
	p := agg.Pending()
	require.NotNil(t, p)
	assert.Equal(t, base.Add(time.Minute).Unix(), p.Timestamp)
	assert.Equal(t, 103.0, p.Open)
	assert.Equal(t, 103.0, p.High)
	assert.Equal(t, 103.0, p.Low)
}

func TestAggregatorSkipsEmptyBuckets(t *testing.T) {
	agg := NewAggregator(time.Minute)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	agg.Observe(100, base)

	// Feed goes quiet for three minutes; only one bar comes out.
	bar := agg.Observe(101, base.Add(3*time.Minute))
	require.NotNil(t, bar)
	assert.Equal(t, base.Unix(), bar.Timestamp)
	assert.Nil(t, agg.Observe(102, base.Add(3*time.Minute+10*time.Second)))
}

func TestAggregatorIgnoresOutOfOrderTick(t *testing.T) {
	agg := NewAggregator(time.Minute)
	base := time.Date(2024, 3, 1, 12, 5, 0, 0, time.UTC)

	agg.Observe(100, base)
	assert.Nil(t, agg.Observe(90, base.Add(-2*time.Minute)))

	p := agg.Pending()
	require.NotNil(t, p)
	assert.Equal(t, 100.0, p.Low)
}
