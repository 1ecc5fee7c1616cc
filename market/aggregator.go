package market

import "time"

// Aggregator folds a stream of timestamped prices into fixed-duration OHLC
// bars. Observe must be called in time order; a price whose bucket precedes
// the open bucket is ignored.
type Aggregator struct {
	duration int64 // bar duration in seconds

	bucketStart int64 // open time of the active bucket, -1 when none
	open        float64
	high        float64
	low         float64
	close       float64
}

// NewAggregator creates an Aggregator producing bars of the given duration.
// Durations under one second are rounded up to one second.
func NewAggregator(d time.Duration) *Aggregator {
	secs := int64(d / time.Second)
	if secs < 1 {
		secs = 1
	}
	return &Aggregator{
		duration:    secs,
		bucketStart: -1,
	}
}

// Duration returns the bar duration.
func (a *Aggregator) Duration() time.Duration {
	return time.Duration(a.duration) * time.Second
}

// Observe records a price. When the price falls into a new bucket and the
// previous bucket saw at least one observation, the previous bucket is
// returned as a completed bar; otherwise nil. The very first observation only
// opens a bucket.
func (a *Aggregator) Observe(price float64, now time.Time) *Bar {
	bucket := now.Unix() / a.duration * a.duration

	if a.bucketStart == -1 {
		a.openBucket(bucket, price)
		return nil
	}

	if bucket == a.bucketStart {
		if price > a.high {
			a.high = price
		}
		if price < a.low {
			a.low = price
		}
		a.close = price
		return nil
	}

	if bucket < a.bucketStart {
		// Out-of-order tick; never emit backwards.
		return nil
	}

	done := &Bar{
		Timestamp: a.bucketStart,
		Open:      a.open,
		High:      a.high,
		Low:       a.low,
		Close:     a.close,
	}
	a.openBucket(bucket, price)
	return done
}

// Pending returns the in-progress bar, if any. The bar is a copy and may
// still change until the bucket rolls over.
func (a *Aggregator) Pending() *Bar {
	if a.bucketStart == -1 {
		return nil
	}
	return &Bar{
		Timestamp: a.bucketStart,
		Open:      a.open,
		High:      a.high,
		Low:       a.low,
		Close:     a.close,
	}
}

func (a *Aggregator) openBucket(start int64, price float64) {
	a.bucketStart = start
	a.open = price
	a.high = price
	a.low = price
	a.close = price
}
