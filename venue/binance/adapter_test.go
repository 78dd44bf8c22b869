package binance

import (
	"context"
	"testing"

	"github.com/singhparshant/Aggregated-Orderbook/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDelta_RejectsMalformedPair(t *testing.T) {
	_, err := parseDelta([]byte(`{"e":"depthUpdate","U":1,"u":2,"b":[["bad"]],"a":[]}`), domain.PriceScale(8))
	assert.ErrorIs(t, err, domain.ErrMalformedFrame)
}

func TestParseDelta_RejectsWrongEventType(t *testing.T) {
	_, err := parseDelta([]byte(`{"e":"trade","U":1,"u":2,"b":[],"a":[]}`), domain.PriceScale(8))
	assert.ErrorIs(t, err, domain.ErrMalformedFrame)
}

func TestParseDelta_Decodes(t *testing.T) {
	d, err := parseDelta([]byte(`{"e":"depthUpdate","U":5,"u":9,"b":[["100.50","2.0"]],"a":[["101.00","1.0"]]}`), domain.PriceScale(2))
	require.NoError(t, err)
	assert.Equal(t, domain.Binance, d.Venue)
	assert.Equal(t, int64(5), d.SequenceStart)
	assert.Equal(t, int64(9), d.SequenceEnd)
	require.Len(t, d.Bids, 1)
	assert.Equal(t, int64(10050), d.Bids[0].PriceTicks)
	assert.Equal(t, uint64(200), d.Bids[0].QtyTicks)
}

// fakeBook lets the bootstrap sequencing be exercised against parseDelta's
// output without a real domain.Book, isolating the adapter's own glue code.
type fakeBook struct {
	applied []domain.PriceLevel
}

func (f *fakeBook) ApplySnapshot(venue domain.VenueID, snapshotUpdID int64, bids, asks []domain.PriceLevel) error {
	return nil
}

func (f *fakeBook) ApplyDeltaBatch(venue domain.VenueID, bids, asks []domain.PriceLevel, updateID int64) {
	f.applied = append(f.applied, bids...)
	f.applied = append(f.applied, asks...)
}

func (f *fakeBook) CheckNotCrossed() error { return nil }

func TestBootstrap_AppliesDecodedDelta(t *testing.T) {
	bs := domain.NewBootstrapper(domain.Binance, newValidator())
	d, err := parseDelta([]byte(`{"e":"depthUpdate","U":11,"u":11,"b":[["100.00","1.0"]],"a":[]}`), domain.PriceScale(2))
	require.NoError(t, err)
	bs.Feed(d)

	fb := &fakeBook{}
	done := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { done <- bs.Bootstrap(ctx, fb, 10) }()
	cancel()
	require.NoError(t, <-done)
	require.Len(t, fb.applied, 1)
	assert.Equal(t, int64(10000), fb.applied[0].PriceTicks)
}
