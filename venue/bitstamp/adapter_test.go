package bitstamp

import (
	"context"
	"testing"

	"github.com/singhparshant/Aggregated-Orderbook/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDelta_IgnoresNonDataFrames(t *testing.T) {
	d, err := parseDelta([]byte(`{"event":"bts:subscription_succeeded","channel":"diff_order_book_ethusdt","data":{}}`), domain.PriceScale(2))
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestParseDelta_RejectsBadMicrotimestamp(t *testing.T) {
	_, err := parseDelta([]byte(`{"event":"data","data":{"microtimestamp":"not-a-number","bids":[],"asks":[]}}`), domain.PriceScale(2))
	assert.ErrorIs(t, err, domain.ErrMalformedFrame)
}

func TestParseDelta_Decodes(t *testing.T) {
	d, err := parseDelta([]byte(`{"event":"data","data":{"microtimestamp":"12345","bids":[["100.50","2.0"]],"asks":[["101.00","1.0"]]}}`), domain.PriceScale(2))
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, domain.Bitstamp, d.Venue)
	assert.Equal(t, int64(12345), d.SequenceStart)
	assert.Equal(t, int64(12345), d.SequenceEnd)
	require.Len(t, d.Bids, 1)
	assert.Equal(t, int64(10050), d.Bids[0].PriceTicks)
}

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
	bs := domain.NewBootstrapper(domain.Bitstamp, newValidator())
	d, err := parseDelta([]byte(`{"event":"data","data":{"microtimestamp":"11","bids":[["100.00","1.0"]],"asks":[]}}`), domain.PriceScale(2))
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
