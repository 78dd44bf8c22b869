package domain_test

import (
	"testing"

	"github.com/singhparshant/Aggregated-Orderbook/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scale = domain.PriceScale(2)

func ticks(v float64) int64 { return scale.ToTicks(v) }
func qty(v float64) uint64  { return scale.ToTicksUnsigned(v) }

// Binance bids=[(2000.00,1.0)], Bitstamp bids=[(2000.00,0.5),(1999.50,2.0)].
// Top-2 bids: (2000.00, 1.5, binance dominates 1.0>0.5), (1999.50, 2.0,
// bitstamp).
func TestBook_SnapshotMerge(t *testing.T) {
	b := domain.NewBook(0)

	require.NoError(t, b.ApplySnapshot(domain.Binance, 1, []domain.PriceLevel{
		{PriceTicks: ticks(2000.00), QtyTicks: qty(1.0)},
	}, nil))
	require.NoError(t, b.ApplySnapshot(domain.Bitstamp, 1, []domain.PriceLevel{
		{PriceTicks: ticks(2000.00), QtyTicks: qty(0.5)},
		{PriceTicks: ticks(1999.50), QtyTicks: qty(2.0)},
	}, nil))

	top := b.TopN(domain.Bid, 2)
	require.Len(t, top, 2)
	assert.Equal(t, ticks(2000.00), top[0].PriceTicks)
	assert.Equal(t, qty(1.5), top[0].QtyTicks)
	assert.Equal(t, domain.Binance, top[0].OriginVenue)

	assert.Equal(t, ticks(1999.50), top[1].PriceTicks)
	assert.Equal(t, qty(2.0), top[1].QtyTicks)
	assert.Equal(t, domain.Bitstamp, top[1].OriginVenue)
}

// From a merged book, a Binance delta bids=[(2000.00,0)] clears Binance's
// contribution at that price. Top-1 bid becomes (2000.00, 0.5, bitstamp).
func TestBook_DeltaDeletesVenueLevel(t *testing.T) {
	b := buildMergedBook(t)

	b.ApplyDelta(domain.Binance, domain.Bid, ticks(2000.00), 0, 2)

	top := b.TopN(domain.Bid, 1)
	require.Len(t, top, 1)
	assert.Equal(t, ticks(2000.00), top[0].PriceTicks)
	assert.Equal(t, qty(0.5), top[0].QtyTicks)
	assert.Equal(t, domain.Bitstamp, top[0].OriginVenue)
}

// Once every venue's contribution at a price has cleared, the bucket itself
// is absent; top bid becomes (1999.50, 2.0, bitstamp).
func TestBook_FullLevelRemoval(t *testing.T) {
	b := buildMergedBook(t)
	b.ApplyDelta(domain.Binance, domain.Bid, ticks(2000.00), 0, 2)
	b.ApplyDelta(domain.Bitstamp, domain.Bid, ticks(2000.00), 0, 2)

	top := b.TopN(domain.Bid, 10)
	require.Len(t, top, 1)
	assert.Equal(t, ticks(1999.50), top[0].PriceTicks)
	assert.Equal(t, qty(2.0), top[0].QtyTicks)
}

// After all deltas of a batch are applied, best bid >= best ask:
// CheckNotCrossed must report ErrCrossedBook.
func TestBook_CrossedBookDetected(t *testing.T) {
	b := domain.NewBook(0)
	require.NoError(t, b.ApplySnapshot(domain.Binance, 1,
		[]domain.PriceLevel{{PriceTicks: ticks(100.00), QtyTicks: qty(1)}},
		[]domain.PriceLevel{{PriceTicks: ticks(101.00), QtyTicks: qty(1)}},
	))
	assert.NoError(t, b.CheckNotCrossed())

	// A bad venue update pushes the bid through the ask.
	b.ApplyDelta(domain.Binance, domain.Bid, ticks(101.50), qty(1), 2)
	assert.ErrorIs(t, b.CheckNotCrossed(), domain.ErrCrossedBook)
}

// Invariant 1: no level is present with all venue entries at qty=0.
func TestBook_Invariant_NoZeroQtyLevels(t *testing.T) {
	b := domain.NewBook(0)
	require.NoError(t, b.ApplySnapshot(domain.Binance, 1,
		[]domain.PriceLevel{{PriceTicks: ticks(10), QtyTicks: qty(1)}}, nil))
	b.ApplyDelta(domain.Binance, domain.Bid, ticks(10), 0, 2)

	top := b.TopN(domain.Bid, 10)
	assert.Empty(t, top)
}

// Invariant 3 (zero-venue case): an empty side never reports a crossed book.
func TestBook_CheckNotCrossed_EmptySideIsFine(t *testing.T) {
	b := domain.NewBook(0)
	assert.NoError(t, b.CheckNotCrossed())
}

// Top-N correctness: top_n orders bids descending and asks ascending by
// price.
func TestBook_TopN_Ordering(t *testing.T) {
	b := domain.NewBook(0)
	require.NoError(t, b.ApplySnapshot(domain.Binance, 1, []domain.PriceLevel{
		{PriceTicks: ticks(10), QtyTicks: qty(1)},
		{PriceTicks: ticks(12), QtyTicks: qty(1)},
		{PriceTicks: ticks(11), QtyTicks: qty(1)},
	}, []domain.PriceLevel{
		{PriceTicks: ticks(20), QtyTicks: qty(1)},
		{PriceTicks: ticks(18), QtyTicks: qty(1)},
		{PriceTicks: ticks(19), QtyTicks: qty(1)},
	}))

	bids := b.TopN(domain.Bid, 3)
	require.Len(t, bids, 3)
	assert.Equal(t, []int64{ticks(12), ticks(11), ticks(10)}, []int64{bids[0].PriceTicks, bids[1].PriceTicks, bids[2].PriceTicks})

	asks := b.TopN(domain.Ask, 3)
	require.Len(t, asks, 3)
	assert.Equal(t, []int64{ticks(18), ticks(19), ticks(20)}, []int64{asks[0].PriceTicks, asks[1].PriceTicks, asks[2].PriceTicks})
}

// Optional pruning must never change an observable top_n as long as the
// retention cap is >= N.
func TestBook_Pruning_DoesNotAffectTopNWhenCapAboveN(t *testing.T) {
	b := domain.NewBook(5)
	var bids []domain.PriceLevel
	for i := 0; i < 20; i++ {
		bids = append(bids, domain.PriceLevel{PriceTicks: ticks(float64(100 - i)), QtyTicks: qty(1)})
	}
	require.NoError(t, b.ApplySnapshot(domain.Binance, 1, bids, nil))

	top := b.TopN(domain.Bid, 5)
	require.Len(t, top, 5)
	assert.Equal(t, ticks(100), top[0].PriceTicks)
	assert.Equal(t, ticks(96), top[4].PriceTicks)
}

// Clear-on-desync: after ClearAll, the book is empty and ready for fresh
// snapshots on both venues.
func TestBook_ClearAll(t *testing.T) {
	b := buildMergedBook(t)
	b.ClearAll()
	assert.Empty(t, b.TopN(domain.Bid, 10))
	assert.Empty(t, b.TopN(domain.Ask, 10))
}

func buildMergedBook(t *testing.T) *domain.Book {
	t.Helper()
	b := domain.NewBook(0)
	require.NoError(t, b.ApplySnapshot(domain.Binance, 1, []domain.PriceLevel{
		{PriceTicks: ticks(2000.00), QtyTicks: qty(1.0)},
	}, nil))
	require.NoError(t, b.ApplySnapshot(domain.Bitstamp, 1, []domain.PriceLevel{
		{PriceTicks: ticks(2000.00), QtyTicks: qty(0.5)},
		{PriceTicks: ticks(1999.50), QtyTicks: qty(2.0)},
	}, nil))
	return b
}
