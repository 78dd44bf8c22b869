package publish

import (
	"context"
	"testing"
	"time"

	"github.com/singhparshant/Aggregated-Orderbook/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBook(t *testing.T) *domain.Book {
	t.Helper()
	b := domain.NewBook(0)
	require.NoError(t, b.ApplySnapshot(domain.Binance, 1,
		[]domain.PriceLevel{{PriceTicks: 100, QtyTicks: 10}},
		[]domain.PriceLevel{{PriceTicks: 200, QtyTicks: 5}},
	))
	return b
}

// Slow subscriber, capacity-1 channel, three rapid summaries: the
// subscriber receives only the latest and the sender never blocks. This
// exercises trySend directly since Run's own notify coalescing (a single
// buffered slot) would otherwise make it timing-dependent whether all three
// summaries are even computed.
func TestTrySend_OldestDroppedConflation(t *testing.T) {
	ch := make(chan Summary, 1)

	done := make(chan struct{})
	go func() {
		trySend(ch, Summary{Spread: 1})
		trySend(ch, Summary{Spread: 2})
		trySend(ch, Summary{Spread: 3})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("trySend blocked")
	}

	select {
	case s := <-ch:
		assert.Equal(t, float64(3), s.Spread)
	default:
		t.Fatal("expected the latest summary to be pending")
	}

	select {
	case <-ch:
		t.Fatal("expected only one conflated summary pending, got a second")
	default:
	}
}

func TestPublisher_FanOutDeliversSummary(t *testing.T) {
	book := newTestBook(t)
	pub := NewPublisher(book, 10, domain.PriceScale(0), 1)

	sub := pub.Subscribe()
	defer sub.Unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pub.Run(ctx)

	pub.Notify()

	select {
	case s := <-sub.Stream:
		require.Len(t, s.Bids, 1)
		require.Len(t, s.Asks, 1)
		assert.Equal(t, float64(100), s.Spread)
	case <-time.After(time.Second):
		t.Fatal("subscriber never received a summary")
	}
}

func TestPublisher_UnsubscribeStopsFanOut(t *testing.T) {
	book := newTestBook(t)
	pub := NewPublisher(book, 10, domain.PriceScale(0), 4)

	sub := pub.Subscribe()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pub.Run(ctx)

	sub.Unsubscribe()

	pub.Notify()
	time.Sleep(20 * time.Millisecond)

	_, ok := <-sub.Stream
	assert.False(t, ok, "channel should be closed after unsubscribe")
}

func TestPublisher_CrossedBookSignalsDesyncInsteadOfClearing(t *testing.T) {
	book := domain.NewBook(0)
	require.NoError(t, book.ApplySnapshot(domain.Binance, 1,
		[]domain.PriceLevel{{PriceTicks: 100, QtyTicks: 1}},
		[]domain.PriceLevel{{PriceTicks: 101, QtyTicks: 1}},
	))
	// Induce a crossed book: a Binance bid above the Binance ask.
	book.ApplyDelta(domain.Binance, domain.Bid, 150, 1, 2)

	pub := NewPublisher(book, 10, domain.PriceScale(0), 1)
	signalled := make(chan struct{}, 1)
	pub.SetOnCrossedBook(func() {
		select {
		case signalled <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pub.Run(ctx)

	pub.Notify()

	select {
	case <-signalled:
	case <-time.After(time.Second):
		t.Fatal("expected Run to signal a desync instead of clearing the book")
	}

	// The book must be left exactly as it was: only the Supervisor's fresh
	// re-snapshot is allowed to change it, never the Publisher itself.
	require.NotEmpty(t, book.TopN(domain.Bid, 10))
}
