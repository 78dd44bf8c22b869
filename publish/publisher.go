// Package publish fans out top-of-book summaries to subscribed readers,
// generalizing the teacher's usecase package (which computes one-shot
// snapshots on request) into a continuous push pipeline.
package publish

import (
	"context"
	"log"
	"os"
	"sync"

	"github.com/singhparshant/Aggregated-Orderbook/domain"
	"github.com/singhparshant/Aggregated-Orderbook/metrics"
)

var logger = log.New(os.Stdout, "[publish] ", log.LstdFlags)

// bookSummaryTopic is the Topic carried on every Subscription this package
// hands out; there is only ever one topic, since a Publisher serves exactly
// one aggregated book.
const bookSummaryTopic = "book-summary"

// Level is one outbound top-of-book entry, already converted to floating
// point at the wire boundary.
type Level struct {
	Exchange string
	Price    float64
	Amount   float64
}

// Summary is one outbound top-of-book record.
type Summary struct {
	Spread float64
	Bids   []Level
	Asks   []Level
}

// Publisher listens for a single-slot latest-wins notification, computes
// the current top-N summary, and fans it out to every subscriber
// non-blockingly, dropping the oldest pending summary on a full subscriber
// buffer.
type Publisher struct {
	book         *domain.Book
	topN         int
	scale        domain.PriceScale
	subCap       int
	signalDesync func()

	notify chan struct{}

	mu     sync.Mutex
	subs   map[int]chan Summary
	nextID int
}

func NewPublisher(book *domain.Book, topN int, scale domain.PriceScale, subscriberBufferSize int) *Publisher {
	return &Publisher{
		book:   book,
		topN:   topN,
		scale:  scale,
		subCap: subscriberBufferSize,
		notify: make(chan struct{}, 1),
		subs:   make(map[int]chan Summary),
	}
}

// SetOnCrossedBook installs the hook the Publisher calls when it detects a
// crossed aggregated book at a publication boundary, instead of trying to
// repair the book itself. The Supervisor wires this to its SignalDesync so
// the fault is rebuilt from fresh snapshots on every venue.
func (p *Publisher) SetOnCrossedBook(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signalDesync = fn
}

// Notify signals that a batch has just been applied to the book and a fresh
// summary is worth computing. It never blocks: a pending signal already
// queued is enough.
func (p *Publisher) Notify() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// Subscribe registers a new reader and returns a Subscription bundling its
// stream, its unsubscribe function, and the topic it is on — the same
// three-field handle the teacher's provider stream APIs return from their
// own Subscribe methods. The channel is buffered per subCap; once full,
// every later Summary replaces (not queues behind) the oldest pending one.
func (p *Publisher) Subscribe() *domain.Subscription[Summary] {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	ch := make(chan Summary, p.subCap)
	p.subs[id] = ch
	p.mu.Unlock()
	metrics.SubscriberCount.Inc()

	unsubscribe := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if ch, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(ch)
			metrics.SubscriberCount.Dec()
		}
	}
	return &domain.Subscription[Summary]{
		Stream:      ch,
		Unsubscribe: unsubscribe,
		Topic:       bookSummaryTopic,
	}
}

// Run blocks fanning out summaries until ctx is cancelled. A crossed
// aggregated book observed at a publication boundary is a fatal condition
// for the current session, not something the Publisher can repair itself:
// venue diff streams are incremental and never resend untouched levels, so
// clearing the book here would leave it permanently thin waiting for
// deltas that never arrive. The fault is handed to the Supervisor instead,
// which tears down every venue's session and rebuilds from fresh
// snapshots.
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.notify:
			bids, asks, err := p.book.SnapshotTopN(p.topN)
			if err != nil {
				logger.Printf("crossed book at publish boundary, signalling desync: %v", err)
				p.mu.Lock()
				signal := p.signalDesync
				p.mu.Unlock()
				if signal != nil {
					signal()
				}
				continue
			}
			metrics.BookLevels.WithLabelValues("bid").Set(float64(len(bids)))
			metrics.BookLevels.WithLabelValues("ask").Set(float64(len(asks)))
			p.fanOut(p.buildSummary(bids, asks))
		}
	}
}

func (p *Publisher) buildSummary(bids, asks []domain.Level) Summary {
	var spread float64
	if len(bids) > 0 && len(asks) > 0 {
		spread = p.scale.ToFloat(asks[0].PriceTicks) - p.scale.ToFloat(bids[0].PriceTicks)
	}
	return Summary{
		Spread: spread,
		Bids:   toLevels(bids, p.scale),
		Asks:   toLevels(asks, p.scale),
	}
}

func toLevels(levels []domain.Level, scale domain.PriceScale) []Level {
	out := make([]Level, len(levels))
	for i, lvl := range levels {
		out[i] = Level{
			Exchange: lvl.OriginVenue.String(),
			Price:    scale.ToFloat(lvl.PriceTicks),
			Amount:   scale.ToFloatUnsigned(lvl.QtyTicks),
		}
	}
	return out
}

func (p *Publisher) fanOut(s Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.subs {
		trySend(ch, s)
	}
}

// trySend implements oldest-dropped conflation: if ch's buffer is full, the
// oldest pending Summary is discarded to make room for the new one. The
// writer (Publisher) never blocks on a slow or stalled subscriber.
func trySend(ch chan Summary, s Summary) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}
