package domain

import (
	"context"
	"log"
	"os"
	"sync"

	"github.com/gammazero/deque"
)

var logger = log.New(os.Stdout, "[domain] ", log.LstdFlags)

// Bootstrapper is the buffer-then-drain sequencer shared by every venue
// adapter. It generalizes the buffering the teacher's
// domain/orderbook-maintainer.go already does per-provider (open the stream
// first, queue raw deltas, then fetch the snapshot and drain the queue
// against it) so neither venue package has to re-implement the ordering
// rules by hand.
type Bootstrapper struct {
	venue     VenueID
	validator ContinuityValidator

	mu     sync.Mutex
	queue  deque.Deque[*Delta]
	wakeup chan struct{}

	firstMsg  chan struct{}
	firstOnce sync.Once
}

// NewBootstrapper constructs a Bootstrapper for one venue's continuity
// rule. Call Feed from the venue's raw stream-reading goroutine for every
// delta as it arrives, and Bootstrap once a snapshot has been fetched.
func NewBootstrapper(venue VenueID, validator ContinuityValidator) *Bootstrapper {
	return &Bootstrapper{
		venue:     venue,
		validator: validator,
		wakeup:    make(chan struct{}, 1),
		firstMsg:  make(chan struct{}),
	}
}

// Feed enqueues a delta received off the wire. It never blocks and never
// drops.
func (bs *Bootstrapper) Feed(d *Delta) {
	bs.mu.Lock()
	bs.queue.PushBack(d)
	bs.mu.Unlock()

	bs.firstOnce.Do(func() { close(bs.firstMsg) })

	select {
	case bs.wakeup <- struct{}{}:
	default:
	}
}

// AwaitFirstMessage blocks until at least one delta has been buffered, or
// ctx is cancelled. The Supervisor/adapter must observe this before issuing
// the REST snapshot request, so the snapshot is never older than the start
// of the buffered stream.
func (bs *Bootstrapper) AwaitFirstMessage(ctx context.Context) error {
	select {
	case <-bs.firstMsg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Bootstrap drains the buffered queue against snapshotUpdID (discard every
// delta whose effective end is <= snapshotUpdID, then validate+apply the
// remainder per the venue's continuity rule) and then keeps draining newly
// arriving deltas forever, applying each to book, until ctx is cancelled or
// the continuity rule is violated.
//
// It returns the terminal error (nil only on ctx cancellation, which is not
// itself an error condition for the caller).
func (bs *Bootstrapper) Bootstrap(ctx context.Context, book BookWriter, snapshotUpdID int64) error {
	firstApplied := false
	prevSequenceEnd := snapshotUpdID

	applyOne := func(d *Delta) error {
		if !firstApplied {
			if err := bs.validator.ValidateFirst(d, snapshotUpdID); err != nil {
				return err
			}
			firstApplied = true
		} else {
			if err := bs.validator.ValidateNext(d, prevSequenceEnd); err != nil {
				return err
			}
		}
		applyDeltaTo(book, bs.venue, d)
		prevSequenceEnd = d.SequenceEnd
		return nil
	}

	for {
		bs.mu.Lock()
		var batch []*Delta
		for bs.queue.Len() > 0 {
			d := bs.queue.PopFront()
			if !firstApplied && bs.validator.EffectiveEnd(d) <= snapshotUpdID {
				logger.Printf("%v: buffered delta up to %d at or behind snapshot %d, discarding", ErrStaleUpdate, bs.validator.EffectiveEnd(d), snapshotUpdID)
				continue
			}
			batch = append(batch, d)
		}
		bs.mu.Unlock()

		for _, d := range batch {
			if err := applyOne(d); err != nil {
				return err
			}
			if err := book.CheckNotCrossed(); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-bs.wakeup:
		}
	}
}

// applyDeltaTo applies d's whole batch of (side, price, qty) triples to book
// in one call, so the book never exposes a half-applied delta to a reader.
func applyDeltaTo(book BookWriter, venue VenueID, d *Delta) {
	book.ApplyDeltaBatch(venue, d.Bids, d.Asks, d.SequenceEnd)
}
