package domain

import (
	"sort"
	"sync"

	"github.com/google/btree"
)

// levelBucket is an aggregated price level: a price key plus the per-venue
// contributions at that price. The bucket's total size is the sum of venue
// quantities.
type levelBucket struct {
	priceTicks int64
	venues     map[VenueID]VenueLevel
}

func (b *levelBucket) totalQty() uint64 {
	var total uint64
	for _, vl := range b.venues {
		total += vl.QtyTicks
	}
	return total
}

// dominantVenue returns the venue whose quantity is largest in this bucket,
// ties broken by the lower VenueID for stable venue ordering.
func (b *levelBucket) dominantVenue() VenueID {
	venues := make([]VenueID, 0, len(b.venues))
	for v := range b.venues {
		venues = append(venues, v)
	}
	sort.Slice(venues, func(i, j int) bool { return venues[i] < venues[j] })

	best := venues[0]
	bestQty := b.venues[best].QtyTicks
	for _, v := range venues[1:] {
		if qty := b.venues[v].QtyTicks; qty > bestQty {
			best, bestQty = v, qty
		}
	}
	return best
}

func lessBucket(a, b *levelBucket) bool {
	return a.priceTicks < b.priceTicks
}

// Book is the merged, cross-venue limit order book: two price-ordered maps,
// one per side, each keyed by price_ticks. A single sync.RWMutex guards both
// sides together so a top-N read sees a consistent cross-bucket, cross-side
// view; per-bucket locking was considered and rejected since it cannot give
// that guarantee. Write critical sections are bounded to one delta batch,
// or to one venue snapshot in ApplySnapshot.
type Book struct {
	mu sync.RWMutex

	bids *btree.BTreeG[*levelBucket]
	asks *btree.BTreeG[*levelBucket]

	// retentionCap is the optional per-side depth limit; 0 means unlimited.
	retentionCap int

	// onMutate, if set, is called after every successful ApplySet,
	// ApplyClear, ApplyDeltaBatch and ApplySnapshot, so the Publisher can be
	// notified the book changed; ClearAll does not call it. It must never block or
	// do I/O: it is invoked while b.mu is held.
	onMutate func()
}

// SetOnMutate installs the Book's single mutation hook, used to wire the
// Publisher's latest-wins notification without the Book package needing to
// know anything about publish.
func (b *Book) SetOnMutate(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onMutate = fn
}

func (b *Book) notifyMutation() {
	if b.onMutate != nil {
		b.onMutate()
	}
}

// Level is a read-only top-N result: a price/qty pair plus the venue whose
// contribution dominates the bucket.
type Level struct {
	PriceTicks  int64
	QtyTicks    uint64
	OriginVenue VenueID
}

const btreeDegree = 32

// NewBook constructs an empty Book. retentionCap of 0 disables pruning.
func NewBook(retentionCap int) *Book {
	return &Book{
		bids:         btree.NewG(btreeDegree, lessBucket),
		asks:         btree.NewG(btreeDegree, lessBucket),
		retentionCap: retentionCap,
	}
}

func (b *Book) treeFor(side Side) *btree.BTreeG[*levelBucket] {
	if side == Bid {
		return b.bids
	}
	return b.asks
}

// applySetLocked inserts or overwrites one venue's contribution at (side,
// price). O(log P) in the number of distinct price keys on that side. Caller
// must hold b.mu for writing.
func (b *Book) applySetLocked(venue VenueID, side Side, priceTicks int64, qtyTicks uint64, updateID int64) {
	tree := b.treeFor(side)
	probe := &levelBucket{priceTicks: priceTicks}
	existing, found := tree.Get(probe)
	if !found {
		existing = &levelBucket{priceTicks: priceTicks, venues: make(map[VenueID]VenueLevel, 2)}
	}
	existing.venues[venue] = VenueLevel{QtyTicks: qtyTicks, LastUpdateID: updateID}
	tree.ReplaceOrInsert(existing)
}

// applyClearLocked removes venue's entry at (side, price); if the bucket
// becomes empty the price key itself is removed so empty buckets never
// linger in the tree.
func (b *Book) applyClearLocked(venue VenueID, side Side, priceTicks int64) {
	tree := b.treeFor(side)
	probe := &levelBucket{priceTicks: priceTicks}
	existing, found := tree.Get(probe)
	if !found {
		return
	}
	delete(existing.venues, venue)
	if len(existing.venues) == 0 {
		tree.Delete(probe)
	}
}

// ApplySet is the public, locked entry point for a single (side, price)
// write outside of a streamed delta (tests, one-off repairs).
func (b *Book) ApplySet(venue VenueID, side Side, priceTicks int64, qtyTicks uint64, updateID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	defer b.notifyMutation()
	b.applyTripleLocked(venue, side, priceTicks, qtyTicks, updateID)
	b.pruneLocked(side)
}

// ApplyClear is the public, locked entry point for an explicit removal.
func (b *Book) ApplyClear(venue VenueID, side Side, priceTicks int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	defer b.notifyMutation()
	b.applyClearLocked(venue, side, priceTicks)
}

// ApplyDelta is a single-triple convenience wrapper around ApplySet, kept
// for callers (tests, one-off repairs) that work one triple at a time
// rather than through a whole delta batch.
func (b *Book) ApplyDelta(venue VenueID, side Side, priceTicks int64, qtyTicks uint64, updateID int64) {
	b.ApplySet(venue, side, priceTicks, qtyTicks, updateID)
}

func (b *Book) applyTripleLocked(venue VenueID, side Side, priceTicks int64, qtyTicks uint64, updateID int64) {
	if qtyTicks == 0 {
		b.applyClearLocked(venue, side, priceTicks)
		return
	}
	b.applySetLocked(venue, side, priceTicks, qtyTicks, updateID)
}

// ApplyDeltaBatch satisfies domain.BookWriter: it applies every (side,
// price, qty) triple of one delta under a single write lease and notifies
// exactly once after the whole delta has landed. A reader taking its own
// read lease (SnapshotTopN, CheckNotCrossed) between two triples of the
// same delta must never be able to observe the book half-updated; per-triple
// locking cannot give that guarantee, only a batch-wide one can.
func (b *Book) ApplyDeltaBatch(venue VenueID, bids, asks []PriceLevel, updateID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	defer b.notifyMutation()
	for _, lvl := range bids {
		b.applyTripleLocked(venue, Bid, lvl.PriceTicks, lvl.QtyTicks, updateID)
	}
	for _, lvl := range asks {
		b.applyTripleLocked(venue, Ask, lvl.PriceTicks, lvl.QtyTicks, updateID)
	}
	b.pruneLocked(Bid)
	b.pruneLocked(Ask)
}

// ApplySnapshot applies a full venue snapshot to both sides. Entries with
// qty=0 are malformed in a snapshot and reported as ErrZeroQtySnapshotEntry
// rather than silently applied; the caller treats this as a Desync.
func (b *Book) ApplySnapshot(venue VenueID, snapshotUpdID int64, bids, asks []PriceLevel) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, lvl := range bids {
		if lvl.QtyTicks == 0 {
			return ErrZeroQtySnapshotEntry
		}
		b.applySetLocked(venue, Bid, lvl.PriceTicks, lvl.QtyTicks, snapshotUpdID)
	}
	for _, lvl := range asks {
		if lvl.QtyTicks == 0 {
			return ErrZeroQtySnapshotEntry
		}
		b.applySetLocked(venue, Ask, lvl.PriceTicks, lvl.QtyTicks, snapshotUpdID)
	}
	b.pruneLocked(Bid)
	b.pruneLocked(Ask)
	b.notifyMutation()
	return nil
}

// ClearAll discards the entire book. The Supervisor calls this on teardown,
// before rebuilding from fresh snapshots on both venues.
func (b *Book) ClearAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bids = btree.NewG(btreeDegree, lessBucket)
	b.asks = btree.NewG(btreeDegree, lessBucket)
}

// pruneLocked drops the worst-priced levels beyond retentionCap. Caller
// must hold b.mu. It runs inside each write, before any crossed-book check;
// since it only drops the worst-priced levels, it never removes the best bid
// or best ask that check compares, nor levels a top_n(side, n) with
// n <= retentionCap could observe.
func (b *Book) pruneLocked(side Side) {
	if b.retentionCap <= 0 {
		return
	}
	tree := b.treeFor(side)
	if tree.Len() <= b.retentionCap {
		return
	}
	var worst []*levelBucket
	// Bids are worst at the lowest price (Ascend order); asks are worst at
	// the highest price (Descend order).
	iter := func(bucket *levelBucket) bool {
		if len(worst) >= tree.Len()-b.retentionCap {
			return false
		}
		worst = append(worst, bucket)
		return true
	}
	if side == Bid {
		tree.Ascend(iter)
	} else {
		tree.Descend(iter)
	}
	for _, bucket := range worst {
		tree.Delete(bucket)
	}
}

// TopN returns the n best buckets on side, in the side's canonical order:
// descending for bids, ascending for asks.
func (b *Book) TopN(side Side, n int) []Level {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.topNLocked(side, n)
}

func (b *Book) topNLocked(side Side, n int) []Level {
	tree := b.treeFor(side)
	out := make([]Level, 0, n)
	iter := func(bucket *levelBucket) bool {
		if len(out) >= n {
			return false
		}
		out = append(out, Level{
			PriceTicks:  bucket.priceTicks,
			QtyTicks:    bucket.totalQty(),
			OriginVenue: bucket.dominantVenue(),
		})
		return true
	}
	if side == Bid {
		tree.Descend(iter)
	} else {
		tree.Ascend(iter)
	}
	return out
}

// CheckNotCrossed reports whether the best bid is strictly less than the
// best ask. It is meant to run at publication boundaries, between delta
// batches, never mid-batch.
func (b *Book) CheckNotCrossed() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.checkNotCrossedLocked()
}

func (b *Book) checkNotCrossedLocked() error {
	bestBid, ok := b.bids.Max()
	if !ok {
		return nil
	}
	bestAsk, ok := b.asks.Min()
	if !ok {
		return nil
	}
	if bestBid.priceTicks >= bestAsk.priceTicks {
		return ErrCrossedBook
	}
	return nil
}

// SnapshotTopN returns both sides' top-N under a single read lease, along
// with the crossed-book check evaluated at that same instant, so the
// Publisher can build one internally-consistent Summary and detect a
// publication-boundary Desync atomically. A non-nil error here is fatal to
// the current session: the Publisher must not try to repair the book
// itself, since incremental venue streams never resend untouched levels.
func (b *Book) SnapshotTopN(n int) (bids, asks []Level, err error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkNotCrossedLocked(); err != nil {
		return nil, nil, err
	}
	return b.topNLocked(Bid, n), b.topNLocked(Ask, n), nil
}
