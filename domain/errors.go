package domain

import "errors"

// Sentinel errors surfaced by venue adapters and the aggregated book.
// Mirrors the sentinel-error idiom the teacher uses for sequencing failures
// (domain/depth-update-validator.interface.go: ErrOrderBookUpdateIsOutOfSequece,
// ErrOrderBookUpdateIsOutdated) and extends it to the full Desync/Disconnected/
// Fatal taxonomy below.
var (
	// ErrSequenceGap means a delta's update id does not continue from the
	// last applied one for its venue. ProtocolViolation.
	ErrSequenceGap = errors.New("orderbook: venue update id sequence gap")
	// ErrStaleUpdate means a delta's effective update id is at or behind
	// the book's current position for that venue; it is dropped, not fatal.
	ErrStaleUpdate = errors.New("orderbook: venue update is stale")
	// ErrCrossedBook means the aggregated best bid is not strictly less
	// than the aggregated best ask at a publication boundary. ProtocolViolation.
	ErrCrossedBook = errors.New("orderbook: aggregated book is crossed")
	// ErrZeroQtySnapshotEntry means a venue snapshot carried a qty=0 entry,
	// which is malformed. ProtocolViolation.
	ErrZeroQtySnapshotEntry = errors.New("orderbook: snapshot entry has zero quantity")
	// ErrMalformedFrame means a venue message could not be decoded. ProtocolViolation.
	ErrMalformedFrame = errors.New("orderbook: malformed venue frame")
)

// Signal is the terminal condition an adapter or the publisher reports to
// the Supervisor. It is distinct from the Go `error` interface because a
// signal always carries an explicit classification the Supervisor switches
// on, even when the underlying cause is nil (clean Disconnected from a
// closed channel, for instance).
type Signal int

const (
	// SignalNone is the zero value; never observed on the wire.
	SignalNone Signal = iota
	// SignalDesync is a ProtocolViolation: sequencing or crossed-book proof
	// failed. The Supervisor tears down and rebuilds from fresh snapshots.
	SignalDesync
	// SignalDisconnected is Transient: a transport-level failure. The
	// Supervisor tears down and retries with backoff.
	SignalDisconnected
	// SignalFatal is unrecoverable at the process level (bad config, port
	// bind failure, unparseable schema change). Propagates to process exit.
	SignalFatal
)

func (s Signal) String() string {
	switch s {
	case SignalDesync:
		return "desync"
	case SignalDisconnected:
		return "disconnected"
	case SignalFatal:
		return "fatal"
	default:
		return "none"
	}
}

// Termination bundles a Signal with the error that produced it, sent once
// per session by an adapter over its terminal channel.
type Termination struct {
	Signal Signal
	Err    error
}
