// Package session runs the joint reconnect/backoff lifecycle across every
// venue adapter, generalizing the teacher's provider.ConnectionManager
// (dial-all, wait-all) into a loop that is carried for the process's whole
// lifetime rather than a one-shot initial dial.
package session

import (
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"github.com/singhparshant/Aggregated-Orderbook/domain"
	"github.com/singhparshant/Aggregated-Orderbook/metrics"
)

var logger = log.New(os.Stdout, "[session] ", log.LstdFlags)

// Backoff bounds: 250ms floor, 4s ceiling, doubling.
const (
	backoffMin    = 250 * time.Millisecond
	backoffMax    = 4 * time.Second
	backoffFactor = 2
)

// errCrossedBookDesync is the synthetic termination cause used when the
// Publisher, not a venue adapter, is the one that detects the fault: a
// crossed aggregated book observed at a publication boundary.
var errCrossedBookDesync = errors.New("session: crossed aggregated book at publication boundary")

// Supervisor owns every venue adapter's session jointly: it starts all of
// them together, and the instant any one terminates with Desync or
// Disconnected (or the Publisher calls SignalDesync), it cancels every
// other adapter's session, clears the whole book, backs off once, and
// restarts all adapters together against fresh snapshots. A book built by
// merging two venues cannot tolerate rebuilding only one side after a
// fault: the surviving venue's incremental deltas never resend the levels
// the torn-down venue used to contribute, so a joint teardown is the only
// way the testable invariant "the book only ever holds entries derivable
// from the current session's snapshots" can hold.
type Supervisor struct {
	adapters []domain.VenueAdapter
	book     *domain.Book

	mu     sync.RWMutex
	states map[domain.VenueID]domain.SessionState

	desync chan struct{}
}

// NewSupervisor constructs a joint Supervisor over every given adapter.
func NewSupervisor(book *domain.Book, adapters ...domain.VenueAdapter) *Supervisor {
	states := make(map[domain.VenueID]domain.SessionState, len(adapters))
	for _, a := range adapters {
		states[a.Venue()] = domain.Idle
	}
	return &Supervisor{
		adapters: adapters,
		book:     book,
		states:   states,
		desync:   make(chan struct{}, 1),
	}
}

// State returns one venue's current lifecycle state, safe for concurrent
// reads (used by metrics).
func (s *Supervisor) State(venue domain.VenueID) domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[venue]
}

func (s *Supervisor) setState(venue domain.VenueID, state domain.SessionState) {
	s.mu.Lock()
	s.states[venue] = state
	s.mu.Unlock()
	metrics.SessionState.WithLabelValues(venue.String()).Set(float64(state))
}

func (s *Supervisor) setAllStates(state domain.SessionState) {
	for _, a := range s.adapters {
		s.setState(a.Venue(), state)
	}
}

// SignalDesync forces the current joint session to tear down and rebuild
// from fresh snapshots on every venue. The Publisher calls this when it
// detects a crossed aggregated book at a publication boundary: incremental
// venue streams never resend untouched levels, so that condition can only
// be repaired by a full re-snapshot, not by clearing the book in place.
func (s *Supervisor) SignalDesync() {
	select {
	case s.desync <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled, restarting every adapter together
// after any one's Disconnected/Desync termination (or an external
// SignalDesync) with bounded exponential backoff. A Fatal termination is
// not retried: Run returns it to the caller so the process can exit.
func (s *Supervisor) Run(ctx context.Context) error {
	bo := &backoff.Backoff{Min: backoffMin, Max: backoffMax, Factor: backoffFactor}

	for {
		if ctx.Err() != nil {
			s.setAllStates(domain.Idle)
			return nil
		}

		first, err := s.runOneAttempt(ctx)
		if err != nil {
			s.setAllStates(domain.Idle)
			return nil
		}

		s.setAllStates(domain.Tearing)
		s.book.ClearAll()

		switch first.Signal {
		case domain.SignalNone:
			s.setAllStates(domain.Idle)
			return nil
		case domain.SignalFatal:
			logger.Printf("fatal termination, not retrying: %v", first.Err)
			return first.Err
		case domain.SignalDesync:
			for _, a := range s.adapters {
				metrics.Desyncs.WithLabelValues(a.Venue().String()).Inc()
			}
			logger.Printf("desync, rebuilding all venues from fresh snapshots: %v", first.Err)
		default:
			for _, a := range s.adapters {
				metrics.Disconnects.WithLabelValues(a.Venue().String()).Inc()
			}
			logger.Printf("disconnected, rebuilding all venues from fresh snapshots: %v", first.Err)
		}

		wait := bo.Duration()
		select {
		case <-ctx.Done():
			s.setAllStates(domain.Idle)
			return nil
		case <-time.After(wait):
		}
	}
}

// runOneAttempt starts every adapter under one shared child context and
// waits for the first terminal event: an adapter's own Termination, or an
// external SignalDesync. Whichever fires first, the child context is
// cancelled so every other adapter is forced to stop before this attempt
// returns, keeping teardown joint. The returned error is non-nil only when
// ctx itself was cancelled before any terminal event arrived.
func (s *Supervisor) runOneAttempt(ctx context.Context) (domain.Termination, error) {
	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan domain.Termination, len(s.adapters))
	var wg sync.WaitGroup
	for _, a := range s.adapters {
		wg.Add(1)
		metrics.SessionsStarted.WithLabelValues(a.Venue().String()).Inc()
		go func(a domain.VenueAdapter) {
			defer wg.Done()
			report := func(st domain.SessionState) { s.setState(a.Venue(), st) }
			results <- a.Start(sessionCtx, s.book, report)
		}(a)
	}

	var first domain.Termination
	select {
	case first = <-results:
	case <-s.desync:
		first = domain.Termination{Signal: domain.SignalDesync, Err: errCrossedBookDesync}
	case <-ctx.Done():
		cancel()
		wg.Wait()
		return domain.Termination{}, ctx.Err()
	}

	cancel()
	wg.Wait()
	return first, nil
}
