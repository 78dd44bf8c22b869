package bitstamp

import (
	"context"
	"net/http"
	"time"

	"github.com/singhparshant/Aggregated-Orderbook/domain"
)

// Config carries the venue-specific settings Adapter needs, assembled by
// the config package from environment variables.
type Config struct {
	Pair            string // e.g. "ethusdt"
	WSEndpoint      string // e.g. wss://ws.bitstamp.net
	RESTEndpoint    string // e.g. https://www.bitstamp.net/api/v2/order_book
	Scale           domain.PriceScale
	SnapshotTimeout time.Duration
	IdleTimeout     time.Duration
}

// Adapter implements domain.VenueAdapter for Bitstamp.
type Adapter struct {
	cfg        Config
	httpClient *http.Client
}

func NewAdapter(cfg Config) *Adapter {
	return &Adapter{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.SnapshotTimeout},
	}
}

func (a *Adapter) Venue() domain.VenueID { return domain.Bitstamp }

func (a *Adapter) Start(ctx context.Context, book domain.BookWriter, report func(domain.SessionState)) domain.Termination {
	emit := func(s domain.SessionState) {
		if report != nil {
			report(s)
		}
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	bs := domain.NewBootstrapper(domain.Bitstamp, newValidator())
	termCh := make(chan domain.Termination, 1)

	emit(domain.Connecting)
	client := newStreamClient()
	if err := client.connect(a.cfg.WSEndpoint, "diff_order_book_"+a.cfg.Pair); err != nil {
		return domain.Termination{Signal: domain.SignalDisconnected, Err: err}
	}
	defer client.close()

	go a.readLoop(sessionCtx, cancel, client, bs, termCh)

	if err := bs.AwaitFirstMessage(sessionCtx); err != nil {
		return domain.ResolveTermination(ctx, sessionCtx, termCh)
	}

	emit(domain.Snapshotting)
	snapCtx, cancelSnap := context.WithTimeout(sessionCtx, a.cfg.SnapshotTimeout)
	snap, err := fetchSnapshot(snapCtx, a.httpClient, a.cfg.RESTEndpoint, a.cfg.Pair, a.cfg.Scale)
	cancelSnap()
	if err != nil {
		logger.Printf("snapshot fetch failed: %v", err)
		cancel()
		return domain.Termination{Signal: domain.SignalDisconnected, Err: err}
	}

	if err := book.ApplySnapshot(domain.Bitstamp, snap.SnapshotUpdID, snap.Bids, snap.Asks); err != nil {
		cancel()
		return domain.Termination{Signal: domain.SignalDesync, Err: err}
	}

	emit(domain.Live)
	if err := bs.Bootstrap(sessionCtx, book, snap.SnapshotUpdID); err != nil {
		logger.Printf("desync: %v", err)
		cancel()
		return domain.Termination{Signal: domain.SignalDesync, Err: err}
	}

	return domain.ResolveTermination(ctx, sessionCtx, termCh)
}

func (a *Adapter) readLoop(ctx context.Context, cancel context.CancelFunc, client *streamClient, bs *domain.Bootstrapper, termCh chan<- domain.Termination) {
	raw := make(chan frame)
	go client.readLoop(raw)

	idle := time.NewTimer(a.cfg.IdleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-idle.C:
			termCh <- domain.Termination{Signal: domain.SignalDisconnected, Err: context.DeadlineExceeded}
			cancel()
			return
		case f, ok := <-raw:
			if !ok {
				return
			}
			if f.err != nil {
				termCh <- domain.Termination{Signal: domain.SignalDisconnected, Err: f.err}
				cancel()
				return
			}
			idle.Reset(a.cfg.IdleTimeout)
			delta, err := parseDelta(f.msg, a.cfg.Scale)
			if err != nil {
				termCh <- domain.Termination{Signal: domain.SignalDesync, Err: err}
				cancel()
				return
			}
			if delta == nil {
				continue // subscription ack / heartbeat, nothing to apply
			}
			bs.Feed(delta)
		}
	}
}
