package binance

import (
	"context"
	"net/http"
	"time"

	"github.com/singhparshant/Aggregated-Orderbook/domain"
)

// Config carries the venue-specific settings Adapter needs, assembled by
// the config package from environment variables.
type Config struct {
	Pair            string // e.g. "ethusdt", lower-cased, no separator
	WSEndpoint      string // e.g. wss://stream.binance.com:9443/ws
	RESTEndpoint    string // e.g. https://api.binance.com/api/v3/depth
	SnapshotLimit   int
	Scale           domain.PriceScale
	SnapshotTimeout time.Duration
	IdleTimeout     time.Duration
}

// Adapter implements domain.VenueAdapter for Binance.
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

func (a *Adapter) Venue() domain.VenueID { return domain.Binance }

// Start runs the full bootstrap sequence (stream first, then snapshot, then
// drain-and-validate, then continuous live apply) and blocks until ctx is
// cancelled or a terminal condition is reached.
func (a *Adapter) Start(ctx context.Context, book domain.BookWriter, report func(domain.SessionState)) domain.Termination {
	emit := func(s domain.SessionState) {
		if report != nil {
			report(s)
		}
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	bs := domain.NewBootstrapper(domain.Binance, newValidator())
	termCh := make(chan domain.Termination, 1)

	emit(domain.Connecting)
	client := newStreamClient()
	client.connect(a.cfg.WSEndpoint + "/" + a.cfg.Pair + "@depth@100ms")
	defer client.close()

	go a.readLoop(sessionCtx, cancel, client, bs, termCh)

	if err := bs.AwaitFirstMessage(sessionCtx); err != nil {
		return domain.ResolveTermination(ctx, sessionCtx, termCh)
	}

	emit(domain.Snapshotting)
	snapCtx, cancelSnap := context.WithTimeout(sessionCtx, a.cfg.SnapshotTimeout)
	snap, err := fetchSnapshot(snapCtx, a.httpClient, a.cfg.RESTEndpoint, a.cfg.Pair, a.cfg.SnapshotLimit, a.cfg.Scale)
	cancelSnap()
	if err != nil {
		logger.Printf("snapshot fetch failed: %v", err)
		cancel()
		return domain.Termination{Signal: domain.SignalDisconnected, Err: err}
	}

	if err := book.ApplySnapshot(domain.Binance, snap.SnapshotUpdID, snap.Bids, snap.Asks); err != nil {
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

// readLoop owns the stream's frame-by-frame decoding and the WS idle
// watchdog; it feeds every valid delta to bs and reports the terminal
// transport/protocol condition, if any, once.
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
			bs.Feed(delta)
		}
	}
}
