package rpc

import (
	"github.com/singhparshant/Aggregated-Orderbook/gen"
	emptypb "google.golang.org/protobuf/types/known/emptypb"
)

// BookSummary streams the aggregated top-of-book summary to the caller
// until either side disconnects.
func (s *server) BookSummary(_ *emptypb.Empty, stream gen.OrderbookAggregator_BookSummaryServer) error {
	sub := s.publisher.Subscribe()
	defer sub.Unsubscribe()

	logger.Printf("subscriber attached")
	defer logger.Printf("subscriber detached")

	for {
		select {
		case <-stream.Context().Done():
			return stream.Context().Err()
		case summary, ok := <-sub.Stream:
			if !ok {
				return nil
			}
			if err := stream.Send(&gen.Summary{
				Spread: summary.Spread,
				Bids:   toGenLevels(summary.Bids),
				Asks:   toGenLevels(summary.Asks),
			}); err != nil {
				return err
			}
		}
	}
}
