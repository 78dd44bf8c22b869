package rpc

import (
	"log"
	"os"

	"github.com/singhparshant/Aggregated-Orderbook/gen"
	"github.com/singhparshant/Aggregated-Orderbook/publish"
)

var logger = log.New(os.Stdout, "[rpc] ", log.LstdFlags)

// server implements gen.OrderbookAggregatorServer by fanning the
// publish.Publisher's summaries out to each streaming RPC caller.
type server struct {
	gen.UnimplementedOrderbookAggregatorServer
	publisher *publish.Publisher
}

func NewServer(publisher *publish.Publisher) *server {
	return &server{publisher: publisher}
}

func toGenLevels(levels []publish.Level) []*gen.Level {
	out := make([]*gen.Level, 0, len(levels))
	for _, lvl := range levels {
		out = append(out, &gen.Level{
			Exchange: lvl.Exchange,
			Price:    lvl.Price,
			Amount:   lvl.Amount,
		})
	}
	return out
}
