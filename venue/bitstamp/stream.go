package bitstamp

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/singhparshant/Aggregated-Orderbook/domain"
)

// diffOrderBookFrame is the diff_order_book_<pair> event envelope. Bitstamp
// wraps every channel message the same way regardless of channel, so Event
// is checked to ignore the initial bts:subscription_succeeded ack.
type diffOrderBookFrame struct {
	Event string `json:"event"`
	Data  struct {
		Microtimestamp string     `json:"microtimestamp"`
		Bids           [][]string `json:"bids"`
		Asks           [][]string `json:"asks"`
	} `json:"data"`
}

// parseDelta decodes a raw WebSocket frame into a domain.Delta, or returns
// (nil, nil) for non-data frames (subscription acks, heartbeats) that carry
// nothing to apply.
func parseDelta(raw []byte, scale domain.PriceScale) (*domain.Delta, error) {
	var frame diffOrderBookFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, fmt.Errorf("bitstamp: %w", domain.ErrMalformedFrame)
	}
	if frame.Event != "data" {
		return nil, nil
	}

	seq, err := strconv.ParseInt(frame.Data.Microtimestamp, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bitstamp: %w", domain.ErrMalformedFrame)
	}

	bids, err := toPriceLevels(frame.Data.Bids, scale)
	if err != nil {
		return nil, err
	}
	asks, err := toPriceLevels(frame.Data.Asks, scale)
	if err != nil {
		return nil, err
	}

	return &domain.Delta{
		Venue:         domain.Bitstamp,
		SequenceStart: seq,
		SequenceEnd:   seq,
		Bids:          bids,
		Asks:          asks,
	}, nil
}
