package binance

import (
	"encoding/json"
	"fmt"

	"github.com/singhparshant/Aggregated-Orderbook/domain"
)

// depthUpdateFrame is the diff-depth event shape (grounded on
// original_source/src/modules/binance.rs's BinanceDepthUpdate).
type depthUpdateFrame struct {
	EventType     string     `json:"e"`
	FirstUpdateID int64      `json:"U"`
	FinalUpdateID int64      `json:"u"`
	Bids          [][]string `json:"b"`
	Asks          [][]string `json:"a"`
}

// parseDelta decodes a raw WebSocket frame into a domain.Delta. Binance's
// combined-stream wrapper ({"stream":..,"data":{...}}) is not used here
// since the adapter dials the single-stream endpoint directly.
func parseDelta(raw []byte, scale domain.PriceScale) (*domain.Delta, error) {
	var frame depthUpdateFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, fmt.Errorf("binance: %w", domain.ErrMalformedFrame)
	}
	if frame.EventType != "" && frame.EventType != "depthUpdate" {
		return nil, fmt.Errorf("binance: unexpected event type %q: %w", frame.EventType, domain.ErrMalformedFrame)
	}

	bids, err := toPriceLevels(frame.Bids, scale)
	if err != nil {
		return nil, err
	}
	asks, err := toPriceLevels(frame.Asks, scale)
	if err != nil {
		return nil, err
	}

	return &domain.Delta{
		Venue:         domain.Binance,
		SequenceStart: frame.FirstUpdateID,
		SequenceEnd:   frame.FinalUpdateID,
		Bids:          bids,
		Asks:          asks,
	}, nil
}
