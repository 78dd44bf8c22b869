package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/singhparshant/Aggregated-Orderbook/domain"
)

// restSnapshot mirrors the subset of Binance's GET /api/v3/depth response
// this process needs (grounded on original_source/src/modules/binance.rs's
// BinanceSnapshot struct).
type restSnapshot struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}

// fetchSnapshot performs the REST depth request and converts it to a
// domain.Snapshot at the configured price scale.
func fetchSnapshot(ctx context.Context, client *http.Client, restEndpoint, pair string, limit int, scale domain.PriceScale) (domain.Snapshot, error) {
	url := fmt.Sprintf("%s?symbol=%s&limit=%d", restEndpoint, strings.ToUpper(pair), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Snapshot{}, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return domain.Snapshot{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Snapshot{}, fmt.Errorf("binance: snapshot request returned %s", resp.Status)
	}

	var raw restSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return domain.Snapshot{}, fmt.Errorf("binance: decode snapshot: %w", err)
	}

	bids, err := toPriceLevels(raw.Bids, scale)
	if err != nil {
		return domain.Snapshot{}, err
	}
	asks, err := toPriceLevels(raw.Asks, scale)
	if err != nil {
		return domain.Snapshot{}, err
	}

	return domain.Snapshot{
		Venue:         domain.Binance,
		SnapshotUpdID: raw.LastUpdateID,
		Bids:          bids,
		Asks:          asks,
	}, nil
}

func toPriceLevels(raw [][]string, scale domain.PriceScale) ([]domain.PriceLevel, error) {
	out := make([]domain.PriceLevel, 0, len(raw))
	for _, pair := range raw {
		if len(pair) != 2 {
			return nil, domain.ErrMalformedFrame
		}
		price, err := strconv.ParseFloat(pair[0], 64)
		if err != nil {
			return nil, fmt.Errorf("binance: %w", domain.ErrMalformedFrame)
		}
		qty, err := strconv.ParseFloat(pair[1], 64)
		if err != nil {
			return nil, fmt.Errorf("binance: %w", domain.ErrMalformedFrame)
		}
		out = append(out, domain.PriceLevel{
			PriceTicks: scale.ToTicks(price),
			QtyTicks:   scale.ToTicksUnsigned(qty),
		})
	}
	return out, nil
}
