package bitstamp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/singhparshant/Aggregated-Orderbook/domain"
)

// restSnapshot mirrors Bitstamp's GET /api/v2/order_book/<pair>/ response.
// microtimestamp doubles as the venue's snapshot_update_id.
type restSnapshot struct {
	Microtimestamp string     `json:"microtimestamp"`
	Bids           [][]string `json:"bids"`
	Asks           [][]string `json:"asks"`
}

func fetchSnapshot(ctx context.Context, client *http.Client, restEndpoint, pair string, scale domain.PriceScale) (domain.Snapshot, error) {
	url := fmt.Sprintf("%s/%s/", restEndpoint, pair)
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
		return domain.Snapshot{}, fmt.Errorf("bitstamp: snapshot request returned %s", resp.Status)
	}

	var raw restSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return domain.Snapshot{}, fmt.Errorf("bitstamp: decode snapshot: %w", err)
	}

	seq, err := strconv.ParseInt(raw.Microtimestamp, 10, 64)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("bitstamp: %w", domain.ErrMalformedFrame)
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
		Venue:         domain.Bitstamp,
		SnapshotUpdID: seq,
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
			return nil, fmt.Errorf("bitstamp: %w", domain.ErrMalformedFrame)
		}
		qty, err := strconv.ParseFloat(pair[1], 64)
		if err != nil {
			return nil, fmt.Errorf("bitstamp: %w", domain.ErrMalformedFrame)
		}
		out = append(out, domain.PriceLevel{
			PriceTicks: scale.ToTicks(price),
			QtyTicks:   scale.ToTicksUnsigned(qty),
		})
	}
	return out, nil
}
