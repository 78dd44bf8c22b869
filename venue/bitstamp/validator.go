package bitstamp

import "github.com/singhparshant/Aggregated-Orderbook/domain"

// validator implements domain.ContinuityValidator for Bitstamp's single
// monotonically increasing microtimestamp continuity rule, adapted from the
// teacher's provider/binance/depth-update-validator.go shape but for a
// single sequence number rather than a range.
type validator struct{}

func newValidator() validator { return validator{} }

// ValidateFirst requires seq > snapshotUpdID.
func (validator) ValidateFirst(d *domain.Delta, snapshotUpdID int64) error {
	if d.SequenceEnd > snapshotUpdID {
		return nil
	}
	return domain.ErrSequenceGap
}

// ValidateNext requires seq > prevSequenceEnd.
func (validator) ValidateNext(d *domain.Delta, prevSequenceEnd int64) error {
	if d.SequenceEnd > prevSequenceEnd {
		return nil
	}
	return domain.ErrSequenceGap
}

func (validator) EffectiveEnd(d *domain.Delta) int64 {
	return d.SequenceEnd
}
