package binance

import "github.com/singhparshant/Aggregated-Orderbook/domain"

// validator implements domain.ContinuityValidator for Binance's (U, u)
// range continuity rule, adapted from the teacher's
// provider/binance/depth-update-validator.go.
type validator struct{}

func newValidator() validator { return validator{} }

// ValidateFirst requires U <= snapshotUpdID+1 <= u: the first applied delta
// must bracket the snapshot's position.
func (validator) ValidateFirst(d *domain.Delta, snapshotUpdID int64) error {
	if d.SequenceStart <= snapshotUpdID+1 && snapshotUpdID+1 <= d.SequenceEnd {
		return nil
	}
	return domain.ErrSequenceGap
}

// ValidateNext requires U == prevSequenceEnd+1: every subsequent delta must
// continue exactly where the previous one left off.
func (validator) ValidateNext(d *domain.Delta, prevSequenceEnd int64) error {
	if d.SequenceStart == prevSequenceEnd+1 {
		return nil
	}
	return domain.ErrSequenceGap
}

// EffectiveEnd is u, the final update id in the range.
func (validator) EffectiveEnd(d *domain.Delta) int64 {
	return d.SequenceEnd
}
