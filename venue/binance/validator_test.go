package binance

import (
	"testing"

	"github.com/singhparshant/Aggregated-Orderbook/domain"
	"github.com/stretchr/testify/assert"
)

func TestValidator_ValidateFirst(t *testing.T) {
	v := newValidator()

	// U <= snapshotUpdID+1 <= u
	assert.NoError(t, v.ValidateFirst(&domain.Delta{SequenceStart: 5, SequenceEnd: 15}, 10))
	assert.NoError(t, v.ValidateFirst(&domain.Delta{SequenceStart: 11, SequenceEnd: 11}, 10))

	assert.ErrorIs(t, v.ValidateFirst(&domain.Delta{SequenceStart: 12, SequenceEnd: 20}, 10), domain.ErrSequenceGap)
	assert.ErrorIs(t, v.ValidateFirst(&domain.Delta{SequenceStart: 1, SequenceEnd: 5}, 10), domain.ErrSequenceGap)
}

func TestValidator_ValidateNext(t *testing.T) {
	v := newValidator()

	assert.NoError(t, v.ValidateNext(&domain.Delta{SequenceStart: 16, SequenceEnd: 20}, 15))
	assert.ErrorIs(t, v.ValidateNext(&domain.Delta{SequenceStart: 18, SequenceEnd: 20}, 15), domain.ErrSequenceGap)
	assert.ErrorIs(t, v.ValidateNext(&domain.Delta{SequenceStart: 15, SequenceEnd: 20}, 15), domain.ErrSequenceGap)
}

func TestValidator_EffectiveEnd(t *testing.T) {
	v := newValidator()
	assert.Equal(t, int64(20), v.EffectiveEnd(&domain.Delta{SequenceStart: 16, SequenceEnd: 20}))
}
