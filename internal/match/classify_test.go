package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jchiu-fusion/mpn-matcher-web/constants"
)

func TestClassifyTiers(t *testing.T) {
	c, err := NewClassifier(DefaultHighThreshold)
	require.NoError(t, err)

	tests := []struct {
		score float64
		want  constants.MatchTier
	}{
		{100, constants.TierExact},
		{99.9, constants.TierStrong},
		{DefaultHighThreshold, constants.TierStrong},
		{DefaultHighThreshold - 0.1, constants.TierWeak},
		{0, constants.TierWeak},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, c.Classify(tc.score), "score %v", tc.score)
	}
}

func TestClassifyCustomThreshold(t *testing.T) {
	c, err := NewClassifier(80)
	require.NoError(t, err)
	assert.Equal(t, constants.TierStrong, c.Classify(80))
	assert.Equal(t, constants.TierWeak, c.Classify(79.9))
}

func TestNewClassifierRejectsBadThreshold(t *testing.T) {
	for _, v := range []float64{-1, 0, 100.1} {
		_, err := NewClassifier(v)
		assert.Error(t, err, "threshold %v", v)
	}
}
