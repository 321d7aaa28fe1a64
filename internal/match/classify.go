package match

import (
	"fmt"

	"github.com/jchiu-fusion/mpn-matcher-web/constants"
)

// DefaultHighThreshold is the STRONG-tier cutoff. The shipped web edition of
// the matcher used 85; the older desktop build's 80 was retired with it.
const DefaultHighThreshold = 85.0

// Classifier maps a best similarity score to a display tier.
type Classifier struct {
	highThreshold float64
}

// NewClassifier validates the STRONG cutoff at construction; scores are
// percentages, so the cutoff must sit in (0, 100].
func NewClassifier(highThreshold float64) (*Classifier, error) {
	if highThreshold <= 0 || highThreshold > 100 {
		return nil, fmt.Errorf("high threshold must be in (0, 100], got %v", highThreshold)
	}
	return &Classifier{highThreshold: highThreshold}, nil
}

// Classify buckets a best score: 100 is EXACT, at or above the high
// threshold is STRONG, anything else WEAK.
func (c *Classifier) Classify(bestScore float64) constants.MatchTier {
	switch {
	case bestScore >= 100:
		return constants.TierExact
	case bestScore >= c.highThreshold:
		return constants.TierStrong
	default:
		return constants.TierWeak
	}
}

// HighThreshold returns the configured STRONG cutoff.
func (c *Classifier) HighThreshold() float64 { return c.highThreshold }
