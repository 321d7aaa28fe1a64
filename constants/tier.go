package constants

// MatchTier is the canonical confidence bucket for a best match score.
type MatchTier string

// Stable values (these exact strings go over the wire and into exports).
const (
	TierExact  MatchTier = "EXACT"  // best score hit 100
	TierStrong MatchTier = "STRONG" // best score at or above the high threshold
	TierWeak   MatchTier = "WEAK"   // everything else
)
