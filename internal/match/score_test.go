package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreIdentity(t *testing.T) {
	for _, target := range []string{"A", "ABC-123", "LM358N", "4,500"} {
		assert.Equal(t, 100.0, Score(target, target), "target %q", target)
	}
}

func TestScoreSupersetStillExact(t *testing.T) {
	// Extra garbage around a full copy of the target does not cost anything:
	// the denominator is the target's length by contract.
	assert.Equal(t, 100.0, Score("ABC-123", "ABC-123XYZ"))
	assert.Equal(t, 100.0, Score("ABC-123", "XXABC-123"))
}

func TestScoreTruncationBelowExact(t *testing.T) {
	target := "ABC-123"
	truncated := target[:len(target)-1]
	assert.Less(t, Score(target, truncated), 100.0)
	assert.Greater(t, Score(target, truncated), 0.0)
}

func TestScoreAsymmetry(t *testing.T) {
	// Superset candidate recovers the whole target; swapping the arguments
	// makes the longer string the target and the score drops.
	assert.Equal(t, 100.0, Score("ABC", "ABCDEF"))
	assert.Equal(t, 50.0, Score("ABCDEF", "ABC"))
}

func TestScoreDisjoint(t *testing.T) {
	assert.Equal(t, 0.0, Score("ABC", "XYZ"))
}

func TestScoreEmptyStrings(t *testing.T) {
	assert.Equal(t, 0.0, Score("", "ABC"))
	assert.Equal(t, 0.0, Score("ABC", ""))
}

func TestScoreSplitRuns(t *testing.T) {
	// The greedy pass takes the longest run first, then recurses on both
	// remainders: "ABCD" + "123" all recoverable around the noise.
	assert.Equal(t, 100.0, Score("ABCD123", "ABCDxx123"))

	// One character lost in the middle.
	assert.InDelta(t, 6.0/7.0*100, Score("ABCD123", "ABCD23x"), 1e-9)
}

func TestScoreGreedyOrderSensitive(t *testing.T) {
	// The longest run ("BCDE") is claimed first; the leading "A" of the
	// candidate sits to the right of it in the target and can no longer
	// pair with the target's left remainder.
	assert.Equal(t, 4.0/5.0*100, Score("ABCDE", "BCDEA"))
}

func TestScoreBest(t *testing.T) {
	cands := []Candidate{
		{Text: "AB", Confidence: 0.9},
		{Text: "ABC-123", Confidence: 0.4},
		{Text: "ZZZ", Confidence: 0.8},
	}
	assert.Equal(t, 100.0, ScoreBest("ABC-123", cands))
	assert.Equal(t, 0.0, ScoreBest("ABC-123", nil))
}

func TestLongestCommonRunTieBreaking(t *testing.T) {
	// Two runs of equal length: the earliest target offset wins, then the
	// earliest candidate offset.
	ai, bi, size := longestCommonRun("XXYY", "YYXX")
	assert.Equal(t, 2, size)
	assert.Equal(t, 0, ai)
	assert.Equal(t, 2, bi)
}
