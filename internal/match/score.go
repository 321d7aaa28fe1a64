package match

// Score computes an asymmetric similarity percentage between the target part
// number and one candidate reading.
//
// It totals the lengths of non-overlapping matching runs found greedily:
// take the longest common contiguous run (ties resolve to the lowest target
// offset, then the lowest candidate offset), then recurse on the left and
// right remainders of both strings. The result is matched length divided by
// the target's length, scaled to 0..100.
//
// The denominator is deliberately the target's length, not the longer
// string: the score answers "how much of the target is recoverable from this
// reading". A candidate with extra garbage around a full copy of the target
// still scores 100; a truncated candidate cannot.
func Score(target, candidate string) float64 {
	denom := len(target)
	if denom < 1 {
		denom = 1
	}
	return float64(matchedLength(target, candidate)) / float64(denom) * 100
}

// ScoreBest returns the maximum Score over a candidate set. An empty set
// scores zero.
func ScoreBest(target string, candidates []Candidate) float64 {
	best := 0.0
	for _, c := range candidates {
		if s := Score(target, c.Text); s > best {
			best = s
		}
	}
	return best
}

// matchedLength sums matching-run lengths via greedy recursion. The
// threshold behavior of the classifier depends on this exact heuristic; do
// not swap it for edit distance or set similarity.
func matchedLength(a, b string) int {
	ai, bi, size := longestCommonRun(a, b)
	if size == 0 {
		return 0
	}
	return matchedLength(a[:ai], b[:bi]) + size + matchedLength(a[ai+size:], b[bi+size:])
}

// longestCommonRun finds the longest common contiguous run of bytes between
// a and b, preferring the earliest start in a and then in b on ties.
func longestCommonRun(a, b string) (ai, bi, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	// lengths[j] is the length of the common run ending at a[i]/b[j] for the
	// current row i.
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 0; i < len(a); i++ {
		for j := 0; j < len(b); j++ {
			if a[i] == b[j] {
				curr[j+1] = prev[j] + 1
				if curr[j+1] > size {
					size = curr[j+1]
					ai = i - size + 1
					bi = j - size + 1
				}
			} else {
				curr[j+1] = 0
			}
		}
		prev, curr = curr, prev
	}
	return ai, bi, size
}
