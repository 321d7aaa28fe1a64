// Package match scores noisy OCR readings against a target manufacturer part
// number and buckets the best score into a confidence tier.
package match

import (
	"sort"
	"strings"
	"unicode"
)

// Default candidate filters. Readings shorter than two characters or without
// a single digit are never part numbers; readings the OCR engine itself
// doubts below 0.3 are noise.
const (
	DefaultMinLength           = 2
	DefaultConfidenceThreshold = 0.3
)

// Candidate is one normalized OCR reading with the engine's confidence.
type Candidate struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// NormalizeText uppercases a raw reading and strips all internal whitespace.
func NormalizeText(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, strings.ToUpper(s))
}

// NormalizeCandidates filters and normalizes raw (text, confidence) pairs.
// A pair survives iff its normalized text is at least minLength runes long,
// contains at least one digit, and its confidence meets the threshold.
// Input order is preserved.
func NormalizeCandidates(raw []Candidate, minLength int, confidenceThreshold float64) []Candidate {
	out := make([]Candidate, 0, len(raw))
	for _, c := range raw {
		if c.Confidence < confidenceThreshold {
			continue
		}
		text := NormalizeText(c.Text)
		if len([]rune(text)) < minLength || !containsDigit(text) {
			continue
		}
		out = append(out, Candidate{Text: text, Confidence: c.Confidence})
	}
	return out
}

// DedupeCandidates collapses duplicate normalized texts, keeping the
// highest-confidence instance of each. Output is ordered by descending
// confidence; the stable sort guarantees the survivor of a tie is the one
// that appeared first.
func DedupeCandidates(candidates []Candidate) []Candidate {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	seen := make(map[string]struct{}, len(sorted))
	out := make([]Candidate, 0, len(sorted))
	for _, c := range sorted {
		if _, ok := seen[c.Text]; ok {
			continue
		}
		seen[c.Text] = struct{}{}
		out = append(out, c)
	}
	return out
}

// BuildCandidates is the combined normalize+dedupe entry point used by the
// pipeline and the HTTP layer.
func BuildCandidates(raw []Candidate, minLength int, confidenceThreshold float64) []Candidate {
	return DedupeCandidates(NormalizeCandidates(raw, minLength, confidenceThreshold))
}

func containsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}
