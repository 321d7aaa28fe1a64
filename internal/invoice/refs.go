package invoice

import "regexp"

// Reference identifiers look like 123456-1 or 123456-1.2: a six digit order
// group, a hyphen, a line number, and an optional decimal suffix.
var reRef = regexp.MustCompile(`\b\d{6}-\d+(?:\.\d+)?\b`)

// ExtractReferences returns every distinct reference identifier in the
// document text, ordered by first occurrence. Duplicates after the first are
// dropped. No matches is a normal outcome and yields an empty slice.
func ExtractReferences(text string) []string {
	raw := reRef.FindAllString(text, -1)
	seen := make(map[string]struct{}, len(raw))
	refs := make([]string, 0, len(raw))
	for _, r := range raw {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		refs = append(refs, r)
	}
	return refs
}
