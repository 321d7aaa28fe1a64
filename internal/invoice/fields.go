package invoice

import (
	"regexp"
	"strings"
)

// CustPartAbsent is the sentinel stored when no usable customer part number is
// present near a reference.
const CustPartAbsent = "NA"

// windowRadius is the number of source lines framing a reference's first
// occurrence. Labels drift a few lines from their anchor on noisy extractions;
// a fixed radius tolerates that without a layout parser.
const windowRadius = 10

var (
	reQuantity     = regexp.MustCompile(`([\d,]+)\s+PCS`)
	reMPN          = regexp.MustCompile(`(?m)^Manuf\. Part#\s*:\s*(\S+)`)
	reManufacturer = regexp.MustCompile(`(?m)^Manufacturer\s*:\s*(.+)$`)
	reCustPart     = regexp.MustCompile(`(?mi)^Cust\. Part#\s*:\s*(\S+)$`)
)

// LineFields holds the per-line fields pulled from one context window.
type LineFields struct {
	MPN            string
	Manufacturer   string
	Quantity       string
	CustPartNumber string
}

// contextWindow frames the anchor line with up to windowRadius lines before
// and after, clipped at document boundaries.
func contextWindow(lines []string, anchor int) string {
	start := anchor - windowRadius
	if start < 0 {
		start = 0
	}
	end := anchor + windowRadius
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start:end], "\n")
}

// extractLineFields applies the field rules to a context window. Every rule
// tolerates absence: a missing field is an empty string (or the CustPartAbsent
// sentinel), never an error.
func extractLineFields(window string) LineFields {
	f := LineFields{CustPartNumber: CustPartAbsent}

	if m := reQuantity.FindStringSubmatch(window); m != nil {
		f.Quantity = m[1]
	}
	if m := reMPN.FindStringSubmatch(window); m != nil {
		f.MPN = m[1]
	}
	if m := reManufacturer.FindStringSubmatch(window); m != nil {
		f.Manufacturer = strings.TrimSpace(m[1])
	}
	if m := reCustPart.FindStringSubmatch(window); m != nil {
		token := strings.TrimSpace(m[1])
		if token != "" && !strings.ContainsAny(token, " \t") {
			f.CustPartNumber = token
		}
	}
	return f
}
