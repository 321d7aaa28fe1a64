// Package invoice turns raw invoice document text into structured line-item
// records. The text itself comes from the document-to-text collaborator
// (internal/ocr); this package never touches the binary source format.
package invoice

import (
	"regexp"
	"strings"
)

// LineRecord is one parsed invoice line item. RefNumber values are unique
// within a document and ordered by first appearance; the SO/PO/ShipTo fields
// are document-level and identical across all records of one parse.
type LineRecord struct {
	RefNumber      string `json:"ref_number"`
	MPN            string `json:"mpn"`
	Manufacturer   string `json:"manufacturer"`
	Quantity       string `json:"quantity"`
	SONumber       string `json:"so_number"`
	PONumber       string `json:"po_number"`
	ShipTo         string `json:"ship_to"`
	CustPartNumber string `json:"cust_part_number"`
}

var (
	// A PO rides on the order date line: "15-Jan-2024 PO-99231".
	rePODateLine = regexp.MustCompile(`^\s*\d{1,2}-[A-Za-z]{3}-\d{4}\s+([A-Za-z0-9-]+)`)
	rePOLabel    = regexp.MustCompile(`(?i)PO#\s*([A-Za-z0-9-]+)`)
	reSO         = regexp.MustCompile(`\b(\d{6}/\d{2})\b`)
	reShipTo     = regexp.MustCompile(`(?is)Ship To:\s*(.*?)\n\s*Customer #:`)
	reBlankRun   = regexp.MustCompile(`\n\s*\n+`)
)

// Parse extracts all line-item records from raw document text. Empty or
// unreadable text yields an empty slice and no error; "no line items found"
// is a reportable outcome, not a failure.
func Parse(text string) []LineRecord {
	if text == "" {
		return nil
	}

	po := parsePONumber(text)
	so := ""
	if m := reSO.FindStringSubmatch(text); m != nil {
		so = m[1]
	}
	ship := parseShipToBlock(text)

	lines := strings.Split(text, "\n")
	refs := ExtractReferences(text)

	records := make([]LineRecord, 0, len(refs))
	for _, ref := range refs {
		anchor := -1
		for i, ln := range lines {
			if strings.Contains(ln, ref) {
				anchor = i
				break
			}
		}
		if anchor < 0 {
			// Reference matched across a line boundary; nothing to frame.
			continue
		}
		f := extractLineFields(contextWindow(lines, anchor))
		records = append(records, LineRecord{
			RefNumber:      ref,
			MPN:            f.MPN,
			Manufacturer:   f.Manufacturer,
			Quantity:       f.Quantity,
			SONumber:       so,
			PONumber:       po,
			ShipTo:         ship,
			CustPartNumber: f.CustPartNumber,
		})
	}
	return records
}

// parsePONumber prefers the token after a date-prefixed line, falling back to
// a PO# label anywhere in the text.
func parsePONumber(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if m := rePODateLine.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	if m := rePOLabel.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// parseShipToBlock returns the address block between "Ship To:" and the next
// "Customer #:" label. Blank-line runs collapse to single spaces; residual
// lines are trimmed and lose trailing commas.
func parseShipToBlock(text string) string {
	m := reShipTo.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	raw := strings.TrimSpace(m[1])
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	raw = reBlankRun.ReplaceAllString(raw, " ")

	var out []string
	for _, ln := range strings.Split(raw, "\n") {
		ln = strings.TrimRight(strings.TrimSpace(ln), ",")
		if ln != "" {
			out = append(out, ln)
		}
	}
	return strings.Join(out, "\n")
}
