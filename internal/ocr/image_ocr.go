package ocr

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// tesseractDetect runs tesseract in TSV mode and folds the word rows into
// per-line detections: line text is the words joined with single spaces, line
// confidence is the mean word confidence scaled to 0..1.
func (e *Extractor) tesseractDetect(ctx context.Context, path string) ([]Detection, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", fmt.Sprintf("%d", e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	// TSV output
	args = append(args, "tsv")

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return nil, fmt.Errorf("tesseract TSV: %w (%s)", err, truncate(string(errb), 512))
	}
	return parseTSVDetections(string(out)), nil
}

// parseTSVDetections parses tesseract TSV output. Word rows are level 5; a
// line's identity is its (page, block, paragraph, line) tuple. Rows with no
// text or conf -1 (structural rows, rejected words) are skipped.
func parseTSVDetections(tsv string) []Detection {
	type lineKey struct{ page, block, par, line string }

	var dets []Detection
	var openKey lineKey
	var words []string
	var sum float64
	var n int

	flush := func() {
		if n == 0 {
			return
		}
		dets = append(dets, Detection{
			Text:       strings.Join(words, " "),
			Confidence: sum / float64(n) / 100.0,
		})
		words, sum, n = nil, 0, 0
	}

	lines := strings.Split(tsv, "\n")
	for i, ln := range lines {
		if i == 0 || len(ln) == 0 {
			continue // skip header
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue // malformed row
		}
		if cols[0] != "5" {
			continue // not a word row
		}
		text := strings.TrimSpace(cols[11])
		confStr := cols[10]
		if text == "" || confStr == "" || confStr == "-1" {
			continue
		}
		conf, err := strconv.ParseFloat(confStr, 64)
		if err != nil {
			continue
		}

		key := lineKey{cols[1], cols[2], cols[3], cols[4]}
		if key != openKey {
			flush()
			openKey = key
		}
		words = append(words, text)
		sum += conf
		n++
	}
	flush()
	return dets
}
