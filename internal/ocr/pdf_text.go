package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// DocumentText extracts the full text of an invoice PDF via pdftotext.
// The returned text keeps page layout (`-layout`) because the invoice parser
// anchors field labels at line starts. Unreadable or text-free documents
// return an empty string and no error; a failed pdftotext invocation is a
// collaborator error for the caller to degrade on.
func (e *Extractor) DocumentText(ctx context.Context, path string) (string, int, error) {
	pages, err := validatePDF(path)
	if err != nil {
		return "", 0, fmt.Errorf("pdf validate: %w", err)
	}

	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", pages, fmt.Errorf("pdftotext: %w (%s)", err, truncate(string(errb), 512))
	}

	text := string(out)
	if strings.TrimSpace(text) == "" {
		return "", pages, nil
	}
	// Form feeds separate pages; the parser wants plain newlines.
	text = strings.ReplaceAll(text, "\f", "\n")
	return Normalize(text), pages, nil
}

// validatePDF checks the document is a well-formed PDF before shelling out,
// and reports its page count.
func validatePDF(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return 0, fmt.Errorf("pdfcpu read: %w", err)
	}
	return pdfCtx.PageCount, nil
}
