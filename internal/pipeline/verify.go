// Package pipeline wires the collaborators to the core engines: invoice
// parsing feeds a target MPN, photo OCR feeds candidates, and each photo
// ends in a scored, tiered verdict.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jchiu-fusion/mpn-matcher-web/constants"
	"github.com/jchiu-fusion/mpn-matcher-web/internal/common"
	"github.com/jchiu-fusion/mpn-matcher-web/internal/invoice"
	"github.com/jchiu-fusion/mpn-matcher-web/internal/match"
	"github.com/jchiu-fusion/mpn-matcher-web/internal/ocr"
)

// DocumentReader is the document-to-text collaborator surface the pipeline
// needs from internal/ocr.
type DocumentReader interface {
	DocumentText(ctx context.Context, path string) (text string, pages int, err error)
}

// Photo is one photo to match. ID is the caller-facing identifier (usually
// the original upload filename); Path is where the bytes live on disk.
type Photo struct {
	ID   string
	Path string
}

// PhotoResult is the verdict for one photo. A collaborator failure shows up
// as zero candidates and a WEAK tier with Err set; it never aborts the batch.
type PhotoResult struct {
	ImageID    string              `json:"image_id"`
	BestScore  float64             `json:"best_score"`
	Tier       constants.MatchTier `json:"tier"`
	Candidates []match.Candidate   `json:"candidates"`
	Err        string              `json:"error,omitempty"`
}

// Report is the outcome of one verification run.
type Report struct {
	Target  string               `json:"target"`
	Lines   []invoice.LineRecord `json:"lines"`
	Results []PhotoResult        `json:"results"`
}

// Verifier coordinates one verification flow. It holds no mutable state;
// concurrent use is safe as long as the injected engine is.
type Verifier struct {
	docs       DocumentReader
	engine     ocr.Engine
	classifier *match.Classifier

	minLength     int
	confThreshold float64
	ocrTimeout    time.Duration

	log *slog.Logger
}

type Options struct {
	MinLength           int
	ConfidenceThreshold float64
	OCRTimeout          time.Duration // zero means no per-photo deadline
}

func NewVerifier(docs DocumentReader, engine ocr.Engine, classifier *match.Classifier, opts Options, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MinLength == 0 {
		opts.MinLength = match.DefaultMinLength
	}
	if opts.ConfidenceThreshold == 0 {
		opts.ConfidenceThreshold = match.DefaultConfidenceThreshold
	}
	return &Verifier{
		docs:          docs,
		engine:        engine,
		classifier:    classifier,
		minLength:     opts.MinLength,
		confThreshold: opts.ConfidenceThreshold,
		ocrTimeout:    opts.OCRTimeout,
		log:           logger,
	}
}

// ParseInvoice extracts the line-item records from an invoice PDF. A
// collaborator failure is an error; a readable document with no line items
// yields an empty slice.
func (v *Verifier) ParseInvoice(ctx context.Context, pdfPath string) ([]invoice.LineRecord, error) {
	text, pages, err := v.docs.DocumentText(ctx, pdfPath)
	if err != nil {
		v.log.Error("pipeline.doc.failed", "path", pdfPath, "error", err)
		return nil, fmt.Errorf("document text: %w", err)
	}
	recs := invoice.Parse(text)
	v.log.Info("pipeline.doc.ok", "path", pdfPath, "pages", pages, "lines", len(recs))
	return recs, nil
}

// Candidates runs OCR on one photo and builds the normalized, deduplicated
// candidate set.
func (v *Verifier) Candidates(ctx context.Context, photoPath string) ([]match.Candidate, error) {
	if v.ocrTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.ocrTimeout)
		defer cancel()
	}
	dets, err := v.engine.Detect(ctx, photoPath)
	if err != nil {
		return nil, err
	}
	raw := make([]match.Candidate, 0, len(dets))
	for _, d := range dets {
		raw = append(raw, match.Candidate{Text: d.Text, Confidence: d.Confidence})
	}
	return match.BuildCandidates(raw, v.minLength, v.confThreshold), nil
}

// MatchPhotos scores every photo against the target. One bad photo degrades
// to a zero-candidate WEAK result; the siblings still get processed.
func (v *Verifier) MatchPhotos(ctx context.Context, target string, photos []Photo) []PhotoResult {
	results := make([]PhotoResult, 0, len(photos))
	for _, p := range photos {
		id := p.ID
		if id == "" {
			id = filepath.Base(p.Path)
		}
		res := PhotoResult{ImageID: id}

		cands, err := v.Candidates(ctx, p.Path)
		if err != nil {
			v.log.Error("pipeline.ocr.failed", "photo", p.Path, "error", err)
			res.Err = err.Error()
			res.Candidates = []match.Candidate{}
			res.Tier = v.classifier.Classify(0)
			results = append(results, res)
			continue
		}

		res.Candidates = cands
		res.BestScore = match.ScoreBest(target, cands)
		res.Tier = v.classifier.Classify(res.BestScore)
		v.log.Info("pipeline.match.ok",
			"photo", p.Path,
			"candidates", len(cands),
			"best_score", res.BestScore,
			"tier", res.Tier,
		)
		results = append(results, res)
	}
	return results
}

// Verify runs the whole flow: parse the invoice, choose the target MPN
// (manual override wins, else the first line's MPN), then match the photos.
func (v *Verifier) Verify(ctx context.Context, pdfPath, overrideMPN string, photos []Photo) (Report, error) {
	lines, err := v.ParseInvoice(ctx, pdfPath)
	if err != nil {
		return Report{}, err
	}

	target := overrideMPN
	if target == "" && len(lines) > 0 {
		target = lines[0].MPN
	}
	if target == "" {
		return Report{Lines: lines}, common.NewAppError("NO_TARGET",
			"invoice has no part number and no override given", common.ErrInvalidInput)
	}

	return Report{
		Target:  target,
		Lines:   lines,
		Results: v.MatchPhotos(ctx, target, photos),
	}, nil
}
