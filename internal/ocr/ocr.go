// Package ocr drives the external collaborators: pdftotext for document text
// and tesseract for photo readings. Everything that shells out goes through
// the Runner interface so the commands can be stubbed in tests. The core
// parsing and matching packages never import this one; they only see the
// text and (text, confidence) pairs it produces.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jchiu-fusion/mpn-matcher-web/constants"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"

	TessdataDir   string
	HeicConverter string // "heif-convert" | "magick" | "sips"

	PSM int // e.g., 6 is good for a uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default

	// EnhanceImages runs the grayscale/contrast/sharpen chain before OCR.
	EnhanceImages bool

	ArtifactDir string // scratch space for converted/enhanced images
}

// Detection is one raw reading from the OCR engine: the text of a detected
// line and the engine's confidence in 0..1. The engine contract is strict:
// every detection carries exactly one such pair.
type Detection struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Engine produces raw detections for one image. The local tesseract
// Extractor and the remote HTTP engine both satisfy it, as does the caching
// wrapper in internal/cache.
type Engine interface {
	Detect(ctx context.Context, path string) ([]Detection, error)
}

// Extractor is the process-wide OCR engine. Construct it once at startup and
// inject it; it holds configuration only, so concurrent Detect calls are
// safe.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.ArtifactDir == "" {
		cfg.ArtifactDir = "./tmp"
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Detect runs OCR on a photo and returns the raw line detections.
func (e *Extractor) Detect(ctx context.Context, path string) ([]Detection, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	if constants.MapExtToFormat(ext) != constants.IMAGE {
		e.logger.Error("unsupported ocr extension", "extension", ext)
		return nil, fmt.Errorf("unsupported extension: %q", ext)
	}

	if constants.IsHEICExt(ext) {
		out, cleanup, err := convertHEICtoPNG(ctx, e.runner, e.cfg.HeicConverter, path)
		if cleanup != nil {
			defer cleanup()
		}
		if err != nil {
			e.logger.Error("heic conversion failed", "path", path, "error", err)
			return nil, err
		}
		path = out
	}

	if e.cfg.EnhanceImages {
		out, cleanup, err := enhanceForOCR(path, e.cfg.ArtifactDir)
		if err != nil {
			// Enhancement is best-effort; fall back to the original photo.
			e.logger.Warn("image enhancement failed", "path", path, "error", err)
		} else {
			defer cleanup()
			path = out
		}
	}

	dets, err := e.tesseractDetect(ctx, path)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("ocr detect ok",
		"path", path,
		"detections", len(dets),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return dets, nil
}
