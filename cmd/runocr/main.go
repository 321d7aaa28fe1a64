package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/jchiu-fusion/mpn-matcher-web/internal/common"
	"github.com/jchiu-fusion/mpn-matcher-web/internal/match"
	"github.com/jchiu-fusion/mpn-matcher-web/internal/ocr"
)

// runocr reads one photo and prints the normalized, deduplicated candidate
// set as JSON, which is exactly what the matcher would score.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runocr <photo-path>")
		os.Exit(2)
	}
	path := os.Args[1]

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "error", err)
	}
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.OCRTimeout)
	defer cancel()

	extractor := ocr.NewExtractor(ocr.Config{
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
		HeicConverter: cfg.OCR.HeicConverter,
		PSM:           cfg.OCR.PSM,
		OEM:           cfg.OCR.OEM,
		EnhanceImages: cfg.OCR.EnhanceImages,
		ArtifactDir:   cfg.OCR.ArtifactDir,
	}, logger)

	dets, err := extractor.Detect(ctx, path)
	if err != nil {
		logger.Error("ocr failed", "path", path, "error", err)
		os.Exit(1)
	}

	raw := make([]match.Candidate, 0, len(dets))
	for _, d := range dets {
		raw = append(raw, match.Candidate{Text: d.Text, Confidence: d.Confidence})
	}
	cands := match.BuildCandidates(raw, cfg.Match.MinLength, cfg.Match.ConfidenceThreshold)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cands); err != nil {
		logger.Error("encode candidates", "error", err)
		os.Exit(1)
	}
	logger.Info("ocr OK", "path", path, "detections", len(dets), "candidates", len(cands))
}
