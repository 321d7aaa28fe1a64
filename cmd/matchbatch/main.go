package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/jchiu-fusion/mpn-matcher-web/internal/cache"
	"github.com/jchiu-fusion/mpn-matcher-web/internal/common"
	"github.com/jchiu-fusion/mpn-matcher-web/internal/export"
	"github.com/jchiu-fusion/mpn-matcher-web/internal/match"
	"github.com/jchiu-fusion/mpn-matcher-web/internal/ocr"
	"github.com/jchiu-fusion/mpn-matcher-web/internal/pipeline"
)

// matchbatch runs one verification from the shell: an invoice PDF plus photo
// paths, per-photo verdicts on stdout, optional XLSX report.
func main() {
	var (
		invoicePath = flag.String("invoice", "", "invoice PDF path (required)")
		targetMPN   = flag.String("target", "", "target MPN override; default is the first parsed line's MPN")
		xlsxOut     = flag.String("xlsx", "", "write an XLSX report to this path")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if *invoicePath == "" || flag.NArg() == 0 {
		logger.Error("usage", "cmd", "matchbatch -invoice <pdf> [-target <mpn>] [-xlsx <out>] <photo>...")
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "error", err)
	}
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	extractor := ocr.NewExtractor(ocr.Config{
		Pdftotext:     cfg.OCR.Pdftotext,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
		HeicConverter: cfg.OCR.HeicConverter,
		PSM:           cfg.OCR.PSM,
		OEM:           cfg.OCR.OEM,
		EnhanceImages: cfg.OCR.EnhanceImages,
		ArtifactDir:   cfg.OCR.ArtifactDir,
	}, logger)

	var engine ocr.Engine = extractor
	if cfg.OCR.RemoteURL != "" {
		engine = ocr.NewRemoteEngine(cfg.OCR.RemoteURL, nil, logger)
	}
	if cfg.Cache.Path != "" {
		store, err := cache.Open(ctx, cfg.Cache.Path, logger)
		if err != nil {
			logger.Error("open ocr cache", "error", err)
			os.Exit(1)
		}
		defer func() {
			if cerr := store.Close(); cerr != nil {
				logger.Error("close ocr cache", "error", cerr)
			}
		}()
		engine = cache.NewEngine(engine, store, logger)
	}

	classifier, err := match.NewClassifier(cfg.Match.HighThreshold)
	if err != nil {
		logger.Error("invalid match threshold", "error", err)
		os.Exit(1)
	}

	verifier := pipeline.NewVerifier(extractor, engine, classifier, pipeline.Options{
		MinLength:           cfg.Match.MinLength,
		ConfidenceThreshold: cfg.Match.ConfidenceThreshold,
		OCRTimeout:          cfg.Server.OCRTimeout,
	}, logger)

	photos := make([]pipeline.Photo, 0, flag.NArg())
	for _, p := range flag.Args() {
		photos = append(photos, pipeline.Photo{ID: filepath.Base(p), Path: p})
	}

	rep, err := verifier.Verify(ctx, *invoicePath, *targetMPN, photos)
	if err != nil {
		logger.Error("verification failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("target: %s (%d invoice lines)\n", rep.Target, len(rep.Lines))
	for _, r := range rep.Results {
		if r.Err != "" {
			fmt.Printf("%-40s ERROR  %s\n", r.ImageID, r.Err)
			continue
		}
		fmt.Printf("%-40s %6.1f  %s\n", r.ImageID, r.BestScore, r.Tier)
	}

	if *xlsxOut != "" {
		out, err := export.NewService(logger).ReportXLSX(rep)
		if err != nil {
			logger.Error("export failed", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*xlsxOut, out, 0o644); err != nil {
			logger.Error("write report", "path", *xlsxOut, "error", err)
			os.Exit(1)
		}
		logger.Info("report written", "path", *xlsxOut)
	}
}
