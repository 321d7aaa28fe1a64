package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/jchiu-fusion/mpn-matcher-web/internal/cache"
	"github.com/jchiu-fusion/mpn-matcher-web/internal/common"
	"github.com/jchiu-fusion/mpn-matcher-web/internal/export"
	"github.com/jchiu-fusion/mpn-matcher-web/internal/match"
	"github.com/jchiu-fusion/mpn-matcher-web/internal/ocr"
	"github.com/jchiu-fusion/mpn-matcher-web/internal/pipeline"
	"github.com/jchiu-fusion/mpn-matcher-web/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "error", err)
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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
		logger.Info("using remote OCR engine", "url", cfg.OCR.RemoteURL)
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

	srv := server.NewServer(cfg.Server, verifier, export.NewService(logger), logger)
	httpSrv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router(),
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("stopped")
}
